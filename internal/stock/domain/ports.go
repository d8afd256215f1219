package domain

import (
	"context"
	"errors"
	"fmt"
)

// ---------- Errores de dominio ----------
var (
	// ErrTransport: fallo de red o de transporte (timeout, conexión, respuesta ilegible).
	ErrTransport = errors.New("transport error")
	// ErrGraphQL: error reportado por el servidor GraphQL.
	ErrGraphQL = errors.New("graphql error")
	// ErrInvalidQuery: parámetros que no se pueden convertir en una consulta.
	ErrInvalidQuery = errors.New("invalid query")
)

// ---------- Interfaces (Ports) ----------

// Transport es el cliente GraphQL externo. El núcleo solo depende de este
// contrato. Las implementaciones deben envolver sus errores con ErrTransport
// o ErrGraphQL.
type Transport interface {
	Query(ctx context.Context, document string, vars map[string]interface{}, out interface{}) error
	Mutate(ctx context.Context, document string, vars map[string]interface{}, out interface{}) error
}

// QueryError es el fallo tipado que ve el llamador.
type QueryError struct {
	Kind QueryKind
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s query failed: %v", e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Category clasifica el error para logs y métricas.
func (e *QueryError) Category() string {
	switch {
	case errors.Is(e.Err, ErrGraphQL):
		return "graphql"
	case errors.Is(e.Err, ErrInvalidQuery):
		return "invalid"
	case errors.Is(e.Err, context.Canceled), errors.Is(e.Err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "transport"
	}
}

// Message devuelve un mensaje legible para mostrar al usuario.
func (e *QueryError) Message() string {
	var msg *MessageError
	if errors.As(e.Err, &msg) {
		return msg.Msg
	}
	return e.Err.Error()
}

// MessageError lleva el mensaje original del servidor o del transporte junto
// con su categoría (ErrTransport / ErrGraphQL).
type MessageError struct {
	Class error
	Msg   string
}

func (e *MessageError) Error() string {
	return fmt.Sprintf("%v: %s", e.Class, e.Msg)
}

func (e *MessageError) Unwrap() error {
	return e.Class
}

// NewGraphQLError construye un error reportado por el servidor.
func NewGraphQLError(msg string) error {
	return &MessageError{Class: ErrGraphQL, Msg: msg}
}

// NewTransportError construye un error de transporte.
func NewTransportError(msg string) error {
	return &MessageError{Class: ErrTransport, Msg: msg}
}
