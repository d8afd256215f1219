package graphql

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"
	"go.uber.org/zap"

	"github.com/davicafu/stockratings/internal/stock/domain"
)

const serverErrorPrefix = "graphql: "

// machinebox/graphql usa el mismo prefijo para los códigos HTTP != 200.
const statusErrorPrefix = "graphql: server returned a non-200 status code"

// Client implementa domain.Transport sobre un endpoint GraphQL HTTP.
type Client struct {
	client   *graphql.Client
	endpoint string
	log      *zap.Logger
}

var _ domain.Transport = (*Client)(nil)

func NewClient(endpoint string, timeout time.Duration, log *zap.Logger) *Client {
	httpClient := &http.Client{Timeout: timeout}
	c := graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient))
	c.Log = func(s string) { log.Debug(s) }

	return &Client{client: c, endpoint: endpoint, log: log}
}

func (c *Client) Query(ctx context.Context, document string, vars map[string]interface{}, out interface{}) error {
	return c.run(ctx, document, vars, out)
}

// Mutate usa el mismo camino que Query: para GraphQL sobre HTTP solo cambia el documento.
func (c *Client) Mutate(ctx context.Context, document string, vars map[string]interface{}, out interface{}) error {
	return c.run(ctx, document, vars, out)
}

func (c *Client) run(ctx context.Context, document string, vars map[string]interface{}, out interface{}) error {
	req := graphql.NewRequest(document)
	for k, v := range vars {
		req.Var(k, v)
	}
	req.Header.Set("Cache-Control", "no-cache")

	if err := c.client.Run(ctx, req, out); err != nil {
		return classify(ctx, err)
	}
	return nil
}

// classify convierte los errores del cliente en ErrTransport / ErrGraphQL.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransport, ctxErr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}

	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, statusErrorPrefix):
		return domain.NewTransportError(strings.TrimPrefix(msg, serverErrorPrefix))
	case strings.HasPrefix(msg, serverErrorPrefix):
		return domain.NewGraphQLError(strings.TrimPrefix(msg, serverErrorPrefix))
	default:
		return domain.NewTransportError(msg)
	}
}
