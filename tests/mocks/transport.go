package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/davicafu/stockratings/internal/shared/infra/utils"
	"github.com/davicafu/stockratings/internal/stock/domain"
)

// ResponseFunc devuelve el cuerpo "data" de la respuesta GraphQL para un documento.
type ResponseFunc func(ctx context.Context, document string, vars map[string]interface{}) (interface{}, error)

// FakeTransport simula el backend GraphQL: cuenta las llamadas por documento y
// puede quedarse bloqueado en una puerta hasta que el test la abra.
type FakeTransport struct {
	Respond ResponseFunc

	mu    sync.Mutex
	calls map[string]int
	gate  chan struct{}
}

var _ domain.Transport = (*FakeTransport)(nil)

func NewFakeTransport(respond ResponseFunc) *FakeTransport {
	return &FakeTransport{Respond: respond, calls: make(map[string]int)}
}

// Hold bloquea las siguientes llamadas hasta Release.
func (f *FakeTransport) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
}

func (f *FakeTransport) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

// Calls devuelve cuántas veces se envió el documento.
func (f *FakeTransport) Calls(document string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[document]
}

func (f *FakeTransport) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeTransport) Query(ctx context.Context, document string, vars map[string]interface{}, out interface{}) error {
	return f.run(ctx, document, vars, out)
}

func (f *FakeTransport) Mutate(ctx context.Context, document string, vars map[string]interface{}, out interface{}) error {
	return f.run(ctx, document, vars, out)
}

func (f *FakeTransport) run(ctx context.Context, document string, vars map[string]interface{}, out interface{}) error {
	f.mu.Lock()
	f.calls[document]++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	data, err := f.Respond(ctx, document, vars)
	if err != nil {
		return err
	}
	// Igual que un cliente real: el resultado viaja serializado.
	raw, err := utils.JSON.Marshal(data)
	if err != nil {
		return domain.NewTransportError(err.Error())
	}
	return utils.JSON.Unmarshal(raw, out)
}

// MockTransport es un mock de testify para verificar documentos y variables.
type MockTransport struct {
	mock.Mock
}

var _ domain.Transport = (*MockTransport)(nil)

func (m *MockTransport) Query(ctx context.Context, document string, vars map[string]interface{}, out interface{}) error {
	args := m.Called(ctx, document, vars, out)
	return args.Error(0)
}

func (m *MockTransport) Mutate(ctx context.Context, document string, vars map[string]interface{}, out interface{}) error {
	args := m.Called(ctx, document, vars, out)
	return args.Error(0)
}
