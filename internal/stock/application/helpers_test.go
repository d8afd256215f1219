package application

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/davicafu/stockratings/internal/stock/domain"
	"github.com/davicafu/stockratings/tests/mocks"
)

// backend es un backend GraphQL falso con un catálogo fijo de tickers.
type backend struct {
	mu       sync.Mutex
	tickers  []string
	lastVars map[string]interface{}
	failNext  []error
	panicNext bool
	sync      *domain.SyncResult
}

func newBackend(tickers ...string) *backend {
	return &backend{
		tickers: tickers,
		sync:    &domain.SyncResult{Success: true, Message: "ok", StocksSynced: len(tickers)},
	}
}

// FailNext hace que las próximas llamadas fallen con los errores dados, en orden.
func (b *backend) FailNext(errs ...error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext = append(b.failNext, errs...)
}

// PanicNext hace que la próxima llamada entre en pánico.
func (b *backend) PanicNext() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.panicNext = true
}

func (b *backend) LastVars() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastVars
}

func (b *backend) respond(ctx context.Context, document string, vars map[string]interface{}) (interface{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastVars = vars
	if b.panicNext {
		b.panicNext = false
		panic("respuesta corrupta")
	}
	if len(b.failNext) > 0 {
		err := b.failNext[0]
		b.failNext = b.failNext[1:]
		return nil, err
	}

	switch document {
	case domain.GetStocksQuery:
		stocks := make([]domain.Stock, 0, len(b.tickers))
		for _, t := range b.tickers {
			stocks = append(stocks, testStock(t))
		}
		return map[string]interface{}{
			"stocks": domain.StockConnection{Stocks: stocks, TotalCount: len(stocks)},
		}, nil
	case domain.GetStockQuery:
		ticker, _ := vars["ticker"].(string)
		for _, t := range b.tickers {
			if t == ticker {
				return map[string]interface{}{"stock": testStock(t)}, nil
			}
		}
		return map[string]interface{}{"stock": nil}, nil
	case domain.GetRecommendationsQuery:
		recs := []domain.Recommendation{}
		for i, t := range b.tickers {
			recs = append(recs, domain.Recommendation{Stock: testStock(t), Score: float64(10 - i)})
		}
		return map[string]interface{}{"recommendations": recs}, nil
	case domain.SyncStocksMutation:
		return map[string]interface{}{"syncStocks": b.sync}, nil
	}
	return nil, fmt.Errorf("unexpected document")
}

func testStock(ticker string) domain.Stock {
	target := 100.0
	return domain.Stock{
		ID:          "id-" + ticker,
		Ticker:      ticker,
		CompanyName: ticker + " Corp",
		RatingTo:    "Buy",
		TargetTo:    &target,
	}
}

type fixture struct {
	backend   *backend
	transport *mocks.FakeTransport
	cache     *mocks.DummyCache
	orch      *Orchestrator
	svc       *StockService
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	b := newBackend("AAPL", "MSFT", "GOOG")
	transport := mocks.NewFakeTransport(b.respond)
	cache := mocks.NewDummyCache()
	orch := NewOrchestrator(cache, transport, zap.NewNop(), opts...)
	return &fixture{
		backend:   b,
		transport: transport,
		cache:     cache,
		orch:      orch,
		svc:       NewStockService(orch, zap.NewNop()),
	}
}

func listKey(t *testing.T, filter domain.StockFilter, sort domain.StockSort, limit, offset int) string {
	t.Helper()
	key, err := domain.ListCacheKey(domain.NewListParams(filter, sort, limit, offset))
	if err != nil {
		t.Fatalf("list key: %v", err)
	}
	return key
}
