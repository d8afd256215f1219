package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/davicafu/stockratings/internal/stock/domain"
)

// StockService es la interfaz que ve un consumidor (una vista, un handler).
// Cada consumidor tiene su propio estado de carga y su último error; la caché
// y las peticiones en vuelo se comparten a través del Orchestrator.
type StockService struct {
	orch *Orchestrator
	log  *zap.Logger

	active  atomic.Int32
	mu      sync.RWMutex
	lastErr string
}

// NewStockService constructor
func NewStockService(orch *Orchestrator, log *zap.Logger) *StockService {
	return &StockService{orch: orch, log: log}
}

// Loading indica si este consumidor está esperando a la red.
func (s *StockService) Loading() bool {
	return s.active.Load() > 0
}

// LastError devuelve el mensaje del último fallo ("" si no hubo).
func (s *StockService) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *StockService) track() func() {
	s.active.Add(1)
	s.setLastError("")
	return func() { s.active.Add(-1) }
}

func (s *StockService) setLastError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

// fail guarda el mensaje legible del error y lo devuelve sin cambios.
func (s *StockService) fail(err error) error {
	var qe *domain.QueryError
	if errors.As(err, &qe) {
		s.setLastError(qe.Message())
	} else {
		s.setLastError(err.Error())
	}
	return err
}

// FetchStocks devuelve una página de stocks. limit <= 0 usa 50.
func (s *StockService) FetchStocks(ctx context.Context, filter domain.StockFilter, sort domain.StockSort, limit, offset int) (*domain.StockConnection, error) {
	if limit <= 0 {
		limit = domain.DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	params := domain.NewListParams(filter, sort, limit, offset)
	key, err := domain.ListCacheKey(params)
	if err != nil {
		return nil, s.fail(&domain.QueryError{Kind: domain.KindStocks, Err: fmt.Errorf("%w: %v", domain.ErrInvalidQuery, err)})
	}

	conn, err := execute(ctx, s.orch, readQuery[*domain.StockConnection]{
		kind: domain.KindStocks,
		key:  key,
		fetch: func(ctx context.Context) (*domain.StockConnection, error) {
			var resp struct {
				Stocks *domain.StockConnection `json:"stocks"`
			}
			if err := s.orch.transport.Query(ctx, domain.GetStocksQuery, params.Variables(), &resp); err != nil {
				return nil, err
			}
			if resp.Stocks == nil {
				return &domain.StockConnection{Stocks: []domain.Stock{}}, nil
			}
			return resp.Stocks, nil
		},
	}, s.track)
	if err != nil {
		return nil, s.fail(err)
	}
	return conn, nil
}

// FetchStock devuelve el stock del ticker o (nil, nil) si no existe.
// Un stock ausente no se guarda en caché.
func (s *StockService) FetchStock(ctx context.Context, ticker string) (*domain.Stock, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return nil, s.fail(&domain.QueryError{Kind: domain.KindStock, Err: fmt.Errorf("%w: empty ticker", domain.ErrInvalidQuery)})
	}

	key, err := domain.StockCacheKey(ticker)
	if err != nil {
		return nil, s.fail(&domain.QueryError{Kind: domain.KindStock, Err: fmt.Errorf("%w: %v", domain.ErrInvalidQuery, err)})
	}

	stock, err := execute(ctx, s.orch, readQuery[*domain.Stock]{
		kind: domain.KindStock,
		key:  key,
		fetch: func(ctx context.Context) (*domain.Stock, error) {
			var resp struct {
				Stock *domain.Stock `json:"stock"`
			}
			vars := map[string]interface{}{"ticker": ticker}
			if err := s.orch.transport.Query(ctx, domain.GetStockQuery, vars, &resp); err != nil {
				return nil, err
			}
			return resp.Stock, nil
		},
		cacheable: func(st *domain.Stock) bool { return st != nil },
	}, s.track)
	if err != nil {
		return nil, s.fail(err)
	}
	return stock, nil
}

// FetchRecommendations devuelve las mejores recomendaciones. limit <= 0 usa 10.
func (s *StockService) FetchRecommendations(ctx context.Context, limit int) ([]domain.Recommendation, error) {
	if limit <= 0 {
		limit = domain.DefaultRecommendationLimit
	}

	key, err := domain.RecommendationsCacheKey(limit)
	if err != nil {
		return nil, s.fail(&domain.QueryError{Kind: domain.KindRecommendations, Err: fmt.Errorf("%w: %v", domain.ErrInvalidQuery, err)})
	}

	recs, err := execute(ctx, s.orch, readQuery[[]domain.Recommendation]{
		kind: domain.KindRecommendations,
		key:  key,
		fetch: func(ctx context.Context) ([]domain.Recommendation, error) {
			var resp struct {
				Recommendations []domain.Recommendation `json:"recommendations"`
			}
			vars := map[string]interface{}{"limit": limit}
			if err := s.orch.transport.Query(ctx, domain.GetRecommendationsQuery, vars, &resp); err != nil {
				return nil, err
			}
			if resp.Recommendations == nil {
				return []domain.Recommendation{}, nil
			}
			return resp.Recommendations, nil
		},
	}, s.track)
	if err != nil {
		return nil, s.fail(err)
	}
	return recs, nil
}

// SyncStocks lanza la sincronización en el backend y vacía la caché.
func (s *StockService) SyncStocks(ctx context.Context) (*domain.SyncResult, error) {
	done := s.track()
	defer done()

	result, err := s.orch.sync(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	return result, nil
}

// ClearCache vacía la caché compartida.
func (s *StockService) ClearCache(ctx context.Context) error {
	return s.orch.ClearCache(ctx)
}

// Overview es lo que muestra la página de inicio.
type Overview struct {
	Stocks          *domain.StockConnection `json:"stocks"`
	Recommendations []domain.Recommendation `json:"recommendations"`
}

// LoadOverview carga la primera página de stocks y las recomendaciones en paralelo.
func (s *StockService) LoadOverview(ctx context.Context, pageSize, recLimit int) (*Overview, error) {
	g, gctx := errgroup.WithContext(ctx)
	var ov Overview

	g.Go(func() error {
		conn, err := s.FetchStocks(gctx, domain.StockFilter{}, defaultSort(), pageSize, 0)
		ov.Stocks = conn
		return err
	})
	g.Go(func() error {
		recs, err := s.FetchRecommendations(gctx, recLimit)
		ov.Recommendations = recs
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.Warn("Overview load failed", zap.Error(err))
		return nil, err
	}
	return &ov, nil
}

func defaultSort() domain.StockSort {
	return domain.StockSort{Field: domain.SortByTicker, Direction: domain.SortAsc}
}
