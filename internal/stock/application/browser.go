package application

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/davicafu/stockratings/internal/stock/domain"
)

// StockBrowser mantiene el estado de una vista de listado: filtro, orden y
// paginación. Un fallo al cargar deja la lista vacía en vez de romper la vista.
type StockBrowser struct {
	svc *StockService
	log *zap.Logger

	mu          sync.RWMutex
	stocks      []domain.Stock
	current     *domain.Stock
	totalCount  int
	currentPage int
	pageSize    int
	filter      domain.StockFilter
	sort        domain.StockSort
}

// BrowserState es una foto del estado de la vista.
type BrowserState struct {
	Stocks      []domain.Stock     `json:"stocks"`
	Current     *domain.Stock      `json:"current,omitempty"`
	TotalCount  int                `json:"totalCount"`
	CurrentPage int                `json:"currentPage"`
	TotalPages  int                `json:"totalPages"`
	PageSize    int                `json:"pageSize"`
	Filter      domain.StockFilter `json:"filter"`
	Sort        domain.StockSort   `json:"sort"`
	Loading     bool               `json:"loading"`
	Error       string             `json:"error,omitempty"`
}

func NewStockBrowser(svc *StockService, log *zap.Logger) *StockBrowser {
	return &StockBrowser{
		svc:         svc,
		log:         log,
		stocks:      []domain.Stock{},
		currentPage: 1,
		pageSize:    domain.DefaultPageSize,
		sort:        defaultSort(),
	}
}

// LoadStocks carga la página indicada. filter y sort nil conservan los actuales.
// El error se devuelve, pero el estado queda degradado a una lista vacía.
func (b *StockBrowser) LoadStocks(ctx context.Context, filter *domain.StockFilter, sort *domain.StockSort, page int) error {
	if page < 1 {
		page = 1
	}

	b.mu.Lock()
	if filter != nil {
		b.filter = *filter
	}
	if sort != nil {
		b.sort = *sort
	}
	b.currentPage = page
	f, s, size := b.filter, b.sort, b.pageSize
	b.mu.Unlock()

	offset := (page - 1) * size
	conn, err := b.svc.FetchStocks(ctx, f, s, size, offset)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.log.Warn("Error loading stocks", zap.Int("page", page), zap.Error(err))
		b.stocks = []domain.Stock{}
		b.totalCount = 0
		return err
	}
	b.stocks = conn.Stocks
	b.totalCount = conn.TotalCount
	return nil
}

// LoadStock carga el detalle de un stock. Devuelve nil si no existe o si falla.
func (b *StockBrowser) LoadStock(ctx context.Context, ticker string) *domain.Stock {
	stock, err := b.svc.FetchStock(ctx, ticker)
	if err != nil {
		b.log.Warn("Error loading stock", zap.String("ticker", ticker), zap.Error(err))
		stock = nil
	}

	b.mu.Lock()
	b.current = stock
	b.mu.Unlock()
	return stock
}

// SearchStocks busca por ticker si la consulta parece uno (corta y en
// mayúsculas) y por nombre de empresa en otro caso. Vuelve a la página 1.
func (b *StockBrowser) SearchStocks(ctx context.Context, query string) error {
	b.mu.RLock()
	f := b.filter
	b.mu.RUnlock()

	if isLikelyTicker(query) {
		f.Ticker = query
	} else {
		f.CompanyName = query
	}
	return b.LoadStocks(ctx, &f, nil, 1)
}

func isLikelyTicker(query string) bool {
	return len(query) <= 10 && query == strings.ToUpper(query)
}

func (b *StockBrowser) SetFilter(ctx context.Context, filter domain.StockFilter) error {
	return b.LoadStocks(ctx, &filter, nil, 1)
}

func (b *StockBrowser) SetSort(ctx context.Context, sort domain.StockSort) error {
	return b.LoadStocks(ctx, nil, &sort, 1)
}

func (b *StockBrowser) GoToPage(ctx context.Context, page int) error {
	return b.LoadStocks(ctx, nil, nil, page)
}

// TotalPages es ceil(totalCount / pageSize).
func (b *StockBrowser) TotalPages() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return totalPages(b.totalCount, b.pageSize)
}

func totalPages(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

func (b *StockBrowser) Snapshot() BrowserState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stocks := make([]domain.Stock, len(b.stocks))
	copy(stocks, b.stocks)
	return BrowserState{
		Stocks:      stocks,
		Current:     b.current,
		TotalCount:  b.totalCount,
		CurrentPage: b.currentPage,
		TotalPages:  totalPages(b.totalCount, b.pageSize),
		PageSize:    b.pageSize,
		Filter:      b.filter,
		Sort:        b.sort,
		Loading:     b.svc.Loading(),
		Error:       b.svc.LastError(),
	}
}

// RecommendationsView mantiene la lista de recomendaciones de una vista.
type RecommendationsView struct {
	svc *StockService

	mu              sync.RWMutex
	recommendations []domain.Recommendation
	limit           int
}

func NewRecommendationsView(svc *StockService) *RecommendationsView {
	return &RecommendationsView{
		svc:             svc,
		recommendations: []domain.Recommendation{},
		limit:           domain.DefaultRecommendationLimit,
	}
}

// LoadRecommendations recarga la lista. limit 0 conserva el límite actual.
// A diferencia del listado, los errores se propagan sin degradar el estado.
func (v *RecommendationsView) LoadRecommendations(ctx context.Context, limit int) error {
	v.mu.Lock()
	if limit > 0 {
		v.limit = limit
	}
	l := v.limit
	v.mu.Unlock()

	recs, err := v.svc.FetchRecommendations(ctx, l)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.recommendations = recs
	v.mu.Unlock()
	return nil
}

func (v *RecommendationsView) Recommendations() []domain.Recommendation {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]domain.Recommendation, len(v.recommendations))
	copy(out, v.recommendations)
	return out
}

func (v *RecommendationsView) Limit() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.limit
}
