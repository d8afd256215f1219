package domain

import (
	"sort"
	"time"

	sharedCache "github.com/davicafu/stockratings/internal/shared/infra/platform/cache"
)

// ---------------- Filtros / orden ----------------

type StockFilter struct {
	Ticker      string   `json:"ticker,omitempty"`      // búsqueda exacta
	CompanyName string   `json:"companyName,omitempty"` // búsqueda parcial
	Ratings     []string `json:"ratings,omitempty"`
	Action      string   `json:"action,omitempty"`
}

func (f StockFilter) IsZero() bool {
	return f.Ticker == "" && f.CompanyName == "" && len(f.Ratings) == 0 && f.Action == ""
}

// Normalized devuelve una copia con los ratings ordenados: el filtro por
// ratings es un conjunto y su orden no cambia el resultado.
func (f StockFilter) Normalized() StockFilter {
	if len(f.Ratings) == 0 {
		f.Ratings = nil
		return f
	}
	ratings := make([]string, len(f.Ratings))
	copy(ratings, f.Ratings)
	sort.Strings(ratings)
	f.Ratings = ratings
	return f
}

type SortField string

const (
	SortByTicker      SortField = "TICKER"
	SortByCompanyName SortField = "COMPANY_NAME"
	SortByRatingTo    SortField = "RATING_TO"
	SortByTargetTo    SortField = "TARGET_TO"
	SortByCreatedAt   SortField = "CREATED_AT"
)

func (f SortField) IsValid() bool {
	switch f {
	case SortByTicker, SortByCompanyName, SortByRatingTo, SortByTargetTo, SortByCreatedAt:
		return true
	}
	return false
}

type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

type StockSort struct {
	Field     SortField     `json:"field,omitempty"`
	Direction SortDirection `json:"direction,omitempty"`
}

func (s StockSort) IsZero() bool {
	return s.Field == "" && s.Direction == ""
}

// ---------------- Tipos de consulta y TTL ----------------

type QueryKind string

const (
	KindStocks          QueryKind = "stocks"
	KindStock           QueryKind = "stock"
	KindRecommendations QueryKind = "recommendations"
	KindSync            QueryKind = "sync"
)

const (
	DefaultPageSize            = 50
	DefaultRecommendationLimit = 10
)

// TTLPolicy asigna un TTL a cada tipo de consulta. Las recomendaciones son
// más caras de calcular y cambian menos, por eso viven más.
type TTLPolicy struct {
	List            time.Duration
	Detail          time.Duration
	Recommendations time.Duration
}

func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		List:            time.Minute,
		Detail:          time.Minute,
		Recommendations: 5 * time.Minute,
	}
}

func (p TTLPolicy) For(kind QueryKind) time.Duration {
	switch kind {
	case KindStocks:
		return p.List
	case KindStock:
		return p.Detail
	case KindRecommendations:
		return p.Recommendations
	}
	return 0
}

// ---------------- Cache keys ----------------

// ListParams son las variables de la consulta stocks. Un filtro o un orden
// vacíos se envían como ausentes.
type ListParams struct {
	Filter *StockFilter `json:"filter,omitempty"`
	Sort   *StockSort   `json:"sort,omitempty"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

func NewListParams(filter StockFilter, sort StockSort, limit, offset int) ListParams {
	p := ListParams{Limit: limit, Offset: offset}
	if !filter.IsZero() {
		f := filter.Normalized()
		p.Filter = &f
	}
	if !sort.IsZero() {
		s := sort
		p.Sort = &s
	}
	return p
}

// Variables convierte los parámetros en variables GraphQL.
func (p ListParams) Variables() map[string]interface{} {
	vars := map[string]interface{}{
		"limit":  p.Limit,
		"offset": p.Offset,
	}
	if p.Filter != nil {
		vars["filter"] = p.Filter
	}
	if p.Sort != nil {
		vars["sort"] = p.Sort
	}
	return vars
}

func ListCacheKey(p ListParams) (string, error) {
	return sharedCache.BuildKey(string(KindStocks), p)
}

func StockCacheKey(ticker string) (string, error) {
	return sharedCache.BuildKey(string(KindStock), map[string]string{"ticker": ticker})
}

func RecommendationsCacheKey(limit int) (string, error) {
	return sharedCache.BuildKey(string(KindRecommendations), map[string]int{"limit": limit})
}
