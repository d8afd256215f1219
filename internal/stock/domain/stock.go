package domain

// Stock es una calificación de un bróker sobre una acción, tal y como la
// devuelve el backend GraphQL.
type Stock struct {
	ID          string   `json:"id"`
	Ticker      string   `json:"ticker"`
	CompanyName string   `json:"companyName"`
	Brokerage   string   `json:"brokerage,omitempty"`
	Action      string   `json:"action,omitempty"`
	RatingFrom  string   `json:"ratingFrom,omitempty"`
	RatingTo    string   `json:"ratingTo,omitempty"`
	TargetFrom  *float64 `json:"targetFrom,omitempty"`
	TargetTo    *float64 `json:"targetTo,omitempty"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

type PageInfo struct {
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// StockConnection es una página de resultados.
type StockConnection struct {
	Stocks     []Stock  `json:"stocks"`
	TotalCount int      `json:"totalCount"`
	PageInfo   PageInfo `json:"pageInfo"`
}

type Recommendation struct {
	Stock       Stock   `json:"stock"`
	Score       float64 `json:"score"`
	PriceChange float64 `json:"priceChange"`
	RatingScore float64 `json:"ratingScore"`
	ActionScore float64 `json:"actionScore"`
}

// SyncResult es la respuesta de la mutación syncStocks.
type SyncResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	StocksSynced int    `json:"stocksSynced"`
}
