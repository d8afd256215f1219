package domain

// Tipos de evento de integración del contexto stock.
const (
	StocksSynced = "stocks.synced"
)

const StockTopic = "stock"
