package events

import "github.com/google/uuid"

// StocksSynced se publica tras una sincronización correcta. Origin identifica
// la instancia que sincronizó, que ya ha vaciado su propia caché.
type StocksSynced struct {
	ID           uuid.UUID `json:"id"`
	Origin       string    `json:"origin"`
	StocksSynced int       `json:"stocksSynced"`
}

func (e StocksSynced) PartitionKey() string {
	return e.Origin
}
