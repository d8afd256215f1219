package events

import (
	"encoding/json"
	"time"
)

// Base de todos los eventos de integración
type IntegrationEvent struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"` // contenido específico del evento
}

// PartitionKey agrupa por tipo de evento: los eventos de un mismo tipo
// mantienen su orden relativo.
func (e IntegrationEvent) PartitionKey() string {
	return e.Type
}
