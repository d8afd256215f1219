package events

import (
	"context"
	"sync"

	sharedBus "github.com/davicafu/stockratings/internal/shared/infra/platform/bus"
	"github.com/davicafu/stockratings/internal/shared/infra/utils"
)

// InMemoryEventBus implementa un bus de eventos para UN solo topic.
type InMemoryEventBus struct {
	subscribers []chan []byte
	mu          sync.RWMutex
	topic       string // Identificador del topic que maneja este bus
}

// Verifica en tiempo de compilación que cumple la interfaz
var _ sharedBus.EventBus = (*InMemoryEventBus)(nil)

// NewInMemoryEventBus crea un bus de eventos para un topic específico.
func NewInMemoryEventBus(topic string) *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make([]chan []byte, 0),
		topic:       topic,
	}
}

// Topic devuelve el topic que maneja este bus.
func (b *InMemoryEventBus) Topic() string {
	return b.topic
}

// Publish envía el evento serializado a todos los suscriptores de este bus.
// Si el buffer de un suscriptor está lleno, el evento se descarta para ese suscriptor.
func (b *InMemoryEventBus) Publish(ctx context.Context, event interface{}) error {
	payloadBytes, err := utils.JSON.Marshal(event)
	if err != nil {
		return err
	}

	b.mu.RLock()
	subs := make([]chan []byte, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	if len(subs) > 0 {
		go distribute(subs, payloadBytes)
	}
	return nil
}

func distribute(subs []chan []byte, payload []byte) {
	for _, subChan := range subs {
		select {
		case subChan <- payload:
		default:
		}
	}
}

// Subscribe suscribe un nuevo oyente a este bus.
func (b *InMemoryEventBus) Subscribe(bufferSize int) <-chan []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	subChan := make(chan []byte, bufferSize)
	b.subscribers = append(b.subscribers, subChan)
	return subChan
}
