package cache

import (
	"context"
	"sync"
	"time"

	sharedCache "github.com/davicafu/stockratings/internal/shared/infra/platform/cache"
	"github.com/davicafu/stockratings/internal/shared/infra/utils"
)

// cacheItem guarda el valor serializado, cuándo se creó y su TTL.
type cacheItem struct {
	value     []byte // Guardamos los bytes para que nadie comparta estado mutable con la caché.
	createdAt time.Time
	ttl       time.Duration
}

func (i cacheItem) expired(now time.Time) bool {
	return now.Sub(i.createdAt) > i.ttl
}

// InMemoryCache implementa la caché con un mapa en memoria.
// Las entradas caducadas se eliminan al leerlas; no hay límite de capacidad.
type InMemoryCache struct {
	store map[string]cacheItem
	mu    sync.RWMutex
	now   func() time.Time
}

// Verificación estática: asegura en tiempo de compilación que InMemoryCache implementa la interfaz compartida.
var _ sharedCache.Cache = (*InMemoryCache)(nil)

type InMemoryOption func(*InMemoryCache)

// WithClock sustituye el reloj (tests).
func WithClock(now func() time.Time) InMemoryOption {
	return func(c *InMemoryCache) { c.now = now }
}

func NewInMemoryCache(opts ...InMemoryOption) *InMemoryCache {
	c := &InMemoryCache{
		store: make(map[string]cacheItem),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get recupera un valor de la caché. Es seguro para uso concurrente.
func (c *InMemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	item, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if item.expired(c.now()) {
		c.mu.Lock()
		// Solo se borra si nadie la ha reemplazado mientras tanto.
		if current, ok := c.store[key]; ok && current.createdAt.Equal(item.createdAt) {
			delete(c.store, key)
		}
		c.mu.Unlock()
		return false, nil
	}

	if err := utils.JSON.Unmarshal(item.value, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set guarda un valor en la caché. Es seguro para uso concurrente.
func (c *InMemoryCache) Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := utils.JSON.Marshal(val)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = cacheItem{
		value:     data,
		createdAt: c.now(),
		ttl:       ttl,
	}
	return nil
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *InMemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]cacheItem)
	return nil
}

// Len devuelve el número de entradas almacenadas, caducadas incluidas.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
