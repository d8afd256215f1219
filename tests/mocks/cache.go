package mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	sharedCache "github.com/davicafu/stockratings/internal/shared/infra/platform/cache"
	"github.com/davicafu/stockratings/internal/shared/infra/utils"
)

// DummyCache es un mock de caché en memoria, genérico y seguro para concurrencia.
// Ignora el TTL: para probar la expiración usar la caché real con un reloj falso.
type DummyCache struct {
	store map[string][]byte // ✅ Almacenamos bytes (JSON), no un tipo concreto.
	mu    sync.RWMutex

	Clears int
}

// Verificación estática para asegurar que implementa la interfaz compartida.
var _ sharedCache.Cache = (*DummyCache)(nil)

func NewDummyCache() *DummyCache {
	return &DummyCache{
		store: make(map[string][]byte),
	}
}

func (c *DummyCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, ok := c.store[key]
	if !ok {
		return false, nil // Cache miss
	}
	if err := utils.JSON.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil // Cache hit
}

func (c *DummyCache) Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := utils.JSON.Marshal(val)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = data
	return nil
}

func (c *DummyCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *DummyCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string][]byte)
	c.Clears++
	return nil
}

func (c *DummyCache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.store[key]
	return ok
}

func (c *DummyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// BrokenCache falla en todas las operaciones (Redis caído).
type BrokenCache struct{}

var _ sharedCache.Cache = BrokenCache{}

var ErrCacheDown = errors.New("cache down")

func (BrokenCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, ErrCacheDown
}

func (BrokenCache) Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	return ErrCacheDown
}

func (BrokenCache) Delete(ctx context.Context, key string) error { return ErrCacheDown }

func (BrokenCache) Clear(ctx context.Context) error { return ErrCacheDown }
