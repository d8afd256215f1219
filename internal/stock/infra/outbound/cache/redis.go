package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	sharedCache "github.com/davicafu/stockratings/internal/shared/infra/platform/cache"
	"github.com/davicafu/stockratings/internal/shared/infra/utils"
)

// RedisCache guarda las entradas en Redis bajo un espacio de nombres propio
// de la sesión (<prefix>:<uuid>:), así nada sobrevive a un reinicio y Clear
// no toca claves de otras sesiones. La expiración la aplica Redis.
type RedisCache struct {
	client    redis.UniversalClient
	namespace string
}

var _ sharedCache.Cache = (*RedisCache)(nil)

func NewRedisCache(client redis.UniversalClient, prefix string) *RedisCache {
	return &RedisCache{
		client:    client,
		namespace: prefix + ":" + uuid.NewString() + ":",
	}
}

// Namespace devuelve el prefijo de las claves de esta sesión.
func (c *RedisCache) Namespace() string {
	return c.namespace
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, c.namespace+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := utils.JSON.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := utils.JSON.Marshal(val)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.namespace+key, data, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.namespace+key).Err()
}

// Clear borra todas las claves de la sesión recorriéndolas con SCAN.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.namespace+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.client.Del(ctx, batch...).Err()
	}
	return nil
}
