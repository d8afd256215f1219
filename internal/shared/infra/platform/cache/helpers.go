package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SetOrWarn guarda en caché de forma síncrona. Un fallo de la caché nunca
// hace fallar la operación que la usa: solo se registra.
func SetOrWarn(ctx context.Context, cache Cache, key string, value interface{}, ttl time.Duration, log *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Set(ctx, key, value, ttl); err != nil {
		log.Warn("Cache update failed",
			zap.String("key", key),
			zap.Error(err))
	}
}
