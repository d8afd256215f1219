package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/stockratings/internal/shared/events"
	sharedUtils "github.com/davicafu/stockratings/internal/shared/infra/utils"
	stockDomain "github.com/davicafu/stockratings/internal/stock/domain"
)

// CacheInvalidator es lo que el consumidor necesita del Orchestrator.
type CacheInvalidator interface {
	InstanceID() string
	ClearCache(ctx context.Context) error
}

// SyncConsumer vacía la caché local cuando otra instancia sincroniza los stocks.
type SyncConsumer struct {
	target CacheInvalidator
	log    *zap.Logger
}

func NewSyncConsumer(target CacheInvalidator, logger *zap.Logger) *SyncConsumer {
	return &SyncConsumer{
		target: target,
		log:    logger,
	}
}

func (c *SyncConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := sharedUtils.JSON.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case stockDomain.StocksSynced:
		sharedUtils.UnmarshalAndHandle[sharedEvents.StocksSynced](c.log, base.Data, func(evt sharedEvents.StocksSynced) {
			// La instancia que sincronizó ya vació su caché.
			if evt.Origin == c.target.InstanceID() {
				c.log.Debug("Ignoring own sync event", zap.String("event_id", evt.ID.String()))
				return
			}

			ctxClear, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
			defer cancel()

			if err := c.target.ClearCache(ctxClear); err != nil {
				c.log.Warn("Failed to clear cache on remote sync",
					zap.String("event_id", evt.ID.String()),
					zap.String("origin", evt.Origin),
					zap.Error(err),
				)
				return
			}
			c.log.Info("Cache invalidated by remote sync",
				zap.String("event_id", evt.ID.String()),
				zap.String("origin", evt.Origin),
				zap.Int("stocks_synced", evt.StocksSynced),
			)
		})

	default:
		c.log.Warn("Unknown event type", zap.String("type", base.Type))
	}
}
