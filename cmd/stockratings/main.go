package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	config "github.com/davicafu/stockratings/internal/config"
	infraEvents "github.com/davicafu/stockratings/internal/shared/infra/events"
	sharedBus "github.com/davicafu/stockratings/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/stockratings/internal/shared/infra/platform/cache"
	"github.com/davicafu/stockratings/internal/shared/infra/platform/metrics"
	"github.com/davicafu/stockratings/internal/shared/infra/utils"
	stockApp "github.com/davicafu/stockratings/internal/stock/application"
	stockDomain "github.com/davicafu/stockratings/internal/stock/domain"
	stockEvents "github.com/davicafu/stockratings/internal/stock/infra/inbound/events"
	stockHttp "github.com/davicafu/stockratings/internal/stock/infra/inbound/http"
	stockCache "github.com/davicafu/stockratings/internal/stock/infra/outbound/cache"
	stockGraphQL "github.com/davicafu/stockratings/internal/stock/infra/outbound/graphql"
	"github.com/davicafu/stockratings/pkg/logger"
)

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.LogLevel) // inicializa zap
	log := logger.Logger()    // obtiene logger estructurado
	defer log.Sync()          // flush buffers al salir

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		err := utils.Retry(ctx, 3, time.Second, func() error {
			return rdb.Ping(ctx).Err()
		})
		if err != nil {
			log.Warn("⚠️ Redis not available, using in-memory cache", zap.Error(err))
			_ = rdb.Close()
			cacheInstance = stockCache.NewInMemoryCache()
		} else {
			defer rdb.Close()
			redisCache := stockCache.NewRedisCache(rdb, cfg.CachePrefix)
			cacheInstance = redisCache
			log.Info("✅ Redis connected", zap.String("namespace", redisCache.Namespace()))
		}
	} else {
		cacheInstance = stockCache.NewInMemoryCache()
	}

	ttl := stockDomain.TTLPolicy{
		List:            cfg.ListTTL,
		Detail:          cfg.DetailTTL,
		Recommendations: cfg.RecommendationsTTL,
	}
	logger.Sugar().Infof("Cache TTLs: list=%s detail=%s recommendations=%s", ttl.List, ttl.Detail, ttl.Recommendations)

	// ---------------- Events ---------------
	instanceID := uuid.NewString()
	var eventPublisher sharedBus.EventBus
	var subscribe func(handler infraEvents.MessageHandler)

	if cfg.UseKafka {
		writer := &kafka.Writer{
			Addr:     kafka.TCP(cfg.KafkaBrokers...),
			Topic:    cfg.KafkaTopic,
			Balancer: &kafka.Hash{},
		}
		defer writer.Close()
		eventPublisher = infraEvents.NewKafkaPublisher(writer, log)

		subscribe = func(handler infraEvents.MessageHandler) {
			reader := kafka.NewReader(kafka.ReaderConfig{
				Brokers: cfg.KafkaBrokers,
				Topic:   cfg.KafkaTopic,
				// Un grupo por instancia: todas las instancias deben ver cada sincronización.
				GroupID:  cfg.KafkaGroupID + "-" + instanceID,
				MinBytes: 1,
				MaxBytes: 10e6, // 10MB
			})
			go func() {
				<-ctx.Done()
				_ = reader.Close()
			}()
			infraEvents.NewConsumerAdapter(reader, handler, log).Start(ctx)
		}
	} else {
		bus := infraEvents.NewInMemoryEventBus(stockDomain.StockTopic)
		eventPublisher = bus

		subscribe = func(handler infraEvents.MessageHandler) {
			log.Info("🎧 Starting in-memory listener", zap.String("topic", bus.Topic()))
			infraEvents.BackgroundConsumerChan(ctx, bus.Subscribe(10), handler, log)
		}
	}
	log.Info("🚀 Event bus ready", zap.String("bus", utils.Ternary(cfg.UseKafka, "kafka", "memory")))

	// --------------- Servicio --------------
	queryMetrics := metrics.NewQueryMetrics()
	transport := stockGraphQL.NewClient(cfg.GraphQLEndpoint, cfg.GraphQLTimeout, log)

	orchestrator := stockApp.NewOrchestrator(cacheInstance, transport, log,
		stockApp.WithTTLPolicy(ttl),
		stockApp.WithMetrics(queryMetrics),
		stockApp.WithEventBus(eventPublisher),
		stockApp.WithInstanceID(instanceID),
	)
	subscribe(stockEvents.NewSyncConsumer(orchestrator, log))

	// ---------------- HTTP ----------------
	router := gin.Default()
	stockHttp.RegisterStockRoutes(router, stockHttp.NewStockHandler(orchestrator, log))
	stockHttp.RegisterOpsRoutes(router, queryMetrics)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.GraphQLTimeout + 30*time.Second, // syncStocks puede tardar
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("🚀 Server running",
			zap.String("url", "http://localhost:"+cfg.HTTPPort),
			zap.String("graphql", cfg.GraphQLEndpoint),
			zap.String("instance", orchestrator.InstanceID()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}
