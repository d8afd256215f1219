package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/stockratings/internal/shared/events"
	sharedBus "github.com/davicafu/stockratings/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/stockratings/internal/shared/infra/platform/cache"
	"github.com/davicafu/stockratings/internal/shared/infra/platform/inflight"
	"github.com/davicafu/stockratings/internal/shared/infra/platform/metrics"
	"github.com/davicafu/stockratings/internal/shared/infra/utils"
	"github.com/davicafu/stockratings/internal/stock/domain"
)

// Orchestrator es el contexto compartido de la capa de acceso a datos:
// caché, registro de peticiones en vuelo y transporte. Se construye una vez
// por sesión y se inyecta en cada StockService.
type Orchestrator struct {
	cache      sharedCache.Cache
	pending    *inflight.Registry
	transport  domain.Transport
	ttl        domain.TTLPolicy
	metrics    *metrics.QueryMetrics
	events     sharedBus.EventBus
	instanceID string
	log        *zap.Logger

	// gen cuenta los ClearCache; cacheMu ordena las escrituras frente a ellos.
	cacheMu sync.RWMutex
	gen     uint64
}

type Option func(*Orchestrator)

func WithTTLPolicy(p domain.TTLPolicy) Option {
	return func(o *Orchestrator) { o.ttl = p }
}

func WithMetrics(m *metrics.QueryMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithEventBus publica un evento stocks.synced tras cada sincronización.
func WithEventBus(bus sharedBus.EventBus) Option {
	return func(o *Orchestrator) { o.events = bus }
}

func WithInstanceID(id string) Option {
	return func(o *Orchestrator) { o.instanceID = id }
}

func NewOrchestrator(cache sharedCache.Cache, transport domain.Transport, log *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cache:      cache,
		pending:    inflight.NewRegistry(),
		transport:  transport,
		ttl:        domain.DefaultTTLPolicy(),
		instanceID: uuid.NewString(),
		log:        log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// InstanceID identifica a esta instancia en los eventos que publica.
func (o *Orchestrator) InstanceID() string {
	return o.instanceID
}

// Pending expone el registro de peticiones en vuelo.
func (o *Orchestrator) Pending() *inflight.Registry {
	return o.pending
}

// ClearCache vacía la caché completa. No hay invalidación selectiva.
// Las lecturas que estaban en vuelo no escriben su resultado después.
func (o *Orchestrator) ClearCache(ctx context.Context) error {
	o.metrics.Invalidation()

	o.cacheMu.Lock()
	o.gen++
	err := o.cache.Clear(ctx)
	o.cacheMu.Unlock()

	if err != nil {
		o.log.Error("Cache clear failed", zap.Error(err))
		return err
	}
	o.log.Info("🧹 Cache cleared")
	return nil
}

func (o *Orchestrator) generation() uint64 {
	o.cacheMu.RLock()
	defer o.cacheMu.RUnlock()
	return o.gen
}

// store guarda el resultado solo si no hubo un ClearCache desde que empezó la petición.
func (o *Orchestrator) store(ctx context.Context, gen uint64, key string, v interface{}, ttl time.Duration) {
	o.cacheMu.RLock()
	defer o.cacheMu.RUnlock()
	if o.gen != gen {
		o.log.Debug("Skipping stale cache write", zap.String("key", key))
		return
	}
	sharedCache.SetOrWarn(ctx, o.cache, key, v, ttl, o.log)
}

// readQuery describe una consulta de lectura cacheable.
type readQuery[T any] struct {
	kind  domain.QueryKind
	key   string
	fetch func(ctx context.Context) (T, error)
	// cacheable decide si un resultado correcto se guarda. nil => siempre.
	cacheable func(T) bool
}

// execute aplica el orden caché -> peticiones en vuelo -> red.
// onNetwork se invoca cuando el llamador va a esperar a la red (como líder o
// unido a otra llamada) y devuelve la función que marca el final.
//
// La petición de red no pertenece a ningún llamador: el líder la lanza en
// una goroutine con un contexto que no se cancela, y todos (líder incluido)
// esperan el resultado con su propio ctx. Cancelar un llamador solo lo saca
// a él de la espera.
func execute[T any](ctx context.Context, o *Orchestrator, q readQuery[T], onNetwork func() func()) (T, error) {
	var zero T
	kind := string(q.kind)

	// 1. Caché
	if v, ok := lookup[T](ctx, o, q.key); ok {
		o.metrics.CacheHit(kind)
		return v, nil
	}
	o.metrics.CacheMiss(kind)

	// 2. Petición en vuelo
	call, leader := o.pending.Join(q.key)
	if leader {
		// Otra llamada pudo terminar y poblar la caché entre el miss y el Join.
		if v, ok := lookup[T](ctx, o, q.key); ok {
			o.pending.Finish(q.key, call, v, nil)
			return v, nil
		}
		go run(context.WithoutCancel(ctx), o, q, call)
	} else {
		o.metrics.Coalesced(kind)
		o.log.Debug("Joining in-flight query", zap.String("key", q.key))
	}

	// 3. Red
	done := onNetwork()
	defer done()

	v, err := call.Wait(ctx)
	if err != nil {
		return zero, asQueryError(q.kind, err)
	}
	return v.(T), nil
}

// run ejecuta la petición de red de una llamada y la resuelve siempre, también
// si fetch entra en pánico. El timeout lo pone el transporte.
func run[T any](ctx context.Context, o *Orchestrator, q readQuery[T], call *inflight.Call) {
	var zero T
	kind := string(q.kind)

	defer func() {
		if r := recover(); r != nil {
			qe := &domain.QueryError{Kind: q.kind, Err: fmt.Errorf("%w: panic: %v", domain.ErrTransport, r)}
			o.metrics.QueryError(kind, qe.Category())
			o.log.Error("Query panicked", zap.String("kind", kind), zap.String("key", q.key), zap.Any("panic", r))
			o.pending.Finish(q.key, call, zero, qe)
		}
	}()

	gen := o.generation()
	o.metrics.NetworkCall(kind)
	start := time.Now()
	v, err := q.fetch(ctx)
	if err != nil {
		qe := asQueryError(q.kind, err)
		o.metrics.QueryError(kind, qe.Category())
		o.log.Warn("Query failed",
			zap.String("kind", kind),
			zap.String("key", q.key),
			zap.String("category", qe.Category()),
			zap.Error(err))
		o.pending.Finish(q.key, call, zero, qe)
		return
	}

	if q.cacheable == nil || q.cacheable(v) {
		o.store(ctx, gen, q.key, v, o.ttl.For(q.kind))
	}
	o.pending.Finish(q.key, call, v, nil)

	o.log.Debug("Query completed",
		zap.String("kind", kind),
		zap.String("key", q.key),
		zap.Duration("elapsed", time.Since(start)))
}

func lookup[T any](ctx context.Context, o *Orchestrator, key string) (T, bool) {
	var v T
	hit, err := o.cache.Get(ctx, key, &v)
	if err != nil {
		o.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return v, false
	}
	return v, hit
}

// sync ejecuta la mutación syncStocks sin pasar por caché ni registro y, si
// tiene éxito, invalida la caché completa.
func (o *Orchestrator) sync(ctx context.Context) (*domain.SyncResult, error) {
	kind := string(domain.KindSync)
	o.metrics.NetworkCall(kind)

	var resp struct {
		SyncStocks *domain.SyncResult `json:"syncStocks"`
	}
	if err := o.transport.Mutate(ctx, domain.SyncStocksMutation, nil, &resp); err != nil {
		qe := asQueryError(domain.KindSync, err)
		o.metrics.QueryError(kind, qe.Category())
		o.log.Warn("Sync failed", zap.String("category", qe.Category()), zap.Error(err))
		return nil, qe
	}

	// No se sabe qué entradas afectó la mutación: se vacía todo.
	_ = o.ClearCache(context.WithoutCancel(ctx))

	result := resp.SyncStocks
	if result == nil {
		result = &domain.SyncResult{Success: false, Message: "unknown error", StocksSynced: 0}
	}

	o.log.Info("✅ Stocks synced",
		zap.Bool("success", result.Success),
		zap.Int("stocks_synced", result.StocksSynced))
	o.publishSynced(ctx, result)
	return result, nil
}

func (o *Orchestrator) publishSynced(ctx context.Context, result *domain.SyncResult) {
	if o.events == nil {
		return
	}

	data, err := utils.JSON.Marshal(sharedEvents.StocksSynced{
		ID:           uuid.New(),
		Origin:       o.instanceID,
		StocksSynced: result.StocksSynced,
	})
	if err != nil {
		o.log.Error("Failed to encode sync event", zap.Error(err))
		return
	}

	evt := sharedEvents.IntegrationEvent{
		Type:      domain.StocksSynced,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	if err := o.events.Publish(context.WithoutCancel(ctx), evt); err != nil {
		o.log.Warn("⚠️ Failed to publish sync event", zap.Error(err))
	}
}

func asQueryError(kind domain.QueryKind, err error) *domain.QueryError {
	var qe *domain.QueryError
	if errors.As(err, &qe) {
		return qe
	}
	return &domain.QueryError{Kind: kind, Err: err}
}
