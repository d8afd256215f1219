package inflight

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Call es el handle de una operación en vuelo. Se resuelve una sola vez y
// todos los que esperan observan el mismo valor y el mismo error.
type Call struct {
	done      chan struct{}
	val       interface{}
	err       error
	startedAt time.Time
	waiters   atomic.Int32
	once      sync.Once
}

func NewCall() *Call {
	return &Call{done: make(chan struct{}), startedAt: time.Now()}
}

// Done se cierra cuando la llamada termina (éxito o error).
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// StartedAt devuelve el instante en que se registró la llamada.
func (c *Call) StartedAt() time.Time {
	return c.startedAt
}

// Waiters es el número de llamadores que se unieron a esta llamada sin lanzarla.
func (c *Call) Waiters() int {
	return int(c.waiters.Load())
}

// Wait bloquea hasta que la llamada termine o hasta que se cancele ctx.
// Cancelar ctx solo abandona la espera, la llamada sigue su curso.
func (c *Call) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve fija el resultado. Solo la primera resolución cuenta.
func (c *Call) resolve(val interface{}, err error) bool {
	settled := false
	c.once.Do(func() {
		c.val = val
		c.err = err
		close(c.done)
		settled = true
	})
	return settled
}

// Settled indica si la llamada ya terminó.
func (c *Call) Settled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Registry mapea key -> llamada en vuelo. Como máximo hay una llamada por key.
type Registry struct {
	mu    sync.Mutex
	calls map[string]*Call
}

func NewRegistry() *Registry {
	return &Registry{calls: make(map[string]*Call)}
}

func (r *Registry) Has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.calls[key]
	return ok
}

func (r *Registry) Get(key string) (*Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[key]
	return c, ok
}

// Set registra la llamada para la key, reemplazando la anterior si existía.
// Para coalescer peticiones usar Join, que es atómico.
func (r *Registry) Set(key string, call *Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[key] = call
}

func (r *Registry) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.calls, key)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Join devuelve la llamada en vuelo para la key o crea una nueva.
// leader es true solo para quien la creó: ese llamador debe ejecutar la
// operación y terminarla con Finish.
func (r *Registry) Join(key string) (call *Call, leader bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.calls[key]; ok {
		existing.waiters.Add(1)
		return existing, false
	}
	call = NewCall()
	r.calls[key] = call
	return call, true
}

// Finish elimina la entrada (si sigue siendo la misma llamada) y libera a
// todos los que esperan. La entrada se borra antes de liberar, de modo que
// una petición posterior nunca se une a una llamada ya resuelta.
// Llamarlo más de una vez es seguro: devuelve false si la llamada ya estaba resuelta.
func (r *Registry) Finish(key string, call *Call, val interface{}, err error) bool {
	if call == nil {
		return false
	}
	r.mu.Lock()
	if current, ok := r.calls[key]; ok && current == call {
		delete(r.calls, key)
	}
	r.mu.Unlock()
	return call.resolve(val, err)
}
