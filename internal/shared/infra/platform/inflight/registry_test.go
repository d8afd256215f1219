package inflight

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BasicOperations(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Has("k"))

	call := NewCall()
	r.Set("k", call)
	assert.True(t, r.Has("k"))

	got, ok := r.Get("k")
	require.True(t, ok)
	assert.Same(t, call, got)

	r.Delete("k")
	assert.False(t, r.Has("k"))
	_, ok = r.Get("k")
	assert.False(t, ok)
}

func TestRegistry_JoinSingleLeader(t *testing.T) {
	r := NewRegistry()

	const n = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		leaders int
		calls   = map[*Call]struct{}{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, leader := r.Join("stocks:{}")
			mu.Lock()
			defer mu.Unlock()
			calls[c] = struct{}{}
			if leader {
				leaders++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, leaders)
	assert.Len(t, calls, 1)
	c, _ := r.Get("stocks:{}")
	assert.Equal(t, n-1, c.Waiters())
}

func TestRegistry_FinishReleasesWaitersAndRemovesEntry(t *testing.T) {
	r := NewRegistry()
	call, leader := r.Join("k")
	require.True(t, leader)
	shared, leader := r.Join("k")
	require.False(t, leader)

	result := make(chan interface{}, 1)
	go func() {
		v, _ := shared.Wait(context.Background())
		result <- v
	}()

	r.Finish("k", call, "valor", nil)

	select {
	case v := <-result:
		assert.Equal(t, "valor", v)
	case <-time.After(time.Second):
		t.Fatal("el waiter no fue liberado")
	}
	assert.False(t, r.Has("k"))
}

func TestRegistry_FinishWithErrorStillCleansUp(t *testing.T) {
	r := NewRegistry()
	call, _ := r.Join("k")
	boom := errors.New("network down")

	r.Finish("k", call, nil, boom)

	v, err := call.Wait(context.Background())
	assert.Nil(t, v)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, r.Len())

	_, leader := r.Join("k")
	assert.True(t, leader, "tras un fallo la siguiente petición debe lanzar una nueva llamada")
}

func TestRegistry_FinishDoesNotRemoveNewerCall(t *testing.T) {
	r := NewRegistry()
	old := NewCall()
	newer := NewCall()
	r.Set("k", newer)

	r.Finish("k", old, nil, nil)

	got, ok := r.Get("k")
	require.True(t, ok)
	assert.Same(t, newer, got)
}

func TestCall_WaitHonoursContext(t *testing.T) {
	call := NewCall()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := call.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRegistry_FinishTwiceKeepsFirstResult(t *testing.T) {
	r := NewRegistry()
	call, _ := r.Join("k")
	assert.False(t, call.Settled())

	assert.True(t, r.Finish("k", call, "primero", nil))
	assert.NotPanics(t, func() {
		assert.False(t, r.Finish("k", call, nil, errors.New("tarde")))
	})

	v, err := call.Wait(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "primero", v)
	assert.True(t, call.Settled())
}
