package marker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront-bridge/internal/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStoreWithClient(client, "test:"), mr
}

func exerciseStore(t *testing.T, store ports.MarkerStore) {
	ctx := context.Background()

	ok, err := store.Acquire(ctx, "push:shop:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Acquire(ctx, "push:shop:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must be refused while held")

	held, err := store.Held(ctx, "push:shop:1")
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, store.Release(ctx, "push:shop:1"))

	held, err = store.Held(ctx, "push:shop:1")
	require.NoError(t, err)
	assert.False(t, held)

	ok, err = store.Acquire(ctx, "push:shop:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore(t *testing.T) {
	store, mr := newRedisStore(t)
	exerciseStore(t, store)

	assert.True(t, mr.Exists("test:push:shop:1"))
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	ok, err := store.Acquire(ctx, "order:shop:7", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err = store.Acquire(ctx, "order:shop:7", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired marker must be acquirable again")
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	store, err := NewRedisStore(context.Background(), &redis.Options{Addr: addr, MaxRetries: -1})
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := store.Acquire(ctx, "k", time.Second)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	held, _ := store.Held(ctx, "k")
	assert.False(t, held)

	ok, _ = store.Acquire(ctx, "k", time.Second)
	assert.True(t, ok)
}

func TestMemoryStoreSingleWinner(t *testing.T) {
	store := NewMemoryStore()
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.Acquire(context.Background(), "same", time.Minute); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestMemoryStoreEvictsExpiredMarkers(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for _, key := range []string{"push:shop:1", "push:shop:2", "order:shop:3"} {
		ok, err := store.Acquire(ctx, key, time.Second)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Len(t, store.markers, 3)

	now = now.Add(sweepInterval)
	ok, err := store.Acquire(ctx, "order:shop:4", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Len(t, store.markers, 1)
	assert.Contains(t, store.markers, "order:shop:4")
}
