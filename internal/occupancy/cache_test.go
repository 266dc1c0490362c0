package occupancy

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource wraps a Source and counts calls that reach it.
type countingSource struct {
	inner Source
	calls int
}

func (c *countingSource) Remaining(ctx context.Context, lotID, floor, zone string, tr TimeRange) (int, error) {
	c.calls++
	return c.inner.Remaining(ctx, lotID, floor, zone, tr)
}

func newTestCache(t *testing.T, inner Source, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCache(inner, client, ttl), mr
}

func TestCache_ReadThrough(t *testing.T) {
	counting := &countingSource{inner: NewSynthetic(42, flatCapacity(20))}
	cache, _ := newTestCache(t, counting, time.Minute)

	at := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	tr := TimeRange{Start: at}

	first, err := cache.Remaining(context.Background(), "lot1", "F1", "Zone A", tr)
	require.NoError(t, err)
	assert.Equal(t, 1, counting.calls)

	second, err := cache.Remaining(context.Background(), "lot1", "F1", "Zone A", tr)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, counting.calls, "second lookup should hit the cache")

	// A different scope misses.
	_, err = cache.Remaining(context.Background(), "lot1", "F2", "Zone A", tr)
	require.NoError(t, err)
	assert.Equal(t, 2, counting.calls)
}

func TestCache_ExpiryFallsThrough(t *testing.T) {
	counting := &countingSource{inner: NewSynthetic(42, flatCapacity(20))}
	cache, mr := newTestCache(t, counting, time.Second)

	tr := TimeRange{Start: time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)}
	_, err := cache.Remaining(context.Background(), "lot1", "", "", tr)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = cache.Remaining(context.Background(), "lot1", "", "", tr)
	require.NoError(t, err)
	assert.Equal(t, 2, counting.calls)
}

func TestCache_RedisDownIsJustAMiss(t *testing.T) {
	counting := &countingSource{inner: NewSynthetic(42, flatCapacity(20))}
	cache, mr := newTestCache(t, counting, time.Minute)
	mr.Close()

	tr := TimeRange{Start: time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)}
	n, err := cache.Remaining(context.Background(), "lot1", "", "", tr)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 0)
	assert.Equal(t, 1, counting.calls)
}

func TestCache_DisabledWithoutClient(t *testing.T) {
	counting := &countingSource{inner: NewSynthetic(42, flatCapacity(20))}
	cache := NewCache(counting, nil, time.Minute)

	tr := TimeRange{Start: time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)}
	for i := 0; i < 3; i++ {
		_, err := cache.Remaining(context.Background(), "lot1", "", "", tr)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, counting.calls)
}
