package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string    `json:"name"`
	Path  []float64 `json:"path"`
	Count int       `json:"count"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	in := entry{Name: "gold", Path: []float64{1, 2, 3}, Count: 3}
	require.NoError(t, mc.Set(ctx, "k", in, time.Minute))

	in.Path[0] = 99
	var out entry
	require.NoError(t, mc.Get(ctx, "k", &out))
	assert.Equal(t, []float64{1, 2, 3}, out.Path, "stored value is a copy")

	require.NoError(t, mc.Delete(ctx, "k"))
	assert.True(t, errors.Is(mc.Get(ctx, "k", &out), ErrCacheMiss))
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", 1, time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	var v int
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", 1, time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", 2, time.Minute))
	time.Sleep(time.Millisecond)

	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "c", 3, time.Minute))

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &v))
}

func TestLayeredCacheBackfillsL1(t *testing.T) {
	ctx := context.Background()
	l2 := NewMemoryCache()
	lc := NewLayeredCache(l2)
	defer lc.Close()

	require.NoError(t, l2.Set(ctx, "k", entry{Name: "btc"}, time.Minute))

	var out entry
	require.NoError(t, lc.Get(ctx, "k", &out))
	assert.Equal(t, "btc", out.Name)

	require.NoError(t, l2.Delete(ctx, "k"))
	out = entry{}
	require.NoError(t, lc.Get(ctx, "k", &out), "served from L1")
	assert.Equal(t, "btc", out.Name)

	require.NoError(t, lc.Delete(ctx, "k"))
	assert.ErrorIs(t, lc.Get(ctx, "k", &out), ErrCacheMiss)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "forecast:gold:21", Key("forecast", "gold", "21"))
	assert.Equal(t, "x", Key("x"))
}
