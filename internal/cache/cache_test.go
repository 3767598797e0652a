package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type view struct {
	Total string `json:"total"`
}

func newTestCache(t *testing.T) (*TripCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Minute), mr
}

func TestFetchJSONCachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	calls := 0
	loader := func(context.Context) (interface{}, error) {
		calls++
		return view{Total: "100.00"}, nil
	}

	key, err := c.BuildKey(ctx, 7, "balances")
	require.NoError(t, err)
	assert.Equal(t, "tripsplit:trip:7:view:balances:v1", key)

	var got view
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	assert.Equal(t, "100.00", got.Total)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(key))

	require.NoError(t, c.Invalidate(ctx, 7))
	assert.False(t, mr.Exists(key), "stale view should be purged")

	key2, err := c.BuildKey(ctx, 7, "balances")
	require.NoError(t, err)
	assert.Equal(t, "tripsplit:trip:7:view:balances:v2", key2)

	require.NoError(t, c.FetchJSON(ctx, key2, &got, loader))
	assert.Equal(t, 2, calls)
}

func TestInvalidateIsTripScoped(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	loader := func(context.Context) (interface{}, error) { return view{Total: "1.00"}, nil }
	k1, err := c.BuildKey(ctx, 1, "summary")
	require.NoError(t, err)
	k2, err := c.BuildKey(ctx, 2, "summary")
	require.NoError(t, err)

	var v view
	require.NoError(t, c.FetchJSON(ctx, k1, &v, loader))
	require.NoError(t, c.FetchJSON(ctx, k2, &v, loader))

	require.NoError(t, c.Invalidate(ctx, 1))
	assert.False(t, mr.Exists(k1))
	assert.True(t, mr.Exists(k2))
}

func TestFetchJSONLoaderError(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	boom := errors.New("store unavailable")
	key, err := c.BuildKey(ctx, 3, "balances")
	require.NoError(t, err)

	var v view
	err = c.FetchJSON(ctx, key, &v, func(context.Context) (interface{}, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(key))
}

func TestNilCacheCallsLoader(t *testing.T) {
	ctx := context.Background()
	var c *TripCache

	key, err := c.BuildKey(ctx, 1, "balances")
	require.NoError(t, err)

	var v view
	require.NoError(t, c.FetchJSON(ctx, key, &v, func(context.Context) (interface{}, error) {
		return view{Total: "5.00"}, nil
	}))
	assert.Equal(t, "5.00", v.Total)
	require.NoError(t, c.Invalidate(ctx, 1))
}
