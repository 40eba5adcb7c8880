//nolint:funlen // ok for tests
package loadercache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/utils/cache"
)

func TestLoaderCache(t *testing.T) {
	calls := 0
	now := time.Date(2024, 4, 28, 11, 0, 0, 0, time.UTC)
	c := New[int, string](
		WithLoader(func(ctx context.Context, key int) (*string, error) {
			calls++
			if key < 0 {
				return nil, errors.New("negative key")
			}
			v := "value"
			return &v, nil
		}),
		WithExpiration[int, string](time.Minute),
		WithClock[int, string](func() time.Time { return now }),
	)
	ctx := context.Background()

	v, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "value", *v)
	_, _ = c.Get(ctx, 1)
	assert.Equal(t, 1, calls, "second get is served from the cache")
	assert.Equal(t, 1, c.Len())

	now = now.Add(2 * time.Minute)
	_, _ = c.Get(ctx, 1)
	assert.Equal(t, 2, calls, "expired entry is reloaded")

	_, err = c.Get(ctx, -1)
	require.Error(t, err)
	_, err = c.Get(ctx, -1)
	require.Error(t, err)
	assert.Equal(t, 4, calls, "errors are not cached")

	c.Invalidate(ctx, 1)
	assert.Equal(t, 0, c.Len())
	_, _ = c.Get(ctx, 1)
	_, _ = c.Get(ctx, 2)
	assert.Equal(t, 2, c.Len())
	c.InvalidateAll(ctx)
	assert.Equal(t, 0, c.Len())
}

func TestLoaderCacheWithoutLoader(t *testing.T) {
	c := New[string, int]()
	_, err := c.Get(context.Background(), "x")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestLoaderCacheNoExpiration(t *testing.T) {
	calls := 0
	now := time.Now()
	c := New[int, int](
		WithLoader(func(ctx context.Context, key int) (*int, error) {
			calls++
			return &key, nil
		}),
		WithExpiration[int, int](0),
		WithClock[int, int](func() time.Time { return now }),
	)
	_, _ = c.Get(context.Background(), 3)
	now = now.Add(24 * time.Hour)
	_, _ = c.Get(context.Background(), 3)
	assert.Equal(t, 1, calls)
}
