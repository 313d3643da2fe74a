package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/qolzam/imagehost/internal/cache"
	platformconfig "github.com/qolzam/imagehost/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache(t *testing.T) {
	t.Run("CreateMemoryCache", func(t *testing.T) {
		config := cache.DefaultCacheConfig()
		config.Backend = cache.CacheTypeMemory

		c, err := cache.NewCache(config)
		require.NoError(t, err)

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "test", []byte("value"), time.Minute))

		value, err := c.Get(ctx, "test")
		require.NoError(t, err)
		assert.Equal(t, []byte("value"), value)

		require.NoError(t, c.Delete(ctx, "test"))
		_, err = c.Get(ctx, "test")
		assert.ErrorIs(t, err, cache.ErrKeyNotFound)

		require.NoError(t, c.Close())
		_, err = c.Get(ctx, "test")
		assert.ErrorIs(t, err, cache.ErrCacheDisabled)
	})

	t.Run("InvalidCacheType", func(t *testing.T) {
		config := cache.DefaultCacheConfig()
		config.Backend = cache.CacheType("invalid")

		_, err := cache.NewCache(config)
		assert.ErrorIs(t, err, cache.ErrInvalidCacheType)
	})
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Entries expire after their TTL", func(t *testing.T) {
		c := cache.NewMemoryCache(nil)
		require.NoError(t, c.Set(ctx, "short", []byte("x"), 20*time.Millisecond))

		ok, err := c.Exists(ctx, "short")
		require.NoError(t, err)
		assert.True(t, ok)

		time.Sleep(40 * time.Millisecond)
		ok, err = c.Exists(ctx, "short")
		require.NoError(t, err)
		assert.False(t, ok)
		_, err = c.Get(ctx, "short")
		assert.ErrorIs(t, err, cache.ErrKeyNotFound)
	})

	t.Run("Least recently used entry is evicted at capacity", func(t *testing.T) {
		config := cache.DefaultCacheConfig()
		config.MaxEntries = 2
		c := cache.NewMemoryCache(config)

		require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
		require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))
		_, err := c.Get(ctx, "a")
		require.NoError(t, err)
		require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Minute))

		_, err = c.Get(ctx, "b")
		assert.ErrorIs(t, err, cache.ErrKeyNotFound)
		_, err = c.Get(ctx, "a")
		assert.NoError(t, err)
	})

	t.Run("Stored values are copies", func(t *testing.T) {
		c := cache.NewMemoryCache(nil)
		value := []byte("abc")
		require.NoError(t, c.Set(ctx, "k", value, time.Minute))
		value[0] = 'z'

		got, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), got)
	})
}

func TestGenericCacheService(t *testing.T) {
	ctx := context.Background()

	type entry struct {
		ImageID string    `json:"imageId"`
		Expires time.Time `json:"expires"`
	}

	t.Run("Round trips JSON under the configured prefix", func(t *testing.T) {
		backend := cache.NewMemoryCache(nil)
		config := cache.DefaultCacheConfig()
		config.Prefix = "test:"
		svc := cache.NewGenericCacheService(backend, config)

		in := entry{ImageID: "img-1", Expires: time.Unix(1700000000, 0).UTC()}
		require.NoError(t, svc.CacheData(ctx, "link:abc", in, time.Minute))

		raw, err := backend.Get(ctx, "test:link:abc")
		require.NoError(t, err)
		assert.Contains(t, string(raw), "img-1")

		var out entry
		require.NoError(t, svc.GetCached(ctx, "link:abc", &out))
		assert.Equal(t, in, out)

		err = svc.GetCached(ctx, "link:missing", &out)
		assert.ErrorIs(t, err, cache.ErrKeyNotFound)

		hits, misses := svc.Stats()
		assert.Equal(t, int64(1), hits)
		assert.Equal(t, int64(1), misses)
	})

	t.Run("Markers", func(t *testing.T) {
		svc := cache.NewGenericCacheService(cache.NewMemoryCache(nil), nil)
		require.NoError(t, svc.Mark(ctx, "thumb:1:200", time.Minute))

		ok, err := svc.Exists(ctx, "thumb:1:200")
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, svc.InvalidateKey(ctx, "thumb:1:200"))
		ok, err = svc.Exists(ctx, "thumb:1:200")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Disabled service always misses", func(t *testing.T) {
		svc, err := cache.NewServiceFromPlatform(platformconfig.CacheConfig{Enabled: false, Backend: "memory"})
		require.NoError(t, err)
		assert.False(t, svc.IsEnabled())

		var out entry
		assert.ErrorIs(t, svc.GetCached(ctx, "k", &out), cache.ErrCacheDisabled)
		assert.ErrorIs(t, svc.CacheData(ctx, "k", out, 0), cache.ErrCacheDisabled)
	})
}
