package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/realtycrm/pkg/logger"
)

type countingRecorder struct {
	hits, misses int
}

func (r *countingRecorder) CacheHit(string)  { r.hits++ }
func (r *countingRecorder) CacheMiss(string) { r.misses++ }

type leadQuery struct {
	Status string `json:"status"`
	Limit  int    `json:"limit"`
}

func TestListKey_Canonical(t *testing.T) {
	a := ListKey("leads", leadQuery{Status: "new", Limit: 50})
	b := ListKey("leads", leadQuery{Status: "new", Limit: 50})
	c := ListKey("leads", leadQuery{Status: "lost", Limit: 50})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, `crm:leads:list:{"status":"new","limit":50}`, a)

	m1 := ListKey("tasks", map[string]string{"b": "2", "a": "1"})
	m2 := ListKey("tasks", map[string]string{"a": "1", "b": "2"})
	assert.Equal(t, m1, m2)
}

func TestListCache_CachedAndInvalidate(t *testing.T) {
	client, mr := setupTestRedis(t)
	rec := &countingRecorder{}
	lc := NewListCache(client, ListCacheConfig{
		TTLs:     map[string]time.Duration{"leads": 30 * time.Second, "properties": 5 * time.Minute},
		Recorder: rec,
	}, logger.Nop())
	ctx := context.Background()

	calls := 0
	fetch := func() ([]string, error) {
		calls++
		return []string{"lead-1", "lead-2"}, nil
	}
	key := ListKey("leads", leadQuery{Status: "new"})

	got, err := Cached(ctx, lc, "leads", key, fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"lead-1", "lead-2"}, got)

	got, err = Cached(ctx, lc, "leads", key, fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"lead-1", "lead-2"}, got)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 1, rec.misses)
	assert.Equal(t, 30*time.Second, mr.TTL(key))

	lc.Invalidate(ctx, "leads")
	assert.False(t, mr.Exists(key))

	_, err = Cached(ctx, lc, "leads", key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestListCache_InvalidateIsScopedToCollection(t *testing.T) {
	client, mr := setupTestRedis(t)
	lc := NewListCache(client, ListCacheConfig{}, logger.Nop())
	ctx := context.Background()

	leadsKey := ListKey("leads", nil)
	propsKey := ListKey("properties", nil)
	_, err := Cached(ctx, lc, "leads", leadsKey, func() ([]int, error) { return []int{1}, nil })
	require.NoError(t, err)
	_, err = Cached(ctx, lc, "properties", propsKey, func() ([]int, error) { return []int{2}, nil })
	require.NoError(t, err)

	lc.Invalidate(ctx, "leads")

	assert.False(t, mr.Exists(leadsKey))
	assert.True(t, mr.Exists(propsKey))
	assert.Equal(t, time.Minute, mr.TTL(propsKey))
}

func TestListCache_NilAndDisabled(t *testing.T) {
	ctx := context.Background()

	var nilCache *ListCache
	assert.False(t, nilCache.Enabled())
	nilCache.Invalidate(ctx, "leads")

	disabled := NewListCache(nil, ListCacheConfig{}, logger.Nop())
	calls := 0
	for i := 0; i < 2; i++ {
		_, err := Cached(ctx, disabled, "leads", "k", func() (int, error) {
			calls++
			return 7, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestListCache_RedisDownFallsThrough(t *testing.T) {
	client, mr := setupTestRedis(t)
	lc := NewListCache(client, ListCacheConfig{}, logger.Nop())
	mr.Close()

	got, err := Cached(context.Background(), lc, "leads", "k", func() (string, error) {
		return "from-store", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "from-store", got)
}

func TestCached_FetchErrorNotCached(t *testing.T) {
	client, mr := setupTestRedis(t)
	lc := NewListCache(client, ListCacheConfig{}, logger.Nop())

	_, err := Cached(context.Background(), lc, "leads", "k", func() (int, error) {
		return 0, errors.New("db down")
	})
	require.Error(t, err)
	assert.False(t, mr.Exists("k"))
}

func TestCached_InvalidationDuringFetchIsNotCached(t *testing.T) {
	client, mr := setupTestRedis(t)
	lc := NewListCache(client, ListCacheConfig{}, logger.Nop())
	ctx := context.Background()
	key := ListKey("leads", leadQuery{Status: "new"})

	// a write commits and invalidates while this read is still loading rows
	got, err := Cached(ctx, lc, "leads", key, func() ([]string, error) {
		lc.Invalidate(ctx, "leads")
		return []string{"lead-1:new"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"lead-1:new"}, got)
	assert.False(t, mr.Exists(key))

	got, err = Cached(ctx, lc, "leads", key, func() ([]string, error) {
		return []string{"lead-1:qualified"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"lead-1:qualified"}, got)

	got, err = Cached(ctx, lc, "leads", key, func() ([]string, error) {
		return nil, errors.New("should be served from cache")
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"lead-1:qualified"}, got)
}

func TestListCache_InvalidateKeepsGeneration(t *testing.T) {
	client, mr := setupTestRedis(t)
	lc := NewListCache(client, ListCacheConfig{}, logger.Nop())
	ctx := context.Background()

	lc.Invalidate(ctx, "leads")
	lc.Invalidate(ctx, "leads")

	gen, err := mr.Get(GenerationKey("leads"))
	require.NoError(t, err)
	assert.Equal(t, "2", gen)
	assert.False(t, mr.Exists(GenerationKey("properties")))
}

func TestCachedScoped_UsesScopeForInvalidationAndTTLName(t *testing.T) {
	client, mr := setupTestRedis(t)
	lc := NewListCache(client, ListCacheConfig{
		TTLs: map[string]time.Duration{"notification_count": 10 * time.Second},
	}, logger.Nop())
	ctx := context.Background()
	key := Key("notifications:u1", "count")

	n, err := CachedScoped(ctx, lc, "notifications:u1", "notification_count", key, func() (int, error) {
		lc.Invalidate(ctx, "notifications:u1")
		return 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, mr.Exists(key))

	_, err = CachedScoped(ctx, lc, "notifications:u1", "notification_count", key, func() (int, error) {
		lc.Invalidate(ctx, "notifications:u2")
		return 4, nil
	})
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 10*time.Second, mr.TTL(key))
}
