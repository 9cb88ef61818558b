package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jordanlanch/realtycrm/pkg/logger"
)

// KeyPrefix namespaces every key written by this service
const KeyPrefix = "crm"

// Recorder receives cache hit/miss events
type Recorder interface {
	CacheHit(collection string)
	CacheMiss(collection string)
}

// ListCache caches collection reads in Redis and drops a whole collection on
// any write to it. A nil *ListCache, or one without a Redis client, caches
// nothing, and Redis errors never fail a read.
type ListCache struct {
	client   *Client
	ttls     map[string]time.Duration
	fallback time.Duration
	recorder Recorder
	log      logger.Logger
}

// ListCacheConfig configures per-collection expirations
type ListCacheConfig struct {
	TTLs       map[string]time.Duration
	DefaultTTL time.Duration
	Recorder   Recorder
}

// NewListCache creates a list cache. client may be nil.
func NewListCache(client *Client, cfg ListCacheConfig, log logger.Logger) *ListCache {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = time.Minute
	}
	return &ListCache{
		client:   client,
		ttls:     cfg.TTLs,
		fallback: cfg.DefaultTTL,
		recorder: cfg.Recorder,
		log:      logger.OrDefault(log),
	}
}

// Enabled reports whether reads are cached
func (lc *ListCache) Enabled() bool {
	return lc != nil && lc.client != nil
}

// ListKey builds "crm:<collection>:list:<canonical query>". The query is
// rendered as JSON, which orders struct fields by declaration and map keys
// alphabetically, so equal queries produce equal keys.
func ListKey(collection string, query any) string {
	data, err := json.Marshal(query)
	if err != nil {
		data = []byte("{}")
	}
	return KeyPrefix + ":" + collection + ":list:" + string(data)
}

// Key builds "crm:<collection>:<name>"
func Key(collection, name string) string {
	return KeyPrefix + ":" + collection + ":" + name
}

// TTL returns the expiration configured for a collection
func (lc *ListCache) TTL(collection string) time.Duration {
	if ttl, ok := lc.ttls[collection]; ok && ttl > 0 {
		return ttl
	}
	return lc.fallback
}

// Get decodes a cached value into dest and reports whether it was found
func (lc *ListCache) Get(ctx context.Context, collection, key string, dest any) bool {
	if !lc.Enabled() {
		return false
	}

	raw, err := lc.client.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			lc.log.Warn("cache read failed", "key", key, "error", err)
		}
		lc.miss(collection)
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		lc.log.Warn("cache entry undecodable", "key", key, "error", err)
		lc.miss(collection)
		return false
	}

	lc.hit(collection)
	return true
}

// GenerationKey names the counter bumped on every invalidation of a
// collection. It sits outside "crm:<collection>:*" so invalidation never
// deletes it.
func GenerationKey(collection string) string {
	return KeyPrefix + ":gen:" + collection
}

// generation returns the collection's current generation. ok is false when
// caching is off or the counter cannot be read, in which case nothing read
// from the store may be cached.
func (lc *ListCache) generation(ctx context.Context, collection string) (gen int64, ok bool) {
	if !lc.Enabled() {
		return 0, false
	}
	gen, err := lc.client.Generation(ctx, GenerationKey(collection))
	if err != nil {
		lc.log.Warn("cache generation read failed", "collection", collection, "error", err)
		return 0, false
	}
	return gen, true
}

// store caches value under key unless collection was invalidated after gen
// was read
func (lc *ListCache) store(ctx context.Context, collection, ttlName, key string, gen int64, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		lc.log.Warn("cache entry unencodable", "key", key, "error", err)
		return
	}
	stored, err := lc.client.SetIfGeneration(ctx, GenerationKey(collection), gen, key, data, lc.TTL(ttlName))
	if err != nil {
		lc.log.Warn("cache write failed", "key", key, "error", err)
		return
	}
	if !stored {
		lc.log.Debug("cache write skipped, collection invalidated during read", "key", key)
	}
}

// Invalidate bumps the collection's generation, then drops every key of it
// ("crm:<collection>:*"). Reads that started before the bump cannot store
// their results afterwards.
func (lc *ListCache) Invalidate(ctx context.Context, collection string) {
	if !lc.Enabled() {
		return
	}
	if _, err := lc.client.BumpGeneration(ctx, GenerationKey(collection)); err != nil {
		lc.log.Warn("cache generation bump failed", "collection", collection, "error", err)
	}
	if _, err := lc.client.DeletePattern(ctx, KeyPrefix+":"+collection+":*"); err != nil {
		lc.log.Warn("cache invalidation failed", "collection", collection, "error", err)
	}
}

func (lc *ListCache) hit(collection string) {
	if lc.recorder != nil {
		lc.recorder.CacheHit(collection)
	}
}

func (lc *ListCache) miss(collection string) {
	if lc.recorder != nil {
		lc.recorder.CacheMiss(collection)
	}
}

// Cached returns the cached value for key, or calls fetch and caches its
// result with the collection's TTL. A result is only cached when the
// collection was not invalidated while fetch ran.
func Cached[T any](ctx context.Context, lc *ListCache, collection, key string, fetch func() (T, error)) (T, error) {
	return CachedScoped(ctx, lc, collection, collection, key, fetch)
}

// CachedScoped is Cached for keys invalidated under scope but expiring with
// the TTL configured for ttlName, e.g. one user's notification count.
func CachedScoped[T any](ctx context.Context, lc *ListCache, scope, ttlName, key string, fetch func() (T, error)) (T, error) {
	var cached T
	if lc.Get(ctx, ttlName, key, &cached) {
		return cached, nil
	}

	gen, ok := lc.generation(ctx, scope)
	value, err := fetch()
	if err != nil {
		return value, err
	}
	if ok {
		lc.store(ctx, scope, ttlName, key, gen, value)
	}
	return value, nil
}
