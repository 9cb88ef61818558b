// Package querycache is a client-side read cache keyed by endpoint and
// query parameters. Fresh entries are served without a fetch, stale ones are
// served while a single background revalidation runs, and invalidated or
// missing ones block on a fetch. Identical in-flight fetches are coalesced.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jordanlanch/realtycrm/pkg/logger"
)

// ErrClosed is returned by fetches after Close
var ErrClosed = errors.New("query cache closed")

// Options configures a Cache
type Options struct {
	// StaleTime is the age after which an entry is revalidated
	StaleTime time.Duration
	// StaleTimes overrides StaleTime per key prefix; the longest match wins
	StaleTimes map[string]time.Duration
	// Retries is the number of extra attempts after a failed fetch
	Retries int
	// RetryDelay is the fixed wait between attempts
	RetryDelay time.Duration
	// ShouldRetry reports whether a failed fetch is worth another attempt.
	// Nil retries every failure.
	ShouldRetry func(error) bool
	Logger      logger.Logger
	Now         func() time.Time
}

// DefaultOptions returns a 30s staleness, 2 retries and a 1s retry delay
func DefaultOptions() Options {
	return Options{
		StaleTime:  30 * time.Second,
		Retries:    2,
		RetryDelay: time.Second,
	}
}

type entry struct {
	value        any
	hasValue     bool
	updatedAt    time.Time
	invalid      bool
	epoch        uint64
	err          error
	revalidating bool
}

// Cache holds query results. Create it with New and release it with Close.
type Cache struct {
	opts    Options
	log     logger.Logger
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
}

// New creates a cache. Fetches run on the cache's own context, so a caller
// giving up does not cancel a fetch other callers may be waiting on.
func New(opts Options) *Cache {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		opts:    opts,
		log:     logger.OrDefault(opts.Logger),
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Close cancels in-flight fetches and waits for background revalidations
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// Key renders an endpoint and its query parameters canonically. Parameters
// are sorted and empty values dropped.
func Key(endpoint string, params url.Values) string {
	clean := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			if v != "" {
				clean.Add(k, v)
			}
		}
	}
	if len(clean) == 0 {
		return endpoint
	}
	return endpoint + "?" + clean.Encode()
}

// StaleTimeFor returns the staleness threshold that applies to key
func (c *Cache) StaleTimeFor(key string) time.Duration {
	best, bestLen := c.opts.StaleTime, -1
	for prefix, d := range c.opts.StaleTimes {
		if strings.HasPrefix(key, prefix) && len(prefix) > bestLen {
			best, bestLen = d, len(prefix)
		}
	}
	return best
}

func (c *Cache) fresh(key string, e *entry) bool {
	return e.hasValue && !e.invalid && e.err == nil &&
		c.opts.Now().Sub(e.updatedAt) < c.StaleTimeFor(key)
}

func (c *Cache) entryLocked(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

type loaderFunc func(ctx context.Context) (any, error)

// Fetch returns the value under key, calling fetch when the entry is missing
// or invalidated. A stale entry is returned at once and revalidated in the
// background. ctx only bounds how long this caller waits.
func Fetch[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	load := func(ctx context.Context) (any, error) { return fetch(ctx) }

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	e := c.entryLocked(key)
	if e.hasValue && !e.invalid {
		if v, ok := e.value.(T); ok {
			if !c.fresh(key, e) && !e.revalidating {
				e.revalidating = true
				c.revalidateLocked(key, e.epoch, load)
			}
			c.mu.Unlock()
			return v, nil
		}
	}
	epoch := e.epoch
	c.mu.Unlock()

	v, err := c.load(ctx, key, epoch, load)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: %s holds %T", key, v)
	}
	return t, nil
}

func (c *Cache) revalidateLocked(key string, epoch uint64, load loaderFunc) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.load(c.ctx, key, epoch, load); err != nil {
			c.log.Debug("background revalidation failed", "key", key, "error", err)
		}

		c.mu.Lock()
		if e, ok := c.entries[key]; ok {
			e.revalidating = false
		}
		c.mu.Unlock()
	}()
}

// load joins or starts the fetch for (key, epoch). Fetches of different
// epochs never coalesce, so a read after an invalidation cannot join a
// fetch that started before it.
func (c *Cache) load(ctx context.Context, key string, epoch uint64, load loaderFunc) (any, error) {
	ch := c.group.DoChan(fmt.Sprintf("%s#%d", key, epoch), func() (any, error) {
		return c.run(key, epoch, load)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) run(key string, epoch uint64, load loaderFunc) (any, error) {
	var (
		v   any
		err error
	)
	for attempt := 0; ; attempt++ {
		v, err = load(c.ctx)
		if err == nil || attempt >= c.opts.Retries {
			break
		}
		if c.opts.ShouldRetry != nil && !c.opts.ShouldRetry(err) {
			break
		}
		c.log.Debug("fetch failed, retrying", "key", key, "attempt", attempt+1, "error", err)
		if !c.sleep(c.opts.RetryDelay) {
			err = ErrClosed
			break
		}
	}

	c.store(key, epoch, v, err)
	return v, err
}

func (c *Cache) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// store records a fetch result unless the entry changed epoch while the
// fetch ran. A failure keeps the previous value.
func (c *Cache) store(key string, epoch uint64, v any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.epoch != epoch {
		return
	}
	if err != nil {
		e.err = err
		return
	}
	e.value = v
	e.hasValue = true
	e.updatedAt = c.opts.Now()
	e.invalid = false
	e.err = nil
}

// Invalidate marks every entry whose key starts with prefix as invalid and
// returns how many matched. Fetches already running for them are not stored.
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			e.invalid = true
			e.epoch++
			n++
		}
	}
	return n
}

// Snapshot is the cached state of one key
type Snapshot[T any] struct {
	Value     T
	OK        bool
	Fresh     bool
	UpdatedAt time.Time
	Err       error
}

// Peek reads an entry without fetching
func Peek[T any](c *Cache, key string) Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s Snapshot[T]
	e, ok := c.entries[key]
	if !ok {
		return s
	}
	s.Err = e.err
	s.UpdatedAt = e.updatedAt
	if v, ok := e.value.(T); ok && e.hasValue {
		s.Value = v
		s.OK = true
		s.Fresh = c.fresh(key, e)
	}
	return s
}

// Set stores value under key as a fresh entry
func Set[T any](c *Cache, key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	e.value = value
	e.hasValue = true
	e.updatedAt = c.opts.Now()
	e.invalid = false
	e.err = nil
	e.epoch++
}

// MutatePrefix applies fn to every cached value of type T under prefix and
// returns a function restoring the previous values. Fetches running for
// the touched keys are not stored, so an older read cannot overwrite the
// change.
func MutatePrefix[T any](c *Cache, prefix string, fn func(T) T) (restore func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := make(map[string]T)
	for key, e := range c.entries {
		if !strings.HasPrefix(key, prefix) || !e.hasValue {
			continue
		}
		v, ok := e.value.(T)
		if !ok {
			continue
		}
		previous[key] = v
		e.value = fn(v)
		e.epoch++
	}

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for key, v := range previous {
			if e, ok := c.entries[key]; ok {
				e.value = v
				e.epoch++
			}
		}
	}
}
