package routecache

import (
	"fmt"
	"sync"

	"github.com/FairForge/meshrouter/internal/clock"
	"go.uber.org/zap"
)

// ExhaustedError reports that the cache has no free capacity and the
// retention sweep freed nothing.
type ExhaustedError struct {
	Capacity int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("routecache: exhausted (capacity %d)", e.Capacity)
}

// Cache is a capacity-bounded mapping from K to V, with O(1) amortized
// access and O(n) reservation/eviction. A single mutex guards the whole
// structure, matching the storage gateway's LRU cache's sync.RWMutex over
// its map+list pair — here a plain Mutex, because the router holds this
// lock across the full recognize/access/bind/store fast path, not just a
// read.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	entries  map[K]*AccessNode[V]
	policy   Policy[V]
	clock    clock.Clock
	logger   *zap.Logger

	hits, misses, evictions int64
}

// Option configures a Cache at construction time.
type Option[K comparable, V any] func(*Cache[K, V])

// WithLogger attaches a logger for debug-level eviction tracing and a
// warning when capacity is exhausted. Hits and misses are counted, not
// logged.
func WithLogger[K comparable, V any](l *zap.Logger) Option[K, V] {
	return func(c *Cache[K, V]) { c.logger = l }
}

// New creates a Cache. capacity must be >= 1.
func New[K comparable, V any](capacity int, policy Policy[V], clk clock.Clock, opts ...Option[K, V]) (*Cache[K, V], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("routecache: capacity must be >= 1, got %d", capacity)
	}
	c := &Cache[K, V]{
		capacity: capacity,
		entries:  make(map[K]*AccessNode[V], capacity),
		policy:   policy,
		clock:    clk,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetPolicy swaps the retention policy under the cache's lock. Takes
// effect on the next Reserve.
func (c *Cache[K, V]) SetPolicy(policy Policy[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = policy
}

// Access returns a guard over the entry for key, or ok == false if absent.
// Never evicts. O(1) amortized.
func (c *Cache[K, V]) Access(key K) (guard *AccessGuard[V], ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, found := c.entries[key]
	if !found {
		c.misses++
		cacheMisses.Inc()
		return nil, false
	}
	c.hits++
	cacheHits.Inc()
	return node.Access(c.clock), true
}

// Reserve ensures at least one free slot exists, evicting entries the
// retention policy does not retain if necessary. On success it returns the
// number of free slots after the call. Iteration order over entries during
// a sweep is unspecified; callers must not rely on it.
func (c *Cache[K, V]) Reserve() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reserveLocked()
}

func (c *Cache[K, V]) reserveLocked() (int, error) {
	if free := c.capacity - len(c.entries); free > 0 {
		return free, nil
	}

	for key, node := range c.entries {
		if !c.policy(node) {
			delete(c.entries, key)
			c.evictions++
			cacheEvictions.Inc()
			c.logger.Debug("routecache: evicted idle entry")
		}
	}
	cacheSize.Set(float64(len(c.entries)))

	if free := c.capacity - len(c.entries); free > 0 {
		return free, nil
	}

	cacheExhausted.Inc()
	c.logger.Warn("routecache: capacity exhausted", zap.Int("capacity", c.capacity))
	return 0, &ExhaustedError{Capacity: c.capacity}
}

// Store inserts or replaces the entry for key, reserving capacity first if
// necessary. On success last_access is set to now. Replacing an existing
// key does not change the entry count and is O(1) without triggering a
// sweep of its own (Store only calls reserveLocked for a key not yet
// present).
func (c *Cache[K, V]) Store(key K, value V) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if _, err := c.reserveLocked(); err != nil {
			return err
		}
	}

	c.entries[key] = newAccessNode(value, c.clock.Now())
	cacheSize.Set(float64(len(c.entries)))
	return nil
}

// Dispatch performs a full access-or-reserve/bind/store cycle against c
// while holding c's single lock for the entire operation, including the
// call to invoke. This is the Go shape of the router's dispatch algorithm:
// the downstream call happens before the newly bound handler becomes
// visible to other callers in the cache's map, so a request in flight on a handler
// it just bound can never be evicted out from under it by a concurrent
// sweep.
//
// On a cache hit, invoke runs against the existing value through a guard
// that is released (refreshing last_access) before Dispatch returns. On a
// miss, Dispatch reserves capacity, calls bind to produce a new value,
// calls invoke against it, and stores it regardless of invoke's error —
// a transient failure on the request that caused a route to be bound does
// not un-bind the route.
//
// bind is not called on a hit; reserve/bind errors short-circuit before
// invoke runs.
func Dispatch[K comparable, V any, R any](c *Cache[K, V], key K, bind func() (V, error), invoke func(V) (R, error)) (R, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero R

	if node, found := c.entries[key]; found {
		c.hits++
		cacheHits.Inc()
		guard := node.Access(c.clock)
		result, err := invoke(*guard.Value())
		guard.Release()
		return result, err
	}

	c.misses++
	cacheMisses.Inc()

	if _, err := c.reserveLocked(); err != nil {
		return zero, err
	}

	value, err := bind()
	if err != nil {
		return zero, err
	}

	result, invokeErr := invoke(value)

	c.entries[key] = newAccessNode(value, c.clock.Now())
	cacheSize.Set(float64(len(c.entries)))

	return result, invokeErr
}

// Len returns the current number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats is a point-in-time snapshot of cache counters, mirroring the
// storage gateway's CacheStats/HitRate pattern.
type Stats struct {
	Items     int
	Capacity  int
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns Hits / (Hits + Misses), or 0 if there have been no
// accesses yet.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns a snapshot of the cache's counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Items:     len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
