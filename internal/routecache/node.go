// Package routecache implements a capacity-bounded, retention-policy-driven
// cache of handlers keyed by route. It is the generic mapping underneath
// the request router: sync.Mutex-guarded map plus last-access bookkeeping,
// in the style of the storage gateway's internal LRU (map + doubly-linked
// recency list), generalized here to pluggable retention instead of strict
// recency order.
package routecache

import (
	"time"

	"github.com/FairForge/meshrouter/internal/clock"
)

// AccessNode wraps a cached value together with the time it was last
// released by an AccessGuard. It is not safe for concurrent use on its own
// — callers (the owning Cache) must serialize access to it.
type AccessNode[V any] struct {
	value      V
	lastAccess time.Time
}

// newAccessNode stamps a node at t.
func newAccessNode[V any](v V, t time.Time) *AccessNode[V] {
	return &AccessNode[V]{value: v, lastAccess: t}
}

// LastAccess returns the time the node's guard was last released.
func (n *AccessNode[V]) LastAccess() time.Time {
	return n.lastAccess
}

// peek returns the current value without a guard, for use by retention
// policies evaluated under the cache's own lock during a sweep.
func (n *AccessNode[V]) peek() V {
	return n.value
}

// Access returns a scoped guard over the node's value. The node's
// last-access time is left unchanged until the guard is released.
func (n *AccessNode[V]) Access(c clock.Clock) *AccessGuard[V] {
	return &AccessGuard[V]{node: n, clock: c}
}

// AccessGuard is a scoped borrow of an AccessNode's value. Releasing it
// stamps the node with the guard's clock reading at release time — not at
// construction time — so a long-lived access never looks stale to a
// concurrent retention sweep while it is still open.
type AccessGuard[V any] struct {
	node     *AccessNode[V]
	clock    clock.Clock
	released bool
}

// Value returns a mutable pointer to the guarded value.
func (g *AccessGuard[V]) Value() *V {
	return &g.node.value
}

// Release stamps the underlying node with the current time. Releasing an
// already-released guard panics: it is a programmer error, the same class
// as polling an already-resolved terminal future.
func (g *AccessGuard[V]) Release() {
	if g.released {
		panic("routecache: AccessGuard released twice")
	}
	g.node.lastAccess = g.clock.Now()
	g.released = true
}
