package routecache

import (
	"time"

	"github.com/FairForge/meshrouter/internal/clock"
)

// Policy decides, for a single entry, whether it should survive an
// eviction sweep. true means retain. Encoded as a function type rather
// than an interface so Always/Never/MaxAccessAge compose with And/Or the
// same way the original Rust Const/And/Or combinators did — no dynamic
// dispatch is required here either.
type Policy[V any] func(n *AccessNode[V]) bool

// Always retains every entry.
func Always[V any]() Policy[V] {
	return func(*AccessNode[V]) bool { return true }
}

// Never retains no entry.
func Never[V any]() Policy[V] {
	return func(*AccessNode[V]) bool { return false }
}

// MaxAccessAge retains an entry whose last access is within d of now,
// inclusive: last_access == now-d is retained, not evicted.
func MaxAccessAge[V any](d time.Duration, c clock.Clock) Policy[V] {
	return func(n *AccessNode[V]) bool {
		cutoff := c.Now().Add(-d)
		return !n.LastAccess().Before(cutoff)
	}
}

// Idler is implemented by values whose idleness can gate retention.
type Idler interface {
	Idle() bool
}

// RetainWhileActive retains an entry whose value reports that it is not
// idle. Typically composed as RetainWhileActive[V]().Or(MaxAccessAge[V](d, c))
// so a busy route survives regardless of age, and an idle one survives
// only while young.
func RetainWhileActive[V Idler]() Policy[V] {
	return func(n *AccessNode[V]) bool {
		return !n.peek().Idle()
	}
}

// And returns a policy retaining an entry only if both p and other do.
// Short-circuits: other is not evaluated if p already returns false.
func (p Policy[V]) And(other Policy[V]) Policy[V] {
	return func(n *AccessNode[V]) bool {
		return p(n) && other(n)
	}
}

// Or returns a policy retaining an entry if either p or other does.
// Short-circuits: other is not evaluated if p already returns true.
func (p Policy[V]) Or(other Policy[V]) Policy[V] {
	return func(n *AccessNode[V]) bool {
		return p(n) || other(n)
	}
}
