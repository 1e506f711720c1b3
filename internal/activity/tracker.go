// Package activity counts outstanding units of work attached to a route
// handler so the cache can tell an active route from an idle one.
package activity

import "sync/atomic"

// Tracker is a shared counter of outstanding work. Its zero value is a
// valid, idle tracker.
type Tracker struct {
	count atomic.Int64
}

// NewTracker returns a fresh, idle Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Acquire registers one unit of outstanding work and returns a Token that
// must be released when that work completes.
func (t *Tracker) Acquire() *Token {
	t.count.Add(1)
	return &Token{tracker: t}
}

// IsIdle reports whether the tracker currently has no outstanding work.
// The result is a momentary snapshot; callers racing a release must not
// assume it remains true once observed.
func (t *Tracker) IsIdle() bool {
	return t.count.Load() == 0
}

// Count returns the current number of live tokens. Exposed for metrics and
// tests; not part of the idleness contract.
func (t *Tracker) Count() int64 {
	return t.count.Load()
}

// Token represents exactly one unit of outstanding work. Release is
// idempotent: calling it more than once only decrements the tracker once.
type Token struct {
	tracker  *Tracker
	released atomic.Bool
}

// Release decrements the tracker's count. Safe to call from any goroutine,
// and safe to call more than once.
func (tok *Token) Release() {
	if tok.released.CompareAndSwap(false, true) {
		tok.tracker.count.Add(-1)
	}
}
