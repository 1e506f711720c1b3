// Package router implements the top-level request dispatcher: recognize a
// route key from an incoming request, reuse or bind a Handler for it
// through a bounded cache, and dispatch while holding the cache's lock so
// a freshly bound handler cannot be evicted out from under its own first
// request. See internal/routecache for the cache and retention machinery
// this package drives.
package router

import (
	"errors"
	"net/http"
	"time"

	"github.com/FairForge/meshrouter/internal/routecache"
	"github.com/FairForge/meshrouter/internal/router/metrics"
	"go.uber.org/zap"
)

// Factory recognizes a route key for a request and binds a fresh Handler
// for a key the cache has no entry for. Bind may be called more than once
// for the same key, once per eviction; each call must return a new,
// immediately serviceable Handler.
type Factory[K comparable] interface {
	Recognize(req *http.Request) (K, bool)
	Bind(key K) (Handler, error)
}

// Router dispatches requests to cached Handlers, implementing
// http.RoundTripper. It never blocks on admission control of its own;
// capacity push-back is entirely expressed through NoCapacityError.
type Router[K comparable] struct {
	factory Factory[K]
	cache   *routecache.Cache[K, Handler]
	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option configures a Router at construction time.
type Option[K comparable] func(*Router[K])

// WithLogger attaches a logger for Warn-level recognition/bind/capacity
// events. Defaults to a no-op logger.
func WithLogger[K comparable](l *zap.Logger) Option[K] {
	return func(r *Router[K]) { r.logger = l }
}

// WithMetrics attaches a Prometheus collector for dispatch outcomes.
func WithMetrics[K comparable](c *metrics.Collector) Option[K] {
	return func(r *Router[K]) { r.metrics = c }
}

// New constructs a Router over an existing route cache. The cache's
// capacity and policy are the router's admission parameters; New itself
// takes none of its own.
func New[K comparable](factory Factory[K], cache *routecache.Cache[K, Handler], opts ...Option[K]) *Router[K] {
	r := &Router[K]{
		factory: factory,
		cache:   cache,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetPolicy swaps the underlying cache's retention policy. Safe to call
// concurrently with RoundTrip.
func (r *Router[K]) SetPolicy(policy routecache.Policy[Handler]) {
	r.cache.SetPolicy(policy)
}

// Stats returns a snapshot of the underlying cache's counters.
func (r *Router[K]) Stats() routecache.Stats {
	return r.cache.Stats()
}

// RoundTrip recognizes a key for req, reuses or binds a Handler for it,
// and dispatches req through it. It never itself applies backpressure
// beyond the route cache's capacity: NoCapacityError is the router's only
// form of push-back.
func (r *Router[K]) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	key, ok := r.factory.Recognize(req)
	if !ok {
		r.logger.Warn("router: recognition failed")
		if r.metrics != nil {
			r.metrics.IncNotRecognized()
			r.metrics.ObserveDispatch("not_recognized", time.Since(start))
		}
		return nil, ErrNotRecognized
	}

	resp, err := routecache.Dispatch(r.cache, key,
		func() (Handler, error) {
			h, bindErr := r.factory.Bind(key)
			if bindErr != nil {
				return nil, &bindError{err: bindErr}
			}
			return h, nil
		},
		func(h Handler) (*http.Response, error) { return h.RoundTrip(req) },
	)

	outcome := "ok"
	switch {
	case err == nil:
	case isExhausted(err):
		outcome = "no_capacity"
		capacity := exhaustedCapacity(err)
		r.logger.Warn("router: capacity exhausted", zap.Int("capacity", capacity))
		if r.metrics != nil {
			r.metrics.IncNoCapacity()
		}
		err = &NoCapacityError{Capacity: capacity}
	case asBindError(err) != nil:
		outcome = "route_error"
		r.logger.Warn("router: bind failed", zap.Error(err))
		if r.metrics != nil {
			r.metrics.IncRouteError()
		}
		err = &RouteError{Err: asBindError(err).err}
	default:
		outcome = "inner_error"
	}

	if r.metrics != nil {
		r.metrics.ObserveDispatch(outcome, time.Since(start))
	}

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func isExhausted(err error) bool {
	var exhausted *routecache.ExhaustedError
	return errors.As(err, &exhausted)
}

func exhaustedCapacity(err error) int {
	var exhausted *routecache.ExhaustedError
	errors.As(err, &exhausted)
	return exhausted.Capacity
}

// asBindError distinguishes a Factory.Bind failure from a downstream
// Handler.RoundTrip failure. Dispatch returns a bind error only when no
// handler was ever invoked for this call, so it can be told apart from
// an Inner error by the fact that it happened before invoke ran; since
// Dispatch doesn't expose that distinction directly, Router threads it
// through a sentinel wrapper instead.
func asBindError(err error) *bindError {
	var be *bindError
	if errors.As(err, &be) {
		return be
	}
	return nil
}

// bindError marks an error as having come from Factory.Bind rather than
// from a Handler's RoundTrip, so RoundTrip can tell the two apart after
// Dispatch returns.
type bindError struct{ err error }

func (e *bindError) Error() string { return e.err.Error() }
func (e *bindError) Unwrap() error { return e.err }
