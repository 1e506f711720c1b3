package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/FairForge/meshrouter/internal/ratelimit"
	"github.com/FairForge/meshrouter/internal/router"
)

const (
	defaultRatePerSecond = 100
	defaultBurst         = 200
)

// rateLimitedHandler wraps a Handler with per-route admission control via
// a token bucket: a request arriving faster than the configured rate is
// rejected before it ever reaches inner, matching the router's own
// Non-goal that admission control belongs to the bound Handler, not the
// router dispatching to it.
type rateLimitedHandler struct {
	inner   router.Handler
	limiter *ratelimit.BurstLimiter
}

// newRateLimitedHandler reads "rate_per_second" and "burst" from opts,
// falling back to defaultRatePerSecond/defaultBurst when absent or
// unparseable.
func newRateLimitedHandler(inner router.Handler, opts map[string]string) router.Handler {
	rate := defaultRatePerSecond
	if v, err := strconv.Atoi(opts["rate_per_second"]); err == nil {
		rate = v
	}
	burst := defaultBurst
	if v, err := strconv.Atoi(opts["burst"]); err == nil {
		burst = v
	}
	return &rateLimitedHandler{inner: inner, limiter: ratelimit.NewBurstLimiter(rate, burst)}
}

func (h *rateLimitedHandler) Idle() bool { return h.inner.Idle() }

func (h *rateLimitedHandler) RoundTrip(req *http.Request) (*http.Response, error) {
	if !h.limiter.Allow() {
		return nil, fmt.Errorf("ratelimited: burst capacity exceeded for %s", req.Host)
	}
	return h.inner.RoundTrip(req)
}
