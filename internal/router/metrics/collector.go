// Package metrics provides the Prometheus collectors for a Router's
// dispatch path, in the style of the storage gateway's metrics collector:
// a fixed set of vectors registered once at package scope, labeled by
// router instance, and exposed through typed Observe/Inc methods rather
// than handing callers the raw Prometheus types.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meshrouter_dispatch_duration_seconds",
		Help:    "Time spent in Router.RoundTrip, including the downstream handler call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"router", "outcome"})

	notRecognized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meshrouter_route_not_recognized_total",
		Help: "Total requests for which Factory.Recognize found no key.",
	}, []string{"router"})

	routeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meshrouter_route_bind_errors_total",
		Help: "Total Factory.Bind failures.",
	}, []string{"router"})

	noCapacity = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meshrouter_route_no_capacity_total",
		Help: "Total dispatches rejected because the route cache was exhausted.",
	}, []string{"router"})
)

// Collector scopes the package's shared vectors to one router instance.
// Name each Router instance distinctly (e.g. "inbound", "outbound") so
// multiple routers in one process land on distinct label values instead
// of colliding.
type Collector struct {
	router string
}

// NewCollector returns a Collector that records against the package's
// vectors under the given router label. The vectors themselves are
// registered exactly once, at package init, so constructing any number
// of Collectors never re-registers a metric with the default registry.
func NewCollector(router string) *Collector {
	return &Collector{router: router}
}

func (c *Collector) ObserveDispatch(outcome string, d time.Duration) {
	dispatchDuration.WithLabelValues(c.router, outcome).Observe(d.Seconds())
}

func (c *Collector) IncNotRecognized() { notRecognized.WithLabelValues(c.router).Inc() }

func (c *Collector) IncRouteError() { routeErrors.WithLabelValues(c.router).Inc() }

func (c *Collector) IncNoCapacity() { noCapacity.WithLabelValues(c.router).Inc() }
