package routecache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshrouter_route_cache_hits_total",
			Help: "Total number of route cache accesses that found an existing entry.",
		},
	)

	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshrouter_route_cache_misses_total",
			Help: "Total number of route cache accesses that found no entry.",
		},
	)

	cacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshrouter_route_cache_evictions_total",
			Help: "Total number of entries removed by a retention sweep.",
		},
	)

	cacheExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshrouter_route_cache_exhausted_total",
			Help: "Total number of reserve calls that found no free capacity.",
		},
	)

	cacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meshrouter_route_cache_size",
			Help: "Current number of entries held by the route cache.",
		},
	)
)
