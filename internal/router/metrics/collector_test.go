package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	c := NewCollector("test-collector")

	c.ObserveDispatch("ok", 10*time.Millisecond)
	c.IncNotRecognized()
	c.IncRouteError()
	c.IncNoCapacity()

	assert.Equal(t, float64(1), testutil.ToFloat64(notRecognized.WithLabelValues("test-collector")))
	assert.Equal(t, float64(1), testutil.ToFloat64(routeErrors.WithLabelValues("test-collector")))
	assert.Equal(t, float64(1), testutil.ToFloat64(noCapacity.WithLabelValues("test-collector")))
}

func TestNewCollector_MultipleInstancesShareVectors(t *testing.T) {
	// Constructing more than one Collector (one per router direction, as
	// cmd/routerd does) must never re-register a metric with the default
	// registry; each instance only scopes the shared vectors to its own
	// "router" label value.
	a := NewCollector("inbound-test")
	b := NewCollector("outbound-test")

	a.IncNotRecognized()
	b.IncNotRecognized()
	b.IncNotRecognized()

	assert.Equal(t, float64(1), testutil.ToFloat64(notRecognized.WithLabelValues("inbound-test")))
	assert.Equal(t, float64(2), testutil.ToFloat64(notRecognized.WithLabelValues("outbound-test")))
}
