package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordAnalysis("demand_curve", "high")
	r.RecordAnalysis("demand_curve", "high")
	r.RecordFallback("poor_fit")
	r.RecordSourceFetch("etsy", "ok", 12)
	r.RecordSourceFetch("ebay", "error", 0)
	r.RecordCacheLookup(true)
	r.RecordCacheLookup(false)
	r.RecordCacheLookup(false)
	r.RecordError("store")
	r.RecordLatency("analyze", 0.02)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.analyses.WithLabelValues("demand_curve", "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fallbacks.WithLabelValues("poor_fit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sourceFetch.WithLabelValues("ebay", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("store")))

	n, err := testutil.GatherAndCount(reg, "pricewise_competitors_listings")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewPanicsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
