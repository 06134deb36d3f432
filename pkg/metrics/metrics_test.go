package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestNewBufferCacheWithNilRegistryDoesNotPanic(t *testing.T) {
	m := NewBufferCache(nil)
	m.Hits.Inc()
	require.Equal(t, float64(1), counterValue(t, m.Hits))
}

func TestNewBufferCacheRegistersAllCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBufferCache(reg)
	m.Hits.Inc()
	m.Misses.Inc()
	m.Evictions.Inc()
	m.Steals.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 4)
}

func TestNewPageAllocatorRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPageAllocator(reg)
	m.FreeFrames.WithLabelValues("0").Set(4096)
	m.Steals.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 2)
}
