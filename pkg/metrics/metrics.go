// Package metrics exposes Prometheus collectors for the buffer cache
// and page allocator, grounded on the pack's own use of
// prometheus/client_golang as the de facto metrics library for
// storage-engine-adjacent Go services.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// BufferCache counts cache outcomes. All four counters are safe for
// concurrent use; the caches increment them directly, mostly after
// releasing their own locks, with no separate lock around the metrics.
type BufferCache struct {
	Hits      prometheus.Counter
	Misses    prometheus.Counter
	Evictions prometheus.Counter
	Steals    prometheus.Counter
}

// NewBufferCache registers and returns a BufferCache metric set. reg
// may be nil, in which case the counters are created but never
// registered — useful for tests that don't want a global registry.
func NewBufferCache(reg prometheus.Registerer) *BufferCache {
	m := &BufferCache{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rescore_buffer_cache_hits_total",
			Help: "Number of bread calls satisfied without an eviction.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rescore_buffer_cache_misses_total",
			Help: "Number of bread calls that required recycling a buffer.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rescore_buffer_cache_evictions_total",
			Help: "Number of buffers rebound to a new (dev, blockno).",
		}),
		Steals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rescore_buffer_cache_cross_bucket_steals_total",
			Help: "Number of evictions that moved a buffer across buckets.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Evictions, m.Steals)
	}
	return m
}

// PageAllocator tracks per-hart free-list depth.
type PageAllocator struct {
	FreeFrames *prometheus.GaugeVec
	Steals     prometheus.Counter
}

// NewPageAllocator registers and returns a PageAllocator metric set.
func NewPageAllocator(reg prometheus.Registerer) *PageAllocator {
	m := &PageAllocator{
		FreeFrames: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rescore_page_allocator_free_frames",
			Help: "Frames currently resident on a hart's free list.",
		}, []string{"hart"}),
		Steals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rescore_page_allocator_steals_total",
			Help: "Number of allocations satisfied from another hart's free list.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.FreeFrames, m.Steals)
	}
	return m
}
