// Package metrics provides Prometheus metrics for the eFIND core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for one eFIND index instance.
// It is owned by the Index and threaded through explicitly — per §9
// design notes, the core keeps no process-wide mutable statistics.
type Metrics struct {
	// Write buffer.
	WriteBufferBytes     prometheus.Gauge
	WriteBufferEntries   prometheus.Gauge
	BufferOverflowsTotal prometheus.Counter

	// Flushing manager.
	FlushesTotal       *prometheus.CounterVec // label: trigger=overflow|explicit|shutdown
	FlushBytesTotal    prometheus.Counter
	FlushPagesTotal    prometheus.Counter
	FlushDuration      prometheus.Histogram
	UnnecessaryFlushed prometheus.Counter

	// Read buffer.
	ReadBufferHitsTotal   prometheus.Counter
	ReadBufferMissesTotal prometheus.Counter
	ReadBufferEntries     prometheus.Gauge
	CacheTooSmallTotal    prometheus.Counter

	// Temporal control.
	TemporalSeqTotal    prometheus.Counter
	TemporalStrideTotal prometheus.Counter
	TemporalMixedTotal  prometheus.Counter
	TemporalFilledTotal prometheus.Counter

	// Durability log.
	LogAppendsTotal    prometheus.Counter
	CompactionsTotal   prometheus.Counter
	CompactionDuration prometheus.Histogram
	LogSizeBytes       prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus collectors against the
// default registerer. namespace disambiguates multiple eFIND indices
// registered in the same process (e.g. one per open tree).
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "efind"
	}
	return newMetrics(promauto.With(prometheus.DefaultRegisterer), namespace)
}

// NewUnregisteredMetrics builds a Metrics struct backed by a private
// registry, for tests that create many short-lived Index instances and
// would otherwise collide on collector names in the default registry.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics(promauto.With(prometheus.NewRegistry()), "efind")
}

func newMetrics(factory promauto.Factory, namespace string) *Metrics {
	m := &Metrics{}

	m.WriteBufferBytes = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "writebuffer", Name: "bytes",
		Help: "Current accounted byte size of the write buffer.",
	})
	m.WriteBufferEntries = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "writebuffer", Name: "entries",
		Help: "Current number of pages resident in the write buffer.",
	})
	m.BufferOverflowsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "writebuffer", Name: "overflows_total",
		Help: "Number of synchronous flushes triggered by the byte budget.",
	})

	m.FlushesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "flush", Name: "total",
		Help: "Number of flushing-unit writes, by trigger.",
	}, []string{"trigger"})
	m.FlushBytesTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "flush", Name: "bytes_total",
		Help: "Total bytes written by flushing units.",
	})
	m.FlushPagesTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "flush", Name: "pages_total",
		Help: "Total pages written by flushing units.",
	})
	m.FlushDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "flush", Name: "duration_seconds",
		Help:    "Duration of a single flushing-unit write.",
		Buckets: prometheus.DefBuckets,
	})
	m.UnnecessaryFlushed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "flush", Name: "unnecessary_total",
		Help: "Candidates chosen for flushing that were no longer buffered.",
	})

	m.ReadBufferHitsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "readbuffer", Name: "hits_total",
		Help: "Read buffer hits.",
	})
	m.ReadBufferMissesTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "readbuffer", Name: "misses_total",
		Help: "Read buffer misses.",
	})
	m.ReadBufferEntries = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "readbuffer", Name: "entries",
		Help: "Current number of pages resident in the read buffer.",
	})
	m.CacheTooSmallTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "readbuffer", Name: "cache_too_small_total",
		Help: "put() calls refused because the page exceeds buffer capacity.",
	})

	m.TemporalSeqTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "temporal", Name: "seq_total",
		Help: "Write-control selections favoring the sequential candidate set.",
	})
	m.TemporalStrideTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "temporal", Name: "stride_total",
		Help: "Write-control selections favoring the stride candidate set.",
	})
	m.TemporalMixedTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "temporal", Name: "mixed_total",
		Help: "Write-control selections favoring the union of seq and stride.",
	})
	m.TemporalFilledTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "temporal", Name: "filled_total",
		Help: "Write-control passes that could not improve on the raw candidates.",
	})

	m.LogAppendsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "durlog", Name: "appends_total",
		Help: "Durability log records appended.",
	})
	m.CompactionsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "durlog", Name: "compactions_total",
		Help: "Durability log compaction passes.",
	})
	m.CompactionDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "durlog", Name: "compaction_duration_seconds",
		Help:    "Duration of a compaction pass.",
		Buckets: prometheus.DefBuckets,
	})
	m.LogSizeBytes = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "durlog", Name: "size_bytes",
		Help: "Current on-disk size of the durability log.",
	})

	return m
}
