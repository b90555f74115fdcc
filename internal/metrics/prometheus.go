package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the node
type Metrics struct {
	// Coordinated operation metrics
	WriteRequestsTotal       prometheus.Counter
	WriteRequestsDuration    prometheus.Histogram
	WriteQuorumFailuresTotal prometheus.Counter
	ReadRequestsTotal        prometheus.Counter
	ReadRequestsDuration     prometheus.Histogram
	ReadQuorumFailuresTotal  prometheus.Counter

	// Internal peer API metrics
	InternalWritesTotal prometheus.Counter
	InternalReadsTotal  prometheus.Counter

	// Durability metrics
	StoreEntriesTotal  prometheus.Gauge
	CommitLogSizeBytes prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(nodeID string) *Metrics {
	labels := prometheus.Labels{"node_id": nodeID}

	return &Metrics{
		WriteRequestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "quorumkv",
			Subsystem:   "coordinator",
			Name:        "write_requests_total",
			Help:        "Total number of coordinated write requests",
			ConstLabels: labels,
		}),
		WriteRequestsDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "quorumkv",
			Subsystem:   "coordinator",
			Name:        "write_requests_duration_seconds",
			Help:        "Histogram of coordinated write durations",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		WriteQuorumFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "quorumkv",
			Subsystem:   "coordinator",
			Name:        "write_quorum_failures_total",
			Help:        "Total number of writes failing the write quorum",
			ConstLabels: labels,
		}),
		ReadRequestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "quorumkv",
			Subsystem:   "coordinator",
			Name:        "read_requests_total",
			Help:        "Total number of coordinated read requests",
			ConstLabels: labels,
		}),
		ReadRequestsDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "quorumkv",
			Subsystem:   "coordinator",
			Name:        "read_requests_duration_seconds",
			Help:        "Histogram of coordinated read durations",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		ReadQuorumFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "quorumkv",
			Subsystem:   "coordinator",
			Name:        "read_quorum_failures_total",
			Help:        "Total number of reads failing the read quorum",
			ConstLabels: labels,
		}),
		InternalWritesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "quorumkv",
			Subsystem:   "storage",
			Name:        "internal_writes_total",
			Help:        "Total number of internal writes applied locally",
			ConstLabels: labels,
		}),
		InternalReadsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "quorumkv",
			Subsystem:   "storage",
			Name:        "internal_reads_total",
			Help:        "Total number of internal reads served locally",
			ConstLabels: labels,
		}),
		StoreEntriesTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "quorumkv",
			Subsystem:   "storage",
			Name:        "store_entries_total",
			Help:        "Current number of records in the local store",
			ConstLabels: labels,
		}),
		CommitLogSizeBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "quorumkv",
			Subsystem:   "storage",
			Name:        "commitlog_size_bytes",
			Help:        "Current commit log size in bytes",
			ConstLabels: labels,
		}),
	}
}

// RecordWriteRequest records a coordinated write
func (m *Metrics) RecordWriteRequest(duration float64, success bool) {
	m.WriteRequestsTotal.Inc()
	m.WriteRequestsDuration.Observe(duration)
	if !success {
		m.WriteQuorumFailuresTotal.Inc()
	}
}

// RecordReadRequest records a coordinated read
func (m *Metrics) RecordReadRequest(duration float64, success bool) {
	m.ReadRequestsTotal.Inc()
	m.ReadRequestsDuration.Observe(duration)
	if !success {
		m.ReadQuorumFailuresTotal.Inc()
	}
}

// RecordInternalWrite records a locally applied internal write
func (m *Metrics) RecordInternalWrite() {
	m.InternalWritesTotal.Inc()
}

// RecordInternalRead records a locally served internal read
func (m *Metrics) RecordInternalRead() {
	m.InternalReadsTotal.Inc()
}

// UpdateStorageStats updates store and commit log gauges
func (m *Metrics) UpdateStorageStats(entries int, logBytes int64) {
	m.StoreEntriesTotal.Set(float64(entries))
	m.CommitLogSizeBytes.Set(float64(logBytes))
}
