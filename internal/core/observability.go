package core

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation outcomes reported to metrics recorders.
const (
	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// MetricsRecorder receives one observation per store operation. Recorders
// must be safe for use by multiple stores.
type MetricsRecorder interface {
	ObserveOperation(op string, outcome string, duration time.Duration)
}

var expvarSeq uint64

// ExpvarMetricsRecorder publishes aggregate timing and outcome counters via
// expvar, for deployments that prefer process-local metrics without external
// dependencies. Totals are kept in milliseconds per operation.
type ExpvarMetricsRecorder struct {
	name      string
	mu        sync.Mutex
	durations map[string]float64
	outcomes  map[string]map[string]int64
}

// ExpvarMetricsSnapshot captures a read-only view of the recorded metrics.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Outcomes    map[string]map[string]int64 `json:"outcomes_total"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder constructs an expvar-backed recorder and publishes
// it under the supplied name. When name is empty, a unique identifier is
// generated.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("data_product_metrics_%d", id)
	}
	rec := &ExpvarMetricsRecorder{
		name:      name,
		durations: make(map[string]float64),
		outcomes:  make(map[string]map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Snapshot returns an immutable copy of the aggregated metrics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	durations := make(map[string]float64, len(r.durations))
	for op, total := range r.durations {
		durations[op] = total
	}
	outcomes := make(map[string]map[string]int64, len(r.outcomes))
	for op, counts := range r.outcomes {
		cpy := make(map[string]int64, len(counts))
		for outcome, count := range counts {
			cpy[outcome] = count
		}
		outcomes[op] = cpy
	}
	return ExpvarMetricsSnapshot{
		DurationsMS: durations,
		Outcomes:    outcomes,
		RecordedAt:  time.Now().UTC(),
	}
}

// ObserveOperation records a store operation outcome.
func (r *ExpvarMetricsRecorder) ObserveOperation(op, outcome string, duration time.Duration) {
	if op == "" {
		return
	}
	ms := float64(duration) / float64(time.Millisecond)
	r.mu.Lock()
	r.durations[op] += ms
	if _, ok := r.outcomes[op]; !ok {
		r.outcomes[op] = make(map[string]int64, 3)
	}
	r.outcomes[op][outcome]++
	r.mu.Unlock()
}

// PrometheusMetricsRecorder exposes operation counters and latency histograms
// on a private Prometheus registry. The registry can be mounted by the host
// process or scraped through Gather in tests.
type PrometheusMetricsRecorder struct {
	registry  *prometheus.Registry
	ops       *prometheus.CounterVec
	latencies *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder builds a recorder with its own registry under
// the supplied namespace.
func NewPrometheusMetricsRecorder(namespace string) *PrometheusMetricsRecorder {
	if namespace == "" {
		namespace = "datamesh"
	}
	rec := &PrometheusMetricsRecorder{
		registry: prometheus.NewRegistry(),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Store operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		latencies: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Store operation latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	rec.registry.MustRegister(rec.ops, rec.latencies)
	return rec
}

// Registry returns the private registry holding the recorder's collectors.
func (r *PrometheusMetricsRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveOperation records a store operation outcome.
func (r *PrometheusMetricsRecorder) ObserveOperation(op, outcome string, duration time.Duration) {
	if op == "" {
		return
	}
	r.ops.WithLabelValues(op, outcome).Inc()
	r.latencies.WithLabelValues(op).Observe(duration.Seconds())
}
