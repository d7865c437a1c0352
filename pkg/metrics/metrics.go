package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FollowerQueueDepth tracks how many SendRequests are currently
	// buffered in a follower's BoundedQueue. A follower stuck near
	// capacity is the leading indicator of drops.
	FollowerQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "raftlog_follower_queue_depth",
			Help: "Number of SendRequests currently buffered per follower queue",
		},
		[]string{"follower"},
	)

	// FollowerQueueDroppedTotal counts requests dropped at Offer time
	// because a follower's queue was full.
	FollowerQueueDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raftlog_follower_queue_dropped_total",
			Help: "Total SendRequests dropped because a follower's queue was full",
		},
		[]string{"follower"},
	)

	// BatchSize observes how many SendRequests end up in one drained
	// batch, the signal for how well opportunistic draining is adapting
	// to load.
	BatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raftlog_batch_size",
			Help:    "Number of SendRequests drained into one AppendEntries batch",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		},
		[]string{"follower"},
	)

	// LogInQueue is the LOG_IN_QUEUE timing sample: time between a log
	// entry's creation and the worker picking it up.
	LogInQueue = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raftlog_log_in_queue_seconds",
			Help:    "Time a SendRequest spent queued before a worker began processing it",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"follower"},
	)

	// FromCreateToEnd is the FROM_CREATE_TO_END timing sample: time from
	// log entry creation to dispatch completing.
	FromCreateToEnd = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raftlog_from_create_to_end_seconds",
			Help:    "Time from log entry creation to the dispatch worker finishing its send",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"follower", "path"},
	)

	// SyncTransportErrorsTotal counts sync-path AppendEntries failures.
	SyncTransportErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raftlog_sync_transport_errors_total",
			Help: "Total sync-path AppendEntries RPC failures",
		},
		[]string{"follower"},
	)

	// PrevLogWaitTimeoutsTotal counts sync-path predecessor-wait timeouts
	// that caused a batch to be abandoned.
	PrevLogWaitTimeoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raftlog_prev_log_wait_timeouts_total",
			Help: "Total sync-path WaitForPrevLog timeouts that caused a batch to be abandoned",
		},
		[]string{"follower"},
	)

	// SerializationErrorsTotal counts log.Serialize() failures.
	SerializationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raftlog_serialization_errors_total",
			Help: "Total log entry serialization failures in a dispatch worker",
		},
		[]string{"follower"},
	)
)

func init() {
	prometheus.MustRegister(FollowerQueueDepth)
	prometheus.MustRegister(FollowerQueueDroppedTotal)
	prometheus.MustRegister(BatchSize)
	prometheus.MustRegister(LogInQueue)
	prometheus.MustRegister(FromCreateToEnd)
	prometheus.MustRegister(SyncTransportErrorsTotal)
	prometheus.MustRegister(PrevLogWaitTimeoutsTotal)
	prometheus.MustRegister(SerializationErrorsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
