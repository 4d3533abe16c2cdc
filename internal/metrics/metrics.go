// Package metrics defines the Prometheus instruments exported by lvmpool.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation results used as the "result" label.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// External command metrics
	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lvmpool_command_duration_seconds",
			Help:    "Duration of external LVM command invocations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	CommandFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lvmpool_command_failures_total",
			Help: "Total number of failed external LVM commands by reason",
		},
		[]string{"command", "reason"},
	)

	// Lifecycle metrics
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lvmpool_operations_total",
			Help: "Total number of pool and volume operations by result",
		},
		[]string{"operation", "result"},
	)

	// Pool capacity, refreshed on every pool read
	PoolCapacityBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lvmpool_pool_capacity_bytes",
			Help: "Total pool capacity in bytes as last read from LVM",
		},
		[]string{"pool"},
	)

	PoolUsedBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lvmpool_pool_used_bytes",
			Help: "Used pool capacity in bytes as last read from LVM",
		},
		[]string{"pool"},
	)
)

func init() {
	prometheus.MustRegister(CommandDuration)
	prometheus.MustRegister(CommandFailures)
	prometheus.MustRegister(OperationsTotal)
	prometheus.MustRegister(PoolCapacityBytes)
	prometheus.MustRegister(PoolUsedBytes)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveOperation counts a finished lifecycle operation.
func ObserveOperation(operation string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	OperationsTotal.WithLabelValues(operation, result).Inc()
}

// SetPoolUsage records the last observed capacity of a pool.
func SetPoolUsage(pool string, capacity, used uint64) {
	PoolCapacityBytes.WithLabelValues(pool).Set(float64(capacity))
	PoolUsedBytes.WithLabelValues(pool).Set(float64(used))
}

// ForgetPool drops the gauges of a removed pool.
func ForgetPool(pool string) {
	PoolCapacityBytes.DeleteLabelValues(pool)
	PoolUsedBytes.DeleteLabelValues(pool)
}

// Timer measures the duration of one operation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the time elapsed since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in seconds on o.
func (t *Timer) ObserveDuration(o prometheus.Observer) {
	o.Observe(t.Duration().Seconds())
}
