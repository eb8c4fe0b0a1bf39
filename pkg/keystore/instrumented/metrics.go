// Package instrumented wraps any credential store so that every operation is
// counted and timed with Prometheus metrics.
//
// Wrapped credentials return the wrapped credential's Underlying value, so
// keyring.CredentialAs sees the store-specific type through the wrapper.
package instrumented

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/systmms/keyring/pkg/credential"
)

// Operation names used as the "op" label.
const (
	OpBuild       = "build"
	OpSetPassword = "set_password"
	OpSetSecret   = "set_secret"
	OpGetPassword = "get_password"
	OpGetSecret   = "get_secret"
	OpDelete      = "delete"
)

// Metrics holds the collectors shared by every wrapped store.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyring_operations_total",
				Help: "Total number of credential store operations by result",
			},
			[]string{"store", "op", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyring_operation_duration_seconds",
				Help:    "Duration of credential store operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"store", "op"},
		),
	}
}

// DefaultMetrics returns metrics registered with the default Prometheus
// registry. They are created on first use.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// Operations returns the operation counter for testing.
func (m *Metrics) Operations() *prometheus.CounterVec {
	return m.operations
}

// Duration returns the duration histogram for testing.
func (m *Metrics) Duration() *prometheus.HistogramVec {
	return m.duration
}

func (m *Metrics) observe(store, op string, start time.Time, err error) {
	m.operations.WithLabelValues(store, op, credential.KindOf(err).String()).Inc()
	m.duration.WithLabelValues(store, op).Observe(time.Since(start).Seconds())
}
