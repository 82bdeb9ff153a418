package nlxd

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the optional collectors registered by WithMetrics. A nil
// *metrics records nothing.
type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	operationsTotal *prometheus.CounterVec
	waitDuration    prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlxd_requests_total",
				Help: "Total number of requests sent to the daemon by method, transport and outcome",
			},
			[]string{"method", "transport", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nlxd_request_duration_seconds",
				Help:    "Daemon request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "transport"},
		),
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlxd_operations_total",
				Help: "Total number of awaited operations by terminal state",
			},
			[]string{"state"},
		),
		waitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nlxd_operation_wait_seconds",
				Help:    "Time spent waiting for operations to finish",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
	}

	for _, c := range []prometheus.Collector{m.requestsTotal, m.requestDuration, m.operationsTotal, m.waitDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) observeRequest(method, transport, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, transport, outcome).Inc()
	m.requestDuration.WithLabelValues(method, transport).Observe(d.Seconds())
}

func (m *metrics) observeOperation(state OperationState, d time.Duration) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(state.String()).Inc()
	m.waitDuration.Observe(d.Seconds())
}
