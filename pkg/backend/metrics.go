package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ats_console",
		Subsystem: "backend",
		Name:      "requests_total",
		Help:      "Total number of hiring backend requests broken down by endpoint and result kind.",
	}, []string{"endpoint", "result"})

	backendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ats_console",
		Subsystem: "backend",
		Name:      "latency_seconds",
		Help:      "Latency distribution for hiring backend requests.",
		Buckets: []float64{
			0.005, 0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5, 10, 30,
		},
	}, []string{"endpoint"})
)

func observeRequest(endpoint string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = string(KindOf(err))
	}
	backendRequests.WithLabelValues(endpoint, result).Inc()
	backendLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}
