package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iota-uz/ats-console/pkg/routing"
)

// HTTP holds request collectors labelled by route class, which keeps the
// label set bounded regardless of workflow IDs in paths.
type HTTP struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ats_console",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served by the console by route class and status code.",
		}, []string{"class", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ats_console",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route class.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"class"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.latency)
	}
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the hijacker underneath.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (m *HTTP) Middleware(classifier *routing.Classifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := classifier.ClassifyPath(r.URL.Path)
			if class == routing.RouteClassWebsocket {
				// upgrades need the raw writer
				next.ServeHTTP(w, r)
				m.requests.WithLabelValues(string(class), "101").Inc()
				return
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			m.requests.WithLabelValues(string(class), strconv.Itoa(status)).Inc()
			m.latency.WithLabelValues(string(class)).Observe(time.Since(start).Seconds())
		})
	}
}

// RegisterGauges exposes live counts of sessions and websocket tabs.
func RegisterGauges(reg prometheus.Registerer, sessions, sockets func() int) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "ats_console",
			Name:      "sessions_active",
			Help:      "Browser sessions currently held in memory.",
		}, func() float64 { return float64(sessions()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "ats_console",
			Name:      "websocket_connections",
			Help:      "Open invalidation websocket connections.",
		}, func() float64 { return float64(sockets()) }),
	)
}
