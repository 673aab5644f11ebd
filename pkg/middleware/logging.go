package middleware

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/ats-console/pkg/constants"
	"github.com/iota-uz/ats-console/pkg/httpapi"
	"github.com/iota-uz/ats-console/pkg/routing"
)

type LoggerOptions struct {
	// LogRequestBody logs form and JSON bodies of mutating requests at
	// debug level, cut to MaxBodyLength.
	LogRequestBody  bool
	MaxBodyLength   int
	RequestIDHeader string
	RealIPHeader    string
	// Classifier decides whether a recovered panic answers with JSON.
	// Nil uses the embedded allowlist.
	Classifier *routing.Classifier
}

func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{
		LogRequestBody:  true,
		MaxBodyLength:   512,
		RequestIDHeader: "X-Request-ID",
		RealIPHeader:    "X-Real-IP",
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack keeps the /ws upgrade working behind the logger.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func headerOr(r *http.Request, header, fallback string) string {
	if header != "" {
		if v := r.Header.Get(header); v != "" {
			return v
		}
	}
	return fallback
}

// realIP trusts the proxy header when present.
func realIP(r *http.Request, header string) string {
	return headerOr(r, header, r.RemoteAddr)
}

var tracer = otel.Tracer("ats-console-middleware")

func TracedMiddleware(name string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "middleware."+name,
				trace.WithAttributes(
					attribute.String("middleware.name", name),
					attribute.String("http.method", r.Method),
					attribute.String("http.route", r.URL.Path),
				),
			)
			defer span.End()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// redactedHeaders flattens h for logging. Identity cookies never reach logs.
func redactedHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) == 0 {
			continue
		}
		if strings.EqualFold(key, "Cookie") || strings.EqualFold(key, "Set-Cookie") {
			out[key] = "[redacted]"
			continue
		}
		out[key] = values[0]
	}
	return out
}

// logBody logs the body of a form or JSON write and restores it for the
// handler.
func logBody(log *logrus.Entry, r *http.Request, limit int) error {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return nil
	}
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if r.Body == nil || !(strings.Contains(ct, "application/json") || strings.Contains(ct, "application/x-www-form-urlencoded")) {
		return nil
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	body := string(raw)
	if limit > 0 && len(body) > limit {
		body = body[:limit] + "..."
	}
	log.WithField("request-body", body).Debug("request body")
	return nil
}

// WithLogger stores a request-scoped *logrus.Entry in the context, opens
// the root span, echoes X-Request-Id and recovers panics. Panics on API
// routes answer with the JSON error envelope, pages with a plain 500.
func WithLogger(logger *logrus.Logger, opts LoggerOptions) mux.MiddlewareFunc {
	classifier := opts.Classifier
	if classifier == nil {
		classifier = routing.NewClassifier(nil)
	}
	propagator := propagation.TraceContext{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := headerOr(r, opts.RequestIDHeader, uuid.NewString())
			ip := realIP(r, opts.RealIPHeader)
			class := classifier.Classify(r)

			log := logger.WithFields(logrus.Fields{
				"request-id":  requestID,
				"path":        r.RequestURI,
				"method":      r.Method,
				"route-class": string(class),
			})
			log.WithFields(logrus.Fields{
				"ip":              ip,
				"user-agent":      r.UserAgent(),
				"request-headers": redactedHeaders(r.Header),
			}).Debug("request started")

			if opts.LogRequestBody {
				if err := logBody(log, r, opts.MaxBodyLength); err != nil {
					log.WithError(err).Error("failed to read request body")
					http.Error(w, "failed to read request body", http.StatusInternalServerError)
					return
				}
			}

			ctx, span := tracer.Start(
				propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header)),
				"http.request",
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", r.URL.Path),
					attribute.String("http.route_class", string(class)),
					attribute.String("http.request_id", requestID),
					attribute.String("net.peer.ip", ip),
				),
			)
			defer span.End()
			if sc := span.SpanContext(); sc.HasTraceID() {
				w.Header().Set("X-Trace-Id", sc.TraceID().String())
				log = log.WithField("trace-id", sc.TraceID().String())
			}
			ctx = context.WithValue(ctx, constants.LoggerKey, log)
			propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))
			w.Header().Set("X-Request-Id", requestID)

			sw := &statusWriter{ResponseWriter: w}
			defer recoverRequest(log, sw, r, class, requestID)

			next.ServeHTTP(sw, r.WithContext(ctx))

			status := sw.Status()
			span.SetAttributes(attribute.Int("http.status_code", status))
			entry := log.WithFields(logrus.Fields{
				"duration":    time.Since(start),
				"status-code": status,
			})
			if status >= http.StatusInternalServerError {
				entry.Warn("request completed")
			} else {
				entry.Info("request completed")
			}
		})
	}
}

func recoverRequest(log *logrus.Entry, w *statusWriter, r *http.Request, class routing.RouteClass, requestID string) {
	recovered := recover()
	if recovered == nil {
		return
	}
	log.WithFields(logrus.Fields{
		"panic": recovered,
		"stack": string(debug.Stack()),
		"query": r.URL.RawQuery,
	}).Error("panic recovered in request handler")
	if w.status != 0 {
		return
	}
	if class.IsAPI() {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error",
			map[string]string{"request_id": requestID, "path": r.URL.Path})
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
