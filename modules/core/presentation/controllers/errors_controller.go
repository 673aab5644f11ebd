package controllers

import (
	"net/http"
	"strings"

	"github.com/iota-uz/ats-console/modules/core/presentation/templates/pages/error_pages"
	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/httpapi"
	"github.com/iota-uz/ats-console/pkg/middleware"
	"github.com/iota-uz/ats-console/pkg/routing"
)

type ErrorHandlersOptions struct {
	Entrypoint    string
	AllowlistPath string
}

// fallback answers requests no route matched. API classes get the JSON
// envelope; pages get html.
type fallback struct {
	classifier *routing.Classifier
	status     int
	code       string
	message    string
	page       http.Handler
}

func newFallback(opts []ErrorHandlersOptions, status int, code, message string, page http.Handler) *fallback {
	var o ErrorHandlersOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	rules, err := routing.LoadAllowlist(o.AllowlistPath, o.Entrypoint)
	if err != nil {
		rules = nil
	}
	return &fallback{
		classifier: routing.NewClassifier(rules),
		status:     status,
		code:       code,
		message:    message,
		page:       page,
	}
}

func (f *fallback) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !f.classifier.Classify(r).IsAPI() {
		f.page.ServeHTTP(w, r)
		return
	}
	meta := map[string]string{"path": r.URL.Path}
	if f.status == http.StatusMethodNotAllowed {
		meta["method"] = r.Method
	}
	if id := requestID(w, r); id != "" {
		meta["request_id"] = id
	}
	_ = httpapi.WriteError(w, f.status, f.code, f.message, meta)
}

// NotFound renders the localized 404 page outside API prefixes.
func NotFound(app application.Application, opts ...ErrorHandlersOptions) http.Handler {
	page := middleware.ProvideLocalizer(app)(middleware.WithPageContext()(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			if err := error_pages.NotFoundContent().Render(r.Context(), w); err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		},
	)))
	return newFallback(opts, http.StatusNotFound, "NOT_FOUND", "not found", page)
}

func MethodNotAllowed(opts ...ErrorHandlersOptions) http.Handler {
	page := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	return newFallback(opts, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", page)
}

// requestID prefers the id the logger already echoed on the response.
func requestID(w http.ResponseWriter, r *http.Request) string {
	if id := strings.TrimSpace(w.Header().Get("X-Request-Id")); id != "" {
		return id
	}
	return strings.TrimSpace(r.Header.Get("X-Request-Id"))
}
