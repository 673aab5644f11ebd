package itf

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Backend is a scripted stand-in for the hiring platform API. Routes are
// keyed by "METHOD /path"; unknown routes answer 404.
type Backend struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	calls  map[string]int
}

func NewBackend(tb testing.TB) *Backend {
	tb.Helper()
	b := &Backend{
		routes: map[string]http.HandlerFunc{},
		calls:  map[string]int{},
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	tb.Cleanup(b.Close)
	return b
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	b.mu.Lock()
	h, ok := b.routes[key]
	b.calls[key]++
	b.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func (b *Backend) Handle(method, path string, h http.HandlerFunc) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = h
	return b
}

// JSON answers GET path with a fixed status and body.
func (b *Backend) JSON(path string, status int, body string) *Backend {
	return b.Handle(http.MethodGet, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

// Calls counts requests for "METHOD /path".
func (b *Backend) Calls(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+path]
}

// Me scripts /me for an identity with the given effective language and scopes.
func (b *Backend) Me(language string, scopes ...string) *Backend {
	return b.Handle(http.MethodGet, "/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		quoted := make([]string, len(scopes))
		for i, s := range scopes {
			quoted[i] = `"` + s + `"`
		}
		_, _ = io.WriteString(w, `{"organization_id":"`+r.Header.Get("X-Org-Id")+
			`","user_id":"`+r.Header.Get("X-User-Id")+
			`","scopes":[`+strings.Join(quoted, ",")+`],"effective_language":"`+language+`"}`)
	})
}

