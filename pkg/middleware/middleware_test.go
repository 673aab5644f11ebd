package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/composables"
	"github.com/iota-uz/ats-console/pkg/constants"
	"github.com/iota-uz/ats-console/pkg/httpapi"
	"github.com/iota-uz/ats-console/pkg/intl"
	"github.com/iota-uz/ats-console/pkg/invalidation"
	"github.com/iota-uz/ats-console/pkg/middleware"
	"github.com/iota-uz/ats-console/pkg/session"
	"github.com/iota-uz/ats-console/pkg/types"
)

type stack struct {
	app     application.Application
	uxCalls int32
	uxFail  atomic.Bool
	cookies middleware.IdentityCookies
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newStack(t *testing.T, uxTTL ...time.Duration) *stack {
	t.Helper()
	st := &stack{cookies: middleware.DefaultIdentityCookies()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/me":
			_, _ = io.WriteString(w, `{"organization_id":"org-1","user_id":"user-1","scopes":["ux:admin"],"effective_language":"nl"}`)
		case "/ux/dashboard":
			atomic.AddInt32(&st.uxCalls, 1)
			if st.uxFail.Load() {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = io.WriteString(w, `{"module":"dashboard","config":{"theme":"light","layout":"compact"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	client, err := backend.New(srv.URL)
	require.NoError(t, err)
	bus := invalidation.NewLocalBus(quietLogger())
	opts := session.Options{Backend: client, Bus: bus, Logger: quietLogger()}
	if len(uxTTL) > 0 {
		opts.UXTTL = uxTTL[0]
	}
	sessions := session.NewManager(opts)
	t.Cleanup(sessions.Stop)

	bundle := i18n.NewBundle(language.English)
	bundle.MustAddMessages(language.English,
		&i18n.Message{ID: "NavigationLinks.Dashboard", Other: "Dashboard"},
		&i18n.Message{ID: "NavigationLinks.UX", Other: "UX settings"},
	)
	bundle.MustAddMessages(language.Dutch,
		&i18n.Message{ID: "NavigationLinks.Dashboard", Other: "Overzicht"},
		&i18n.Message{ID: "NavigationLinks.UX", Other: "UX-instellingen"},
	)
	st.app = application.New(&application.ApplicationOptions{
		Logger:   quietLogger(),
		Bus:      bus,
		Sessions: sessions,
		Bundle:   bundle,
	})
	st.app.RegisterNavItems(
		types.NavigationItem{Name: "NavigationLinks.Dashboard", Href: "/dashboard"},
		types.NavigationItem{Name: "NavigationLinks.UX", Href: "/admin/ux/dashboard", Scopes: []string{"ux:admin"}},
	)
	return st
}

func (st *stack) router(h http.HandlerFunc) *mux.Router {
	r := mux.NewRouter()
	r.Use(
		middleware.WithLogger(quietLogger(), middleware.DefaultLoggerOptions()),
		middleware.Provide(constants.AppKey, st.app),
		middleware.RequestParams("X-Real-IP", st.cookies),
		middleware.ProvideSession(st.app.Sessions(), st.cookies),
		middleware.ResolveIdentity(),
		middleware.ProvideLocalizer(st.app),
		middleware.WithPageContext(),
		middleware.NavItems(),
	)
	page := r.PathPrefix("/dashboard").Subrouter()
	page.Use(middleware.ProvideUXConfig("dashboard"))
	page.HandleFunc("", h)
	r.HandleFunc("/api/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	r.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	return r
}

func (st *stack) request(path string, identified bool) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if identified {
		req.AddCookie(&http.Cookie{Name: st.cookies.Org, Value: "org-1"})
		req.AddCookie(&http.Cookie{Name: st.cookies.User, Value: "user-1"})
	}
	return req
}

func TestStack_IdentifiedPage(t *testing.T) {
	st := newStack(t)
	var (
		locale language.Tag
		theme  backend.Theme
		layout backend.Layout
		nav    []types.NavigationItem
		ident  bool
	)
	r := st.router(func(w http.ResponseWriter, r *http.Request) {
		locale, _ = intl.UseLocale(r.Context())
		pageCtx := composables.UsePageCtx(r.Context())
		theme, layout = pageCtx.Theme(), pageCtx.Layout()
		nav = middleware.UseNavItems(r.Context())
		ident = composables.UseIdentified(r.Context())
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, st.request("/dashboard", true))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	assert.Equal(t, language.Dutch, locale)
	assert.Equal(t, backend.ThemeLight, theme)
	assert.Equal(t, backend.LayoutCompact, layout)
	assert.True(t, ident)
	require.Len(t, nav, 2)
	assert.Equal(t, "Overzicht", nav[0].Name)
	assert.Equal(t, "UX-instellingen", nav[1].Name)
}

func TestStack_AnonymousPageUsesDefaults(t *testing.T) {
	st := newStack(t)
	var (
		locale language.Tag
		theme  backend.Theme
		nav    []types.NavigationItem
	)
	r := st.router(func(w http.ResponseWriter, r *http.Request) {
		locale, _ = intl.UseLocale(r.Context())
		theme = composables.UsePageCtx(r.Context()).Theme()
		nav = middleware.UseNavItems(r.Context())
	})

	r.ServeHTTP(httptest.NewRecorder(), st.request("/dashboard", false))

	assert.Equal(t, language.English, locale)
	assert.Equal(t, backend.ThemeDark, theme)
	require.Len(t, nav, 1, "scoped entries need an identity")
	assert.Equal(t, "Dashboard", nav[0].Name)
	assert.Equal(t, int32(0), atomic.LoadInt32(&st.uxCalls))
}

func TestStack_UXFallsBackToLastCachedValue(t *testing.T) {
	st := newStack(t, 20*time.Millisecond)
	var theme backend.Theme
	r := st.router(func(w http.ResponseWriter, r *http.Request) {
		theme = composables.UsePageCtx(r.Context()).Theme()
	})

	r.ServeHTTP(httptest.NewRecorder(), st.request("/dashboard", true))
	require.Equal(t, backend.ThemeLight, theme)

	time.Sleep(40 * time.Millisecond)
	st.uxFail.Store(true)

	theme = ""
	r.ServeHTTP(httptest.NewRecorder(), st.request("/dashboard", true))
	assert.Equal(t, backend.ThemeLight, theme, "stale value survives a failed refresh")
	assert.Equal(t, int32(2), atomic.LoadInt32(&st.uxCalls))

	s, ok := st.app.Sessions().Peek("org-1", "user-1")
	require.True(t, ok)
	require.NoError(t, s.UX.Invalidate("org-1", "user-1", "dashboard"))

	theme = ""
	r.ServeHTTP(httptest.NewRecorder(), st.request("/dashboard", true))
	assert.Equal(t, backend.ThemeDark, theme, "nothing cached after invalidation")
}

func TestWithLogger_PanicOnAPIRouteAnswersJSON(t *testing.T) {
	st := newStack(t)
	r := st.router(func(http.ResponseWriter, *http.Request) {})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, st.request("/api/boom", false))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	var env httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", env.Code)
	assert.Equal(t, "/api/boom", env.Meta["path"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, st.request("/boom", false))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestRateLimit(t *testing.T) {
	h := middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerPeriod: 2,
		Period:            time.Minute,
		Store:             middleware.NewMemoryStore(),
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/ux/dashboard", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/api/ux/dashboard", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code, "budgets are per client")
}

func TestCors(t *testing.T) {
	h := middleware.Cors("http://localhost:3000")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/ux/dashboard", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
