// Package itf builds a console wired to a scripted backend for HTTP-level
// tests of modules.
package itf

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/ats-console/internal/server"
	"github.com/iota-uz/ats-console/modules/core/presentation/controllers"
	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/configuration"
	"github.com/iota-uz/ats-console/pkg/invalidation"
	"github.com/iota-uz/ats-console/pkg/middleware"
	"github.com/iota-uz/ats-console/pkg/session"
	"github.com/iota-uz/ats-console/pkg/types"
)

const (
	OrgID  = "org-1"
	UserID = "user-1"
)

// TestContext provides a fluent API for building test environments
type TestContext struct {
	modules  []application.Module
	navItems []types.NavigationItem
	backend  *Backend
	uxTTL    time.Duration
	logger   *logrus.Logger
}

func NewTestContext() *TestContext {
	return &TestContext{
		modules: []application.Module{},
	}
}

// WithModules adds modules to the test context
func (tc *TestContext) WithModules(modules ...application.Module) *TestContext {
	tc.modules = append(tc.modules, modules...)
	return tc
}

func (tc *TestContext) WithNavItems(items ...types.NavigationItem) *TestContext {
	tc.navItems = append(tc.navItems, items...)
	return tc
}

// WithBackend replaces the default backend, which only scripts /me.
func (tc *TestContext) WithBackend(b *Backend) *TestContext {
	tc.backend = b
	return tc
}

func (tc *TestContext) WithUXTTL(ttl time.Duration) *TestContext {
	tc.uxTTL = ttl
	return tc
}

func (tc *TestContext) WithLogger(logger *logrus.Logger) *TestContext {
	tc.logger = logger
	return tc
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Configuration returns the settings used by test environments.
func Configuration(apiURL string) *configuration.Configuration {
	return &configuration.Configuration{
		Backend: configuration.BackendOptions{APIURL: apiURL, Timeout: 5 * time.Second},
		Session: configuration.SessionOptions{
			IdleTTL:        time.Hour,
			OrgIDCookie:    "org_id",
			UserIDCookie:   "user_id",
			UXCacheTTL:     5 * time.Minute,
			DefaultSLADays: 7,
		},
		GoAppEnvironment: "test",
		CorsOrigins:      "http://localhost:3000",
		RequestIDHeader:  "X-Request-ID",
		RealIPHeader:     "X-Real-IP",
	}
}

// Build wires the application, its modules and the default middleware stack
func (tc *TestContext) Build(tb testing.TB) *TestEnvironment {
	tb.Helper()

	if tc.backend == nil {
		tc.backend = NewBackend(tb).Me("en")
	}
	if tc.logger == nil {
		tc.logger = quietLogger()
	}
	conf := Configuration(tc.backend.URL)
	if tc.uxTTL > 0 {
		conf.Session.UXCacheTTL = tc.uxTTL
	}

	client, err := backend.New(conf.Backend.APIURL, backend.WithTimeout(conf.Backend.Timeout))
	if err != nil {
		tb.Fatal(err)
	}
	bus := invalidation.NewLocalBus(tc.logger)
	sessions := session.NewManager(session.Options{
		Backend: client,
		Bus:     bus,
		IdleTTL: conf.Session.IdleTTL,
		UXTTL:   conf.Session.UXCacheTTL,
		Logger:  tc.logger,
	})
	hub := application.NewHub(&application.HuberOptions{
		Logger:      tc.logger,
		Bus:         bus,
		CheckOrigin: func(*http.Request) bool { return true },
	})
	tb.Cleanup(func() {
		hub.Close()
		sessions.Stop()
	})

	app := application.New(&application.ApplicationOptions{
		Logger:   tc.logger,
		Bus:      bus,
		Sessions: sessions,
		Huber:    hub,
	})
	for _, m := range tc.modules {
		if err := m.Register(app); err != nil {
			tb.Fatalf("register module %s: %v", m.Name(), err)
		}
	}
	app.RegisterNavItems(tc.navItems...)
	app.RegisterControllers(controllers.NewStaticFilesController(app.HashFsAssets(), false))

	srv, err := server.Default(&server.DefaultOptions{
		Logger:        tc.logger,
		Configuration: conf,
		Application:   app,
		Entrypoint:    "server",
	})
	if err != nil {
		tb.Fatal(err)
	}

	return &TestEnvironment{
		App:      app,
		Backend:  tc.backend,
		Client:   client,
		Sessions: sessions,
		Bus:      bus,
		Config:   conf,
		Cookies:  server.IdentityCookies(conf),
		Handler:  srv.Handler(),
	}
}

// TestEnvironment contains all test dependencies
type TestEnvironment struct {
	App      application.Application
	Backend  *Backend
	Client   *backend.Client
	Sessions *session.Manager
	Bus      invalidation.Bus
	Config   *configuration.Configuration
	Cookies  middleware.IdentityCookies
	Handler  http.Handler
}

// Request builds a request carrying the default identity cookies.
func (te *TestEnvironment) Request(method, target string, body io.Reader) *http.Request {
	req := te.Anonymous(method, target, body)
	req.AddCookie(&http.Cookie{Name: te.Cookies.Org, Value: OrgID})
	req.AddCookie(&http.Cookie{Name: te.Cookies.User, Value: UserID})
	return req
}

// Anonymous builds a request without identity cookies.
func (te *TestEnvironment) Anonymous(method, target string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, target, body)
}

// Form builds an identified form POST.
func (te *TestEnvironment) Form(target string, values url.Values) *http.Request {
	req := te.Request(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (te *TestEnvironment) Do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	te.Handler.ServeHTTP(rec, req)
	return rec
}

// Get performs an identified GET.
func (te *TestEnvironment) Get(target string) *httptest.ResponseRecorder {
	return te.Do(te.Request(http.MethodGet, target, nil))
}

// Document parses an HTML response body.
func Document(tb testing.TB, rec *httptest.ResponseRecorder) *goquery.Document {
	tb.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		tb.Fatal(err)
	}
	return doc
}

// Cookie returns the response cookie named name, or nil.
func Cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
