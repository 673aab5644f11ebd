package application_test

import (
	"context"
	"embed"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/composables"
	"github.com/iota-uz/ats-console/pkg/invalidation"
	"github.com/iota-uz/ats-console/pkg/session"
	"github.com/iota-uz/ats-console/pkg/types"
)

//go:embed testdata/*.toml
var testLocales embed.FS

type greeter struct{ name string }

type routes struct{}

func (routes) Key() string            { return "/b" }
func (routes) Register(r *mux.Router) {}

type otherRoutes struct{}

func (otherRoutes) Key() string            { return "/a" }
func (otherRoutes) Register(r *mux.Router) {}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestApplication_Registry(t *testing.T) {
	app := application.New(&application.ApplicationOptions{Logger: quietLogger()})

	app.RegisterServices(&greeter{name: "console"})
	svc := app.Service(greeter{}).(*greeter)
	assert.Equal(t, "console", svc.name)
	assert.Panics(t, func() { app.Service(struct{}{}) })

	app.RegisterControllers(routes{}, otherRoutes{})
	keys := []string{}
	for _, c := range app.Controllers() {
		keys = append(keys, c.Key())
	}
	assert.Equal(t, []string{"/a", "/b"}, keys)
	assert.Equal(t, []string{"en", "nl"}, app.GetSupportedLanguages())

	ctx := application.WithApp(context.Background(), app)
	got, err := application.UseApp(ctx)
	require.NoError(t, err)
	assert.Same(t, app, got)
	_, err = application.UseApp(context.Background())
	require.ErrorIs(t, err, application.ErrAppNotFound)
}

func TestApplication_TranslatesNavItems(t *testing.T) {
	app := application.New(&application.ApplicationOptions{Logger: quietLogger()})
	app.RegisterLocaleFiles(&testLocales)
	app.RegisterNavItems(types.NavigationItem{
		Name:   "NavigationLinks.Dashboard",
		Href:   "/dashboard",
		Scopes: []string{"reporting:read"},
	}, types.NavigationItem{
		Name: "NavigationLinks.Unknown",
		Href: "/unknown",
	})

	items := app.NavItems(i18n.NewLocalizer(app.Bundle(), "nl"))
	require.Len(t, items, 2)
	assert.Equal(t, "Overzicht", items[0].Name)
	assert.Equal(t, []string{"reporting:read"}, items[0].Scopes)
	assert.Equal(t, "NavigationLinks.Unknown", items[1].Name)
}

func newSessionManager(t *testing.T, bus invalidation.Bus) *session.Manager {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	client, err := backend.New(srv.URL)
	require.NoError(t, err)
	m := session.NewManager(session.Options{Backend: client, Bus: bus, Logger: quietLogger()})
	t.Cleanup(m.Stop)
	return m
}

func dialHub(t *testing.T, hub application.Huber, sessions *session.Manager, org, query string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := sessions.Acquire(org, "user-1")
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		hub.ServeHTTP(w, r.WithContext(composables.WithSession(r.Context(), s)))
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws"+query, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readInvalidate(t *testing.T, conn *websocket.Conn) (application.InvalidateMessage, error) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var msg application.InvalidateMessage
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return msg, err
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg, nil
}

func TestHub_RelaysInvalidationToTabsOfTheOrganization(t *testing.T) {
	bus := invalidation.NewLocalBus(quietLogger())
	sessions := newSessionManager(t, bus)
	hub := application.NewHub(&application.HuberOptions{
		Logger:      quietLogger(),
		Bus:         bus,
		CheckOrigin: func(*http.Request) bool { return true },
	})
	t.Cleanup(hub.Close)

	mine := dialHub(t, hub, sessions, "org-1", "?module=dashboard")
	theirs := dialHub(t, hub, sessions, "org-2", "?module=dashboard")

	require.Eventually(t, func() bool {
		n := 0
		_ = hub.ForEach(application.ModuleChannel("dashboard"), func(context.Context, application.Connection) error {
			n++
			return nil
		})
		return n == 2
	}, time.Second, 10*time.Millisecond)

	bus.Publish(context.Background(), invalidation.Event{Module: "dashboard", OrganizationID: "org-1"})

	msg, err := readInvalidate(t, mine)
	require.NoError(t, err)
	assert.Equal(t, application.InvalidateMessage{Type: "uxconfig:invalidate", Module: "dashboard"}, msg)

	_, err = readInvalidate(t, theirs)
	require.Error(t, err, "other organizations are not notified")
}

func TestHub_RejectsConnectionWithoutModule(t *testing.T) {
	bus := invalidation.NewLocalBus(quietLogger())
	sessions := newSessionManager(t, bus)
	hub := application.NewHub(&application.HuberOptions{Logger: quietLogger(), Bus: bus})
	t.Cleanup(hub.Close)

	conn := dialHub(t, hub, sessions, "org-1", "")
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}
