package controllers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/benbjohnson/hashfs"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/ats-console/modules/core"
	"github.com/iota-uz/ats-console/modules/core/presentation/assets"
	"github.com/iota-uz/ats-console/modules/core/presentation/controllers"
	"github.com/iota-uz/ats-console/pkg/httpapi"
	"github.com/iota-uz/ats-console/pkg/itf"
)

func newEnv(t *testing.T, devMode bool, b ...*itf.Backend) *itf.TestEnvironment {
	t.Helper()
	tc := itf.NewTestContext().
		WithModules(core.NewModule(&core.ModuleOptions{DevMode: devMode})).
		WithNavItems(core.NavItems...)
	if len(b) > 0 {
		tc = tc.WithBackend(b[0])
	}
	return tc.Build(t)
}

func TestHealth(t *testing.T) {
	env := newEnv(t, false)

	rec := env.Do(env.Anonymous(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["sessions"])

	rec = env.Get("/health")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body["sessions"])
}

func TestHome_RedirectsToDashboard(t *testing.T) {
	env := newEnv(t, false)

	rec := env.Get("/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard?auto=1", rec.Header().Get("Location"))
}

func TestNotFound_APIGetsJSONEnvelope(t *testing.T) {
	env := newEnv(t, false)

	rec := env.Get("/api/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.Equal(t, "/api/nope", body.Meta["path"])
	assert.NotEmpty(t, body.Meta["request_id"])
}

func TestNotFound_PageIsLocalized(t *testing.T) {
	b := itf.NewBackend(t).Me("nl")
	env := newEnv(t, false, b)

	rec := env.Get("/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
	doc := itf.Document(t, rec)
	assert.Equal(t, "Pagina niet gevonden", strings.TrimSpace(doc.Find("h1").Text()))
	lang, _ := doc.Find("html").Attr("lang")
	assert.Equal(t, "nl", lang)

	rec = env.Do(env.Anonymous(http.MethodGet, "/nope", nil))
	doc = itf.Document(t, rec)
	assert.Equal(t, "Page not found", strings.TrimSpace(doc.Find("h1").Text()))
}

func TestMethodNotAllowed(t *testing.T) {
	env := newEnv(t, false)

	rec := env.Do(env.Request(http.MethodPost, "/health", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	var body httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "METHOD_NOT_ALLOWED", body.Code)
}

func TestStaticFiles_HashedNames(t *testing.T) {
	env := newEnv(t, false)

	rec := env.Get(assets.URL("css/main.css"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "data-theme")
}

func TestStaticFiles_ProductionCachesHashedNames(t *testing.T) {
	r := mux.NewRouter()
	controllers.NewStaticFilesController([]*hashfs.FS{assets.HashFS}, true).Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, assets.URL("css/main.css"), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=31536000, immutable", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/dist/css/main.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
}

func TestDevLogin_NotMountedOutsideDevMode(t *testing.T) {
	env := newEnv(t, false)

	rec := env.Get("/dev/login")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDevLogin_SwitchDropsPreviousSession(t *testing.T) {
	env := newEnv(t, true)

	env.Get("/health")
	_, ok := env.Sessions.Peek(itf.OrgID, itf.UserID)
	require.True(t, ok)

	rec := env.Do(env.Form("/dev/login", url.Values{
		"org_id":  {" org-2 "},
		"user_id": {"user-9"},
	}))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard?auto=1", rec.Header().Get("Location"))

	org := itf.Cookie(rec, env.Cookies.Org)
	user := itf.Cookie(rec, env.Cookies.User)
	require.NotNil(t, org)
	require.NotNil(t, user)
	assert.Equal(t, "org-2", org.Value)
	assert.Equal(t, "user-9", user.Value)

	_, ok = env.Sessions.Peek(itf.OrgID, itf.UserID)
	assert.False(t, ok)
}

func TestDevLogin_ExternalNextIsIgnored(t *testing.T) {
	env := newEnv(t, true)

	rec := env.Do(env.Form("/dev/login", url.Values{
		"org_id":  {"org-2"},
		"user_id": {"user-9"},
		"next":    {"https://evil.example/"},
	}))
	assert.Equal(t, "/dashboard?auto=1", rec.Header().Get("Location"))

	rec = env.Do(env.Form("/dev/login", url.Values{
		"org_id":  {"org-2"},
		"user_id": {"user-9"},
		"next":    {"/admin/ux/dashboard"},
	}))
	assert.Equal(t, "/admin/ux/dashboard", rec.Header().Get("Location"))
}

func TestDevLogin_ValidationMessageIsFlashed(t *testing.T) {
	env := newEnv(t, true)

	rec := env.Do(env.Form("/dev/login", url.Values{"org_id": {"org-2"}}))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/dev/login"))

	req := env.Anonymous(http.MethodGet, "/dev/login", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	page := env.Do(req)
	require.Equal(t, http.StatusOK, page.Code)
	doc := itf.Document(t, page)
	assert.Contains(t, doc.Find("[role=alert]").Text(), "User ID is required")
}

func TestDevLogout_ClearsCookies(t *testing.T) {
	env := newEnv(t, true)
	env.Get("/health")

	rec := env.Do(env.Request(http.MethodPost, "/dev/logout", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	org := itf.Cookie(rec, env.Cookies.Org)
	require.NotNil(t, org)
	assert.Equal(t, -1, org.MaxAge)
	assert.Equal(t, 0, env.Sessions.Len())
}
