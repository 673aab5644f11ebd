package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iota-uz/ats-console/pkg/composables"
	"github.com/iota-uz/ats-console/pkg/session"
)

// IdentityCookies names the cookies that carry the trusted org/user pair.
type IdentityCookies struct {
	Org  string
	User string
}

func DefaultIdentityCookies() IdentityCookies {
	return IdentityCookies{Org: "org_id", User: "user_id"}
}

func (c IdentityCookies) Read(r *http.Request) (orgID, userID string) {
	return cookieValue(r, c.Org), cookieValue(r, c.User)
}

// Write stores the identity pair. Empty values clear the cookies.
func (c IdentityCookies) Write(w http.ResponseWriter, orgID, userID string) {
	for name, value := range map[string]string{c.Org: orgID, c.User: userID} {
		cookie := &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		if value == "" {
			cookie.MaxAge = -1
		}
		http.SetCookie(w, cookie)
	}
}

func cookieValue(r *http.Request, name string) string {
	if name == "" {
		return ""
	}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

// ProvideSession binds the session of the identity cookies to the request.
// Requests without a full identity pair proceed without one; handlers see
// composables.ErrNoSession and render the missing-identity state.
func ProvideSession(manager *session.Manager, cookies IdentityCookies) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			org, user := cookies.Read(r)
			if org == "" || user == "" {
				next.ServeHTTP(w, r)
				return
			}
			s, err := manager.Acquire(org, user)
			if err != nil {
				composables.UseLogger(r.Context()).WithError(err).Warn("session unavailable")
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(composables.WithSession(r.Context(), s)))
		})
	}
}

// ResolveIdentity loads /me once per session so the locale and navigation
// follow the backend identity. Failures are logged; the page renders in
// English without scoped navigation.
func ResolveIdentity() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := composables.UseSession(r.Context())
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			identity, err := s.Identity.Get(r.Context())
			if err != nil {
				composables.UseLogger(r.Context()).WithError(err).Warn("identity unavailable")
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(composables.WithIdentity(r.Context(), identity)))
		})
	}
}
