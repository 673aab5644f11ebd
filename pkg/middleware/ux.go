package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/ats-console/pkg/composables"
	"github.com/iota-uz/ats-console/pkg/uxconfig"
)

// ProvideUXConfig loads module's UX config from the session cache and binds
// it to the request and the page context. A failed load falls back to the
// last cached value, then to the defaults; UX config never blocks a page.
func ProvideUXConfig(module string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := composables.UseSession(r.Context())
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			cfg, err := s.UX.Get(r.Context(), module, uxconfig.Options{})
			if err != nil {
				composables.UseLogger(r.Context()).WithError(err).WithField("module", module).Warn("ux config unavailable")
				stale, cerr := s.UX.Cached(s.Key.OrgID, s.Key.UserID, module)
				if cerr != nil || stale.Data == nil {
					next.ServeHTTP(w, r)
					return
				}
				cfg = stale.Data
			}
			if pageCtx, ok := composables.TryUsePageCtx(r.Context()); ok {
				pageCtx.SetUX(cfg.Config)
			}
			next.ServeHTTP(w, r.WithContext(composables.WithUXConfig(r.Context(), cfg)))
		})
	}
}
