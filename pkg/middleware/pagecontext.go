package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/text/language"

	"github.com/iota-uz/ats-console/pkg/composables"
	"github.com/iota-uz/ats-console/pkg/intl"
	"github.com/iota-uz/ats-console/pkg/types"
)

// WithPageContext builds the PageContext views render against. It needs
// ProvideLocalizer upstream. UX config provided by an outer middleware is
// copied in; ProvideUXConfig on a subrouter overrides it later.
func WithPageContext() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			localizer := intl.MustUseLocalizer(ctx)
			locale, ok := intl.UseLocale(ctx)
			if !ok {
				locale = language.English
			}
			pageCtx := &types.PageContext{URL: r.URL, Localizer: localizer, Locale: locale}
			if cfg, ok := composables.UseUXConfig(ctx); ok {
				pageCtx.SetUX(cfg.Config)
			}
			next.ServeHTTP(w, r.WithContext(composables.WithPageCtx(ctx, pageCtx)))
		})
	}
}
