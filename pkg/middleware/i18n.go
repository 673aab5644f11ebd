package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/iota-uz/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/composables"
	"github.com/iota-uz/ats-console/pkg/constants"
	"github.com/iota-uz/ats-console/pkg/intl"
)

// Application interface for accessing app config needed by localizer
type Application interface {
	Bundle() *i18n.Bundle
	GetSupportedLanguages() []string
}

// effectiveLanguage is the /me effective language, or English while the
// identity is unavailable.
func effectiveLanguage(ctx context.Context) backend.Locale {
	if identity, ok := ctx.Value(constants.IdentityKey).(*backend.Identity); ok && identity != nil &&
		identity.EffectiveLanguage.Valid() {
		return identity.EffectiveLanguage
	}
	if s, err := composables.UseSession(ctx); err == nil {
		return s.Locale()
	}
	return backend.LocaleEN
}

func matchSupported(defaultLocale language.Tag, supported []language.Tag, candidate language.Tag) language.Tag {
	if len(supported) == 0 {
		return defaultLocale
	}
	matcher := language.NewMatcher(supported)
	_, idx, confidence := matcher.Match(candidate)
	if confidence == language.No {
		return defaultLocale
	}
	return supported[idx]
}

func useLocale(r *http.Request, supported []language.Tag) language.Tag {
	tag, err := language.Parse(string(effectiveLanguage(r.Context())))
	if err != nil {
		return language.English
	}
	return matchSupported(language.English, supported, tag)
}

func ProvideLocalizer(app Application) mux.MiddlewareFunc {
	bundle := app.Bundle()
	supportedLanguages := intl.Tags(app.GetSupportedLanguages()...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				locale := useLocale(r, supportedLanguages)
				ctx := intl.WithLocalizer(
					r.Context(),
					i18n.NewLocalizer(bundle, locale.String()),
				)
				ctx = intl.WithLocale(ctx, locale)
				next.ServeHTTP(w, r.WithContext(ctx))
			},
		)
	}
}
