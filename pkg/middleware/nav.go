package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/constants"
	"github.com/iota-uz/ats-console/pkg/intl"
	"github.com/iota-uz/ats-console/pkg/types"
)

func filterItems(items []types.NavigationItem, identity *backend.Identity) []types.NavigationItem {
	filtered := make([]types.NavigationItem, 0, len(items))
	for _, item := range items {
		if !item.HasScopes(identity) {
			continue
		}
		item.Children = filterItems(item.Children, identity)
		filtered = append(filtered, item)
	}
	return filtered
}

// getEnabledNavItems drops groups whose children were all filtered out and
// inlines groups left with a single child.
func getEnabledNavItems(items []types.NavigationItem) []types.NavigationItem {
	var out []types.NavigationItem
	for _, item := range items {
		if len(item.Children) == 0 {
			if item.Href != "#" {
				out = append(out, item)
			}
			continue
		}
		children := getEnabledNavItems(item.Children)
		switch len(children) {
		case 0:
		case 1:
			out = append(out, children[0])
		default:
			item.Children = children
			out = append(out, item)
		}
	}
	return out
}

func UseNavItems(ctx context.Context) []types.NavigationItem {
	items, _ := ctx.Value(constants.NavItemsKey).([]types.NavigationItem)
	return items
}

// NavItems translates the registered navigation and keeps the entries the
// resolved identity has scopes for.
func NavItems() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				app, err := application.UseApp(r.Context())
				if err != nil {
					panic(err.Error())
				}
				localizer, ok := intl.UseLocalizer(r.Context())
				if !ok {
					panic(intl.ErrNoLocalizer)
				}
				identity, _ := r.Context().Value(constants.IdentityKey).(*backend.Identity)

				enabled := getEnabledNavItems(filterItems(app.NavItems(localizer), identity))
				ctx := context.WithValue(r.Context(), constants.NavItemsKey, enabled)
				next.ServeHTTP(w, r.WithContext(ctx))
			},
		)
	}
}
