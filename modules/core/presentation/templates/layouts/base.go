package layouts

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"github.com/iota-uz/ats-console/components"
	"github.com/iota-uz/ats-console/pkg/composables"
	"github.com/iota-uz/ats-console/pkg/middleware"
	"github.com/iota-uz/ats-console/pkg/types"
)

type BaseProps struct {
	Title        string
	WebsocketURL string
	// UXModules are the modules whose invalidation reloads the page.
	UXModules []string
}

type AuthenticatedProps struct {
	BaseProps
}

// Base renders the document shell around the children in ctx. Theme and
// layout come from the page context's UX config.
func Base(props *BaseProps) templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		theme, layout, lang := types.DefaultTheme, types.DefaultLayout, "en"
		if pageCtx, ok := composables.TryUsePageCtx(ctx); ok {
			theme, layout = pageCtx.Theme(), pageCtx.Layout()
			lang = pageCtx.GetLocale().String()
		}

		w.Raw(`<!DOCTYPE html><html`)
		w.Attr("lang", lang)
		w.Attr("data-theme", string(theme))
		w.Attr("class", "layout-"+string(layout))
		if props.WebsocketURL != "" && len(props.UXModules) > 0 {
			w.Attr("data-ws-url", props.WebsocketURL)
			w.Attr("data-ux-modules", strings.Join(props.UXModules, ","))
		}
		w.Raw(`><head><meta charset="utf-8"><title>`)
		w.Text(props.Title)
		w.Raw(`</title>`)
		if head, err := UseHead(ctx); err == nil {
			w.Component(ctx, head)
		}
		w.Raw(`</head><body>`)
		w.Component(ctx, templ.GetChildren(ctx))
		w.Raw(`</body></html>`)
	})
}

func navigation(items []types.NavigationItem, current string) templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		w.Raw(`<nav class="sidebar"><ul>`)
		for _, item := range items {
			w.Raw(`<li><a`)
			w.Attr("href", item.Href)
			if item.Href != "/" && strings.HasPrefix(current, item.Href) {
				w.Attr("class", "active")
			}
			w.Raw(`>`)
			w.Component(ctx, item.Icon)
			w.Raw(`<span>`)
			w.Text(item.Name)
			w.Raw(`</span></a>`)
			if len(item.Children) > 0 {
				w.Component(ctx, navigation(item.Children, current))
			}
			w.Raw(`</li>`)
		}
		w.Raw(`</ul></nav>`)
	})
}

func identityBar() templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		pageCtx := composables.UsePageCtx(ctx)
		w.Raw(`<header class="identity flex justify-between text-xs opacity-80">`)
		s, err := composables.UseSession(ctx)
		if err != nil {
			w.Raw(`<span data-identity="missing">`)
			w.Text(pageCtx.T("Identity.Missing"))
			w.Raw(`</span>`)
		} else {
			w.Raw(`<span data-identity="present">`)
			w.Text(s.Key.OrgID + " / " + s.Key.UserID)
			w.Raw(`</span>`)
		}
		w.Raw(`</header>`)
	})
}

// Authenticated adds navigation and the identity bar to Base.
func Authenticated(props AuthenticatedProps) templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		children := templ.GetChildren(ctx)
		current := ""
		if pageCtx, ok := composables.TryUsePageCtx(ctx); ok && pageCtx.GetURL() != nil {
			current = pageCtx.GetURL().Path
		}
		shell := components.Func(func(ctx context.Context, w *components.Writer) {
			ctx = templ.ClearChildren(ctx)
			w.Raw(`<div class="shell">`)
			w.Component(ctx, navigation(middleware.UseNavItems(ctx), current))
			w.Raw(`<main class="content">`)
			w.Component(ctx, identityBar())
			w.Component(ctx, children)
			w.Raw(`</main></div>`)
		})
		w.Component(templ.WithChildren(ctx, shell), Base(&props.BaseProps))
	})
}
