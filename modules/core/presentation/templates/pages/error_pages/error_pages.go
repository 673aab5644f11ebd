package error_pages

import (
	"context"

	"github.com/a-h/templ"

	"github.com/iota-uz/ats-console/components"
	"github.com/iota-uz/ats-console/modules/core/presentation/templates/layouts"
	"github.com/iota-uz/ats-console/pkg/composables"
)

func errorPage(titleKey, messageKey, fallbackTitle string) templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		title, message := fallbackTitle, ""
		if pageCtx, ok := composables.TryUsePageCtx(ctx); ok {
			if t := pageCtx.TSafe(titleKey); t != "" {
				title = t
			}
			message = pageCtx.TSafe(messageKey)
		}
		content := components.Func(func(ctx context.Context, w *components.Writer) {
			w.Raw(`<main class="content mx-auto max-w-xl text-center"><h1 class="text-2xl font-semibold">`)
			w.Text(title)
			w.Raw(`</h1><p>`)
			w.Text(message)
			w.Raw(`</p><a href="/dashboard">`)
			w.Text("←")
			w.Raw(`</a></main>`)
		})
		w.Component(templ.WithChildren(ctx, content), layouts.Base(&layouts.BaseProps{Title: title}))
	})
}

func NotFoundContent() templ.Component {
	return errorPage("Errors.NotFound.Title", "Errors.NotFound.Message", "Page not found")
}
