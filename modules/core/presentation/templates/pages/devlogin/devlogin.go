package devlogin

import (
	"context"

	"github.com/a-h/templ"

	"github.com/iota-uz/ats-console/components"
	"github.com/iota-uz/ats-console/modules/core/presentation/templates/layouts"
	"github.com/iota-uz/ats-console/pkg/composables"
)

type Props struct {
	OrgID        string
	UserID       string
	ErrorMessage string
	Next         string
}

func field(name, label, value string) templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		w.Raw(`<label class="block"><span>`)
		w.Text(label)
		w.Raw(`</span><input type="text" required`)
		w.Attr("name", name)
		w.Attr("value", value)
		w.Raw(`></label>`)
	})
}

// Index is the development identity form. It stands in for the identity
// a real deployment receives from its gateway.
func Index(props *Props) templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		pageCtx := composables.UsePageCtx(ctx)
		content := components.Func(func(ctx context.Context, w *components.Writer) {
			w.Raw(`<main class="content mx-auto max-w-md"><h1>`)
			w.Text(pageCtx.T("DevLogin.Title"))
			w.Raw(`</h1>`)
			if props.ErrorMessage != "" {
				w.Component(ctx, components.Alert(components.AlertDanger, props.ErrorMessage))
			}
			w.Raw(`<form method="post" action="/dev/login">`)
			w.Component(ctx, field("org_id", pageCtx.T("DevLogin.OrgID"), props.OrgID))
			w.Component(ctx, field("user_id", pageCtx.T("DevLogin.UserID"), props.UserID))
			w.Raw(`<input type="hidden" name="next"`)
			w.Attr("value", props.Next)
			w.Raw(`><button type="submit">`)
			w.Text(pageCtx.T("DevLogin.Submit"))
			w.Raw(`</button></form><form method="post" action="/dev/logout"><button type="submit" class="link">`)
			w.Text(pageCtx.T("DevLogin.Logout"))
			w.Raw(`</button></form></main>`)
		})
		w.Component(templ.WithChildren(ctx, content), layouts.Base(&layouts.BaseProps{Title: pageCtx.T("DevLogin.Title")}))
	})
}
