package dashboard

import (
	"context"

	"github.com/a-h/templ"

	"github.com/iota-uz/ats-console/components"
	"github.com/iota-uz/ats-console/modules/core/presentation/templates/layouts"
	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/types"
)

// UXModule is the UX config module that styles dashboard pages.
const UXModule = "dashboard"

func page(title string, content templ.Component) templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		w.Component(templ.WithChildren(ctx, content), layouts.Authenticated(layouts.AuthenticatedProps{
			BaseProps: layouts.BaseProps{
				Title:        title,
				WebsocketURL: "/ws?module=" + UXModule,
				UXModules:    []string{UXModule},
			},
		}))
	})
}

// ErrorText turns a section error into a message for the banner.
func ErrorText(pageCtx types.PageContextProvider, err error) string {
	switch {
	case err == nil:
		return ""
	case backend.IsMissingIdentity(err):
		return pageCtx.T("Identity.Missing")
	case backend.IsForbidden(err):
		return pageCtx.T("Dashboard.Errors.Forbidden")
	case backend.IsNotFound(err):
		return pageCtx.T("Dashboard.Errors.NotFound")
	default:
		return err.Error()
	}
}

func sectionError(pageCtx types.PageContextProvider, err error) templ.Component {
	return components.Alert(components.AlertDanger, ErrorText(pageCtx, err))
}
