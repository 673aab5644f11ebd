package uxadmin

import (
	"context"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/iota-uz/ats-console/components"
	"github.com/iota-uz/ats-console/modules/core/presentation/templates/layouts"
	"github.com/iota-uz/ats-console/modules/uxadmin/presentation/viewmodels"
	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/composables"
	"github.com/iota-uz/ats-console/pkg/types"
)

type VersionsProps struct {
	Module string

	Current    *viewmodels.Config
	CurrentErr error

	Versions    []viewmodels.Version
	VersionsErr error

	Notice string
	Error  string
}

// errorText keeps the forbidden and missing-identity states readable;
// anything else shows the backend message.
func errorText(pageCtx types.PageContextProvider, err error) string {
	switch {
	case err == nil:
		return ""
	case backend.IsMissingIdentity(err):
		return pageCtx.T("Identity.Missing")
	case backend.IsForbidden(err):
		return pageCtx.T("UXAdmin.Errors.Forbidden")
	case backend.IsNotFound(err):
		return pageCtx.T("UXAdmin.Errors.NotFound")
	default:
		return err.Error()
	}
}

func sectionError(pageCtx types.PageContextProvider, err error) templ.Component {
	kind := components.AlertDanger
	if backend.IsForbidden(err) {
		kind = components.AlertWarning
	}
	return components.Alert(kind, errorText(pageCtx, err))
}

func currentCard(pageCtx types.PageContextProvider, props *VersionsProps) templ.Component {
	body := components.Func(func(ctx context.Context, w *components.Writer) {
		if props.CurrentErr != nil {
			w.Component(ctx, sectionError(pageCtx, props.CurrentErr))
			return
		}
		cfg := props.Current
		if cfg == nil {
			w.Component(ctx, components.Empty(pageCtx.T("UXAdmin.Current.Empty")))
			return
		}
		w.Raw(`<dl class="mb-3 grid grid-cols-2 gap-2 text-sm"><dt>`)
		w.Text(pageCtx.T("UXAdmin.Fields.Layout"))
		w.Raw(`</dt><dd data-field="layout">`)
		w.Text(cfg.Layout)
		w.Raw(`</dd><dt>`)
		w.Text(pageCtx.T("UXAdmin.Fields.Theme"))
		w.Raw(`</dt><dd data-field="theme">`)
		w.Text(cfg.Theme)
		w.Raw(`</dd><dt>`)
		w.Text(pageCtx.T("UXAdmin.Fields.Flags"))
		w.Raw(`</dt><dd data-field="flags">`)
		w.Text(cfg.FlagsPreview)
		w.Raw(`</dd></dl>`)
		if !cfg.Fresh {
			w.Component(ctx, components.Badge(pageCtx.T("UXAdmin.Current.Stale"), "bg-amber-500/15 text-amber-400"))
		}
		w.Component(ctx, components.Code("json", cfg.JSON))
	})
	return components.Card("current-config", pageCtx.T("UXAdmin.Current.Title"), body)
}

func rollbackForm(pageCtx types.PageContextProvider, module string, version int) templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		w.Raw(`<form method="post"`)
		w.Attr("action", "/admin/ux/"+url.PathEscape(module)+"/rollback")
		w.Raw(`><input type="hidden" name="version"`)
		w.Attr("value", strconv.Itoa(version))
		w.Raw(`><button type="submit" class="text-xs underline">`)
		w.Text(pageCtx.T("UXAdmin.Versions.Rollback"))
		w.Raw(`</button></form>`)
	})
}

func versionsCard(pageCtx types.PageContextProvider, props *VersionsProps) templ.Component {
	body := components.Func(func(ctx context.Context, w *components.Writer) {
		if props.VersionsErr != nil {
			w.Component(ctx, sectionError(pageCtx, props.VersionsErr))
			return
		}
		if len(props.Versions) == 0 {
			w.Component(ctx, components.Empty(pageCtx.T("UXAdmin.Versions.Empty")))
			return
		}
		rows := props.Versions
		w.Component(ctx, components.Table{
			Headers: []string{
				pageCtx.T("UXAdmin.Versions.Columns.Version"),
				pageCtx.T("UXAdmin.Versions.Columns.CreatedAt"),
				pageCtx.T("UXAdmin.Versions.Columns.Actor"),
				pageCtx.T("UXAdmin.Fields.Layout"),
				pageCtx.T("UXAdmin.Fields.Theme"),
				pageCtx.T("UXAdmin.Fields.Flags"),
				pageCtx.T("UXAdmin.Versions.Columns.Changes"),
				"",
			},
			Rows: len(rows),
			Row: func(ctx context.Context, w *components.Writer, i int) {
				v := rows[i]
				w.Raw(`<td class="px-2 py-1">v`)
				w.Text(strconv.Itoa(v.Number))
				if v.Active {
					w.Raw(` `)
					w.Component(ctx, components.Badge(pageCtx.T("UXAdmin.Versions.Active"), "bg-green-500/15 text-green-400"))
				}
				w.Raw(`</td>`)
				components.Cell(w, v.CreatedAt)
				components.Cell(w, v.ActorID)
				components.Cell(w, v.Layout)
				components.Cell(w, v.Theme)
				components.Cell(w, v.FlagsPreview)
				w.Raw(`<td class="px-2 py-1"><ul class="changes">`)
				for _, c := range v.Changes {
					w.Raw(`<li>`)
					w.Text(c)
					w.Raw(`</li>`)
				}
				w.Raw(`</ul></td><td class="px-2 py-1">`)
				if !v.Active {
					w.Component(ctx, rollbackForm(pageCtx, props.Module, v.Number))
				}
				w.Raw(`</td>`)
			},
			RowClass: func(i int) string {
				if rows[i].Active {
					return "active-version"
				}
				return ""
			},
		}.Component())
	})
	return components.Card("versions", pageCtx.T("UXAdmin.Versions.Title"), body)
}

// Versions renders the UX config history of one module with a rollback
// action per inactive version.
func Versions(props *VersionsProps) templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		pageCtx := composables.UsePageCtx(ctx)
		title := pageCtx.T("UXAdmin.Title", map[string]interface{}{"Module": props.Module})
		content := components.Func(func(ctx context.Context, w *components.Writer) {
			w.Raw(`<h1 class="mb-4 text-xl font-semibold">`)
			w.Text(title)
			w.Raw(`</h1>`)
			w.Component(ctx, components.Alert(components.AlertSuccess, props.Notice))
			w.Component(ctx, components.Alert(components.AlertDanger, props.Error))
			w.Component(ctx, currentCard(pageCtx, props))
			w.Component(ctx, versionsCard(pageCtx, props))
		})
		w.Component(templ.WithChildren(ctx, content), layouts.Authenticated(layouts.AuthenticatedProps{
			BaseProps: layouts.BaseProps{
				Title:        title,
				WebsocketURL: "/ws?module=" + url.QueryEscape(props.Module),
				UXModules:    []string{props.Module},
			},
		}))
	})
}
