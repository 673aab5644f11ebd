package dashboard

import (
	"context"

	"github.com/a-h/templ"

	"github.com/iota-uz/ats-console/components"
	"github.com/iota-uz/ats-console/modules/dashboard/presentation/viewmodels"
	"github.com/iota-uz/ats-console/pkg/composables"
)

type IndexProps struct {
	Workflows []viewmodels.Workflow
	Err       error
	Query     string
}

func workflowList(items []viewmodels.Workflow) templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		pageCtx := composables.UsePageCtx(ctx)
		if len(items) == 0 {
			w.Component(ctx, components.Empty(pageCtx.T("Dashboard.Workflows.Empty")))
			return
		}
		w.Raw(`<ul class="workflow-list">`)
		for _, wf := range items {
			w.Raw(`<li`)
			w.Attr("data-workflow", wf.ID)
			w.Raw(`><a`)
			w.Attr("href", "/dashboard/workflows/"+wf.ID)
			if wf.Selected {
				w.Attr("aria-current", "page")
			}
			w.Raw(`>`)
			w.Text(wf.Name)
			w.Raw(`</a>`)
			if wf.Active {
				w.Component(ctx, components.Badge(pageCtx.T("Dashboard.Workflows.Active"), "bg-green-500/15 text-green-400"))
			} else {
				w.Component(ctx, components.Badge(pageCtx.T("Dashboard.Workflows.Inactive"), ""))
			}
			w.Raw(`</li>`)
		}
		w.Raw(`</ul>`)
	})
}

func Index(props *IndexProps) templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		pageCtx := composables.UsePageCtx(ctx)
		content := components.Func(func(ctx context.Context, w *components.Writer) {
			w.Raw(`<h1 class="text-xl font-semibold">`)
			w.Text(pageCtx.T("Dashboard.Title"))
			w.Raw(`</h1><form method="get" action="/dashboard" class="search"><input type="search" name="q"`)
			w.Attr("value", props.Query)
			w.Attr("placeholder", pageCtx.T("Dashboard.Workflows.Search"))
			w.Raw(`></form>`)
			body := components.Func(func(ctx context.Context, w *components.Writer) {
				if props.Err != nil {
					w.Component(ctx, sectionError(pageCtx, props.Err))
					return
				}
				w.Component(ctx, workflowList(props.Workflows))
			})
			w.Component(ctx, components.Card("workflows", pageCtx.T("Dashboard.Workflows.Title"), body))
		})
		w.Component(ctx, page(pageCtx.T("Dashboard.Title"), content))
	})
}
