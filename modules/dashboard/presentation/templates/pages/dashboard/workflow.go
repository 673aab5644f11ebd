package dashboard

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/iota-uz/ats-console/components"
	"github.com/iota-uz/ats-console/modules/dashboard/presentation/viewmodels"
	"github.com/iota-uz/ats-console/pkg/composables"
	"github.com/iota-uz/ats-console/pkg/lifecycle"
	"github.com/iota-uz/ats-console/pkg/types"
)

type WorkflowProps struct {
	WorkflowID   string
	WorkflowName string

	Workflows    []viewmodels.Workflow
	WorkflowsErr error

	Strip   viewmodels.CommandStrip
	SLADays int
	Breach  lifecycle.Breach

	StageAging    []viewmodels.StageAgingRow
	StageAgingErr error

	Summary    []viewmodels.SummaryRow
	SummaryErr error

	TimeToClose    *viewmodels.TimeToClose
	TimeToCloseErr error

	Breakdown       []viewmodels.BreakdownRow
	BreakdownErr    error
	BreakdownCustom bool
	// From and To are the breakdown window as yyyy-mm-dd.
	From string
	To   string

	ExportURL string
}

func field(label, value string) templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		w.Raw(`<div><div class="text-xs opacity-70">`)
		w.Text(label)
		w.Raw(`</div><div class="tabular-nums">`)
		w.Text(value)
		w.Raw(`</div></div>`)
	})
}

func workflowSelector(items []viewmodels.Workflow) templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		w.Raw(`<nav class="workflow-selector flex gap-2">`)
		for _, wf := range items {
			w.Raw(`<a`)
			w.Attr("href", "/dashboard/workflows/"+wf.ID)
			w.Attr("data-workflow", wf.ID)
			if wf.Selected {
				w.Attr("aria-current", "page")
			}
			w.Raw(`>`)
			w.Text(wf.Name)
			w.Raw(`</a>`)
		}
		w.Raw(`</nav>`)
	})
}

func commandStrip(pageCtx types.PageContextProvider, props *WorkflowProps) templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		w.Raw(`<section id="command-strip" class="grid grid-cols-2 gap-3 md:grid-cols-6">`)
		if props.StageAgingErr != nil {
			w.Component(ctx, sectionError(pageCtx, props.StageAgingErr))
			w.Raw(`</section>`)
			return
		}
		s := props.Strip
		w.Component(ctx, components.Stat(pageCtx.T("Dashboard.CommandStrip.OpenCount"), s.OpenCount, nil))
		w.Component(ctx, components.Stat(pageCtx.T("Dashboard.CommandStrip.BreachCount"), s.BreachCount, nil))
		w.Component(ctx, components.Stat(pageCtx.T("Dashboard.CommandStrip.BreachPercent"), s.BreachPercent, nil))
		w.Component(ctx, components.Stat(pageCtx.T("Dashboard.CommandStrip.AvgTimeToClose"), s.AvgTimeToClose, nil))
		w.Raw(`<div class="stat" data-risk`)
		w.Attr("data-level", string(s.Risk))
		w.Raw(`><span class="text-xs opacity-70">`)
		w.Text(pageCtx.T("Dashboard.CommandStrip.Risk"))
		w.Raw(`</span><span`)
		w.Attr("class", s.RiskClass)
		w.Raw(`>`)
		w.Text(pageCtx.T("Dashboard.Risk." + string(s.Risk)))
		w.Raw(`</span></div><div class="stat" data-trend`)
		w.Attr("data-direction", string(s.Trend))
		w.Raw(`><span class="text-xs opacity-70">`)
		w.Text(pageCtx.T("Dashboard.CommandStrip.Trend"))
		w.Raw(`</span><span class="text-sm font-semibold">`)
		w.Text(pageCtx.T("Dashboard.Trend." + string(s.Trend)))
		w.Raw(`</span></div></section>`)
	})
}

func slaBreachCard(pageCtx types.PageContextProvider, props *WorkflowProps) templ.Component {
	body := components.Func(func(ctx context.Context, w *components.Writer) {
		if props.StageAgingErr != nil {
			w.Component(ctx, sectionError(pageCtx, props.StageAgingErr))
			return
		}
		b := props.Breach
		w.Raw(`<div class="mb-3 flex items-start justify-between gap-3"><div class="text-xs opacity-70">`)
		w.Text(pageCtx.T("Dashboard.SLABreaches.Subtitle", map[string]interface{}{"Days": props.SLADays}))
		w.Raw(`</div><span data-breach-badge`)
		w.Attr("class", lifecycle.BreachBadge(b.BreachCount, b.BreachPercent))
		w.Raw(`>`)
		if b.BreachCount == 0 {
			w.Text(pageCtx.T("Dashboard.SLABreaches.BadgeOK"))
		} else {
			w.Text(pageCtx.T("Dashboard.SLABreaches.BadgeAttention"))
		}
		w.Raw(`</span></div><div class="grid grid-cols-2 gap-3 text-sm">`)
		percent := viewmodels.Percent(b.BreachPercent)
		if b.Total == 0 {
			percent = "0%"
		}
		w.Component(ctx, field(pageCtx.T("Dashboard.SLABreaches.Fields.BreachCount"), strconv.Itoa(b.BreachCount)))
		w.Component(ctx, field(pageCtx.T("Dashboard.SLABreaches.Fields.Total"), strconv.Itoa(b.Total)))
		w.Component(ctx, field(pageCtx.T("Dashboard.SLABreaches.Fields.BreachPercent"), percent))
		w.Component(ctx, field(pageCtx.T("Dashboard.SLABreaches.Fields.SLADays"), strconv.Itoa(props.SLADays)+"d"))
		w.Raw(`</div>`)
	})
	return components.Card("sla-breach", pageCtx.T("Dashboard.SLABreaches.Title"), body)
}

func stageAgingCard(pageCtx types.PageContextProvider, props *WorkflowProps) templ.Component {
	body := components.Func(func(ctx context.Context, w *components.Writer) {
		if props.StageAgingErr != nil {
			w.Component(ctx, sectionError(pageCtx, props.StageAgingErr))
			return
		}
		w.Raw(`<div class="mb-2 flex justify-between text-xs opacity-70"><span>`)
		w.Text(pageCtx.T("Dashboard.StageAging.OpenCount", map[string]interface{}{"Count": len(props.StageAging)}))
		w.Raw(`</span><a data-export`)
		w.Attr("href", props.ExportURL)
		w.Raw(`>`)
		w.Text(pageCtx.T("Dashboard.StageAging.Export"))
		w.Raw(`</a></div>`)
		if len(props.StageAging) == 0 {
			w.Component(ctx, components.Empty(pageCtx.T("Dashboard.Common.NoData")))
			return
		}
		rows := props.StageAging
		w.Component(ctx, components.Table{
			Headers: []string{
				pageCtx.T("Dashboard.StageAging.Columns.ApplicationID"),
				pageCtx.T("Dashboard.StageAging.Columns.CurrentStage"),
				pageCtx.T("Dashboard.StageAging.Columns.Age"),
			},
			Rows: len(rows),
			Row: func(ctx context.Context, w *components.Writer, i int) {
				components.Cell(w, rows[i].ApplicationID)
				components.Cell(w, rows[i].Stage)
				components.Cell(w, rows[i].Age)
			},
			RowClass: func(i int) string {
				if rows[i].OverSLA {
					return "over-sla"
				}
				return ""
			},
		}.Component())
	})
	return components.Card("stage-aging", pageCtx.T("Dashboard.StageAging.Title"), body)
}

func summaryCard(pageCtx types.PageContextProvider, props *WorkflowProps) templ.Component {
	body := components.Func(func(ctx context.Context, w *components.Writer) {
		if props.SummaryErr != nil {
			w.Component(ctx, sectionError(pageCtx, props.SummaryErr))
			return
		}
		if len(props.Summary) == 0 {
			w.Component(ctx, components.Empty(pageCtx.T("Dashboard.Common.NoData")))
			return
		}
		rows := props.Summary
		w.Component(ctx, components.Table{
			Headers: []string{
				pageCtx.T("Dashboard.StageDuration.Columns.Stage"),
				pageCtx.T("Dashboard.StageDuration.Columns.Count"),
				pageCtx.T("Dashboard.StageDuration.Columns.Avg"),
				pageCtx.T("Dashboard.StageDuration.Columns.Median"),
				pageCtx.T("Dashboard.StageDuration.Columns.P90"),
			},
			Rows: len(rows),
			Row: func(ctx context.Context, w *components.Writer, i int) {
				components.Cell(w, rows[i].Stage)
				components.Cell(w, rows[i].Count)
				components.Cell(w, rows[i].Avg)
				components.Cell(w, rows[i].Median)
				components.Cell(w, rows[i].P90)
			},
		}.Component())
	})
	return components.Card("stage-duration", pageCtx.T("Dashboard.StageDuration.Title"), body)
}

func timeToCloseCard(pageCtx types.PageContextProvider, props *WorkflowProps) templ.Component {
	body := components.Func(func(ctx context.Context, w *components.Writer) {
		if props.TimeToCloseErr != nil {
			w.Component(ctx, sectionError(pageCtx, props.TimeToCloseErr))
			return
		}
		stats := props.TimeToClose
		if stats == nil {
			w.Component(ctx, components.Empty(pageCtx.T("Dashboard.Common.NoData")))
			return
		}
		w.Raw(`<div class="mb-3 text-xs opacity-70">`)
		w.Text(pageCtx.T("Dashboard.TimeToClose.Subtitle"))
		w.Raw(`</div><div class="grid grid-cols-2 gap-3 text-sm">`)
		w.Component(ctx, field(pageCtx.T("Dashboard.TimeToClose.Fields.Count"), stats.Count))
		w.Component(ctx, field(pageCtx.T("Dashboard.TimeToClose.Fields.Avg"), stats.Avg))
		w.Component(ctx, field(pageCtx.T("Dashboard.TimeToClose.Fields.Median"), stats.Median))
		w.Component(ctx, field(pageCtx.T("Dashboard.TimeToClose.Fields.P90"), stats.P90))
		w.Component(ctx, field(pageCtx.T("Dashboard.TimeToClose.Fields.Min"), stats.Min))
		w.Component(ctx, field(pageCtx.T("Dashboard.TimeToClose.Fields.Max"), stats.Max))
		w.Raw(`</div>`)
	})
	return components.Card("time-to-close", pageCtx.T("Dashboard.TimeToClose.Title"), body)
}

func breakdownCard(pageCtx types.PageContextProvider, props *WorkflowProps) templ.Component {
	body := components.Func(func(ctx context.Context, w *components.Writer) {
		w.Raw(`<form method="get" class="mb-3 flex items-end gap-2 text-xs"><label>`)
		w.Text(pageCtx.T("Dashboard.Breakdown.From"))
		w.Raw(`<input type="date" name="from"`)
		w.Attr("value", props.From)
		w.Raw(`></label><label>`)
		w.Text(pageCtx.T("Dashboard.Breakdown.To"))
		w.Raw(`<input type="date" name="to"`)
		w.Attr("value", props.To)
		w.Raw(`></label><button type="submit">`)
		w.Text(pageCtx.T("Dashboard.Breakdown.Apply"))
		w.Raw(`</button></form><div class="mb-2 text-xs opacity-70">`)
		if props.BreakdownCustom {
			w.Text(pageCtx.T("Dashboard.Breakdown.CustomSubtitle", map[string]interface{}{"From": props.From, "To": props.To}))
		} else {
			w.Text(pageCtx.T("Dashboard.Breakdown.Subtitle"))
		}
		w.Raw(`</div>`)
		if props.BreakdownErr != nil {
			w.Component(ctx, sectionError(pageCtx, props.BreakdownErr))
			return
		}
		if len(props.Breakdown) == 0 {
			w.Component(ctx, components.Empty(pageCtx.T("Dashboard.Common.NoData")))
			return
		}
		rows := props.Breakdown
		w.Component(ctx, components.Table{
			Headers: []string{
				pageCtx.T("Dashboard.Breakdown.Columns.Stage"),
				pageCtx.T("Dashboard.Breakdown.Columns.Median"),
				pageCtx.T("Dashboard.Breakdown.Columns.Previous"),
				pageCtx.T("Dashboard.Breakdown.Columns.Delta"),
				pageCtx.T("Dashboard.Breakdown.Columns.Trend"),
			},
			Rows: len(rows),
			Row: func(ctx context.Context, w *components.Writer, i int) {
				components.Cell(w, rows[i].Stage)
				components.Cell(w, rows[i].Median)
				components.Cell(w, rows[i].Previous)
				components.Cell(w, rows[i].Delta)
				w.Raw(`<td`)
				w.Attr("class", rows[i].TrendClass)
				w.Attr("data-trend", string(rows[i].Trend))
				w.Raw(`>`)
				w.Text(pageCtx.T("Dashboard.Breakdown.Trend." + string(rows[i].Trend)))
				w.Raw(`</td>`)
			},
			RowClass: func(i int) string {
				if rows[i].Bottleneck {
					return "bottleneck"
				}
				return ""
			},
		}.Component())
	})
	return components.Card("stage-breakdown", pageCtx.T("Dashboard.Breakdown.Title"), body)
}

// Workflow renders the lifecycle report of one workflow. Every card shows
// its own error so one failed report leaves the rest readable.
func Workflow(props *WorkflowProps) templ.Component {
	return components.Func(func(ctx context.Context, w *components.Writer) {
		pageCtx := composables.UsePageCtx(ctx)
		title := pageCtx.T("Dashboard.Title")
		content := components.Func(func(ctx context.Context, w *components.Writer) {
			w.Raw(`<header class="mb-4 flex items-center justify-between gap-3"><h1 class="text-xl font-semibold">`)
			w.Text(props.WorkflowName)
			w.Raw(`</h1>`)
			if props.WorkflowsErr != nil {
				w.Component(ctx, sectionError(pageCtx, props.WorkflowsErr))
			} else {
				w.Component(ctx, workflowSelector(props.Workflows))
			}
			w.Raw(`</header>`)
			w.Component(ctx, commandStrip(pageCtx, props))
			w.Raw(`<div class="grid gap-4 md:grid-cols-2">`)
			w.Component(ctx, slaBreachCard(pageCtx, props))
			w.Component(ctx, timeToCloseCard(pageCtx, props))
			w.Raw(`</div>`)
			w.Component(ctx, summaryCard(pageCtx, props))
			w.Component(ctx, stageAgingCard(pageCtx, props))
			w.Component(ctx, breakdownCard(pageCtx, props))
		})
		w.Component(ctx, page(title, content))
	})
}
