package components

import (
	"context"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
)

type AlertKind string

const (
	AlertInfo    AlertKind = "info"
	AlertSuccess AlertKind = "success"
	AlertWarning AlertKind = "warning"
	AlertDanger  AlertKind = "danger"
)

var alertClasses = map[AlertKind]string{
	AlertInfo:    "border-sky-700 bg-sky-950 text-sky-200",
	AlertSuccess: "border-emerald-700 bg-emerald-950 text-emerald-200",
	AlertWarning: "border-amber-700 bg-amber-950 text-amber-200",
	AlertDanger:  "border-red-700 bg-red-950 text-red-200",
}

// Alert renders a banner. Empty messages render nothing.
func Alert(kind AlertKind, message string) templ.Component {
	return Func(func(ctx context.Context, w *Writer) {
		if message == "" {
			return
		}
		w.Raw(`<div role="alert"`)
		w.Attr("class", twmerge.Merge("rounded-md border px-4 py-3 text-sm", alertClasses[kind]))
		w.Attr("data-alert", string(kind))
		w.Raw(`>`)
		w.Text(message)
		w.Raw(`</div>`)
	})
}

// Badge renders a pill; class is merged over the neutral base.
func Badge(text, class string) templ.Component {
	return Func(func(ctx context.Context, w *Writer) {
		w.Raw(`<span`)
		w.Attr("class", twmerge.Merge("inline-flex items-center rounded-full px-2 py-0.5 text-xs font-medium bg-slate-800 text-slate-200", class))
		w.Raw(`>`)
		w.Text(text)
		w.Raw(`</span>`)
	})
}

// Card wraps body in a titled panel. id is optional.
func Card(id, title string, body templ.Component) templ.Component {
	return Func(func(ctx context.Context, w *Writer) {
		w.Raw(`<section class="card rounded-lg border border-slate-700 p-4"`)
		if id != "" {
			w.Attr("id", id)
		}
		w.Raw(`>`)
		if title != "" {
			w.Raw(`<h2 class="mb-3 text-sm font-semibold uppercase tracking-wide">`)
			w.Text(title)
			w.Raw(`</h2>`)
		}
		w.Component(ctx, body)
		w.Raw(`</section>`)
	})
}

// Stat renders one labelled figure of a command strip.
func Stat(label, value string, extra templ.Component) templ.Component {
	return Func(func(ctx context.Context, w *Writer) {
		w.Raw(`<div class="stat flex flex-col gap-1"><span class="text-xs opacity-70">`)
		w.Text(label)
		w.Raw(`</span><span class="stat-value text-lg font-semibold">`)
		w.Text(value)
		w.Raw(`</span>`)
		w.Component(ctx, extra)
		w.Raw(`</div>`)
	})
}

func Empty(message string) templ.Component {
	return Func(func(ctx context.Context, w *Writer) {
		w.Raw(`<p class="empty text-sm opacity-70">`)
		w.Text(message)
		w.Raw(`</p>`)
	})
}

// Table renders a header row and pre-escaped cells produced by row.
type Table struct {
	Headers []string
	Rows    int
	// Row renders the cells of row i; RowClass may flag it.
	Row      func(ctx context.Context, w *Writer, i int)
	RowClass func(i int) string
}

func (t Table) Component() templ.Component {
	return Func(func(ctx context.Context, w *Writer) {
		w.Raw(`<table class="w-full text-left text-sm"><thead><tr>`)
		for _, h := range t.Headers {
			w.Raw(`<th class="px-2 py-1 font-medium">`)
			w.Text(h)
			w.Raw(`</th>`)
		}
		w.Raw(`</tr></thead><tbody>`)
		for i := 0; i < t.Rows; i++ {
			w.Raw(`<tr`)
			if t.RowClass != nil {
				if class := t.RowClass(i); class != "" {
					w.Attr("class", class)
				}
			}
			w.Raw(`>`)
			t.Row(ctx, w, i)
			w.Raw(`</tr>`)
		}
		w.Raw(`</tbody></table>`)
	})
}

// Cell writes an escaped table cell.
func Cell(w *Writer, text string) {
	w.Raw(`<td class="px-2 py-1">`)
	w.Text(text)
	w.Raw(`</td>`)
}
