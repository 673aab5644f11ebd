package controllers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"

	"github.com/iota-uz/ats-console/modules/dashboard/presentation/templates/pages/dashboard"
	"github.com/iota-uz/ats-console/modules/dashboard/presentation/viewmodels"
	"github.com/iota-uz/ats-console/modules/dashboard/services"
	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/composables"
	"github.com/iota-uz/ats-console/pkg/export"
	"github.com/iota-uz/ats-console/pkg/httpapi"
	"github.com/iota-uz/ats-console/pkg/intl"
	"github.com/iota-uz/ats-console/pkg/middleware"
)

const dateLayout = "2006-01-02"

type DashboardController struct {
	app              application.Application
	dashboardService *services.DashboardService
	basePath         string
}

func NewDashboardController(app application.Application) application.Controller {
	return &DashboardController{
		app:              app,
		dashboardService: app.Service(services.DashboardService{}).(*services.DashboardService),
		basePath:         "/dashboard",
	}
}

func (c *DashboardController) Key() string {
	return c.basePath
}

func (c *DashboardController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.ProvideUXConfig(dashboard.UXModule))
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/workflows/{id}", c.Show).Methods(http.MethodGet)
	router.HandleFunc("/workflows/{id}/stage-aging.xlsx", c.ExportStageAging).Methods(http.MethodGet)
}

func workflowURL(id string) string {
	return "/dashboard/workflows/" + url.PathEscape(id)
}

// List shows the workflow picker. With auto=1 it jumps straight to the
// default workflow when there is one.
func (c *DashboardController) List(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	props := &dashboard.IndexProps{Query: query}

	sess, err := composables.UseSession(r.Context())
	if err != nil {
		props.Err = backend.ErrMissingIdentity
		templ.Handler(dashboard.Index(props)).ServeHTTP(w, r)
		return
	}

	workflows := c.dashboardService.Workflows(r.Context(), sess.Backend)
	if !workflows.OK() {
		props.Err = workflows.Err
		templ.Handler(dashboard.Index(props)).ServeHTTP(w, r)
		return
	}
	if r.URL.Query().Get("auto") == "1" {
		if wf, ok := services.DefaultWorkflow(workflows.Data); ok {
			http.Redirect(w, r, workflowURL(wf.ID), http.StatusFound)
			return
		}
	}
	props.Workflows = viewmodels.Workflows(services.FilterWorkflows(workflows.Data, query), "")
	templ.Handler(dashboard.Index(props)).ServeHTTP(w, r)
}

// parseWindow reads the from/to query dates. Both are inclusive days; an
// incomplete or inverted range yields nil so the default windows apply.
func parseWindow(r *http.Request) (*backend.Window, string, string) {
	rawFrom := strings.TrimSpace(r.URL.Query().Get("from"))
	rawTo := strings.TrimSpace(r.URL.Query().Get("to"))
	from, ferr := time.Parse(dateLayout, rawFrom)
	to, terr := time.Parse(dateLayout, rawTo)
	if ferr != nil || terr != nil || to.Before(from) {
		return nil, rawFrom, rawTo
	}
	return &backend.Window{From: from, To: to.Add(24 * time.Hour)}, rawFrom, rawTo
}

func (c *DashboardController) Show(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	window, from, to := parseWindow(r)
	props := &dashboard.WorkflowProps{
		WorkflowID:   id,
		WorkflowName: id,
		From:         from,
		To:           to,
		ExportURL:    workflowURL(id) + "/stage-aging.xlsx",
	}

	sess, err := composables.UseSession(r.Context())
	if err != nil {
		err = backend.ErrMissingIdentity
		props.WorkflowsErr = err
		props.StageAgingErr = err
		props.SummaryErr = err
		props.TimeToCloseErr = err
		props.BreakdownErr = err
		templ.Handler(dashboard.Workflow(props)).ServeHTTP(w, r)
		return
	}

	report := c.dashboardService.Report(r.Context(), sess, id, window)
	props.SLADays = report.SLADays
	props.Breach = report.Breach

	if report.Workflows.OK() {
		props.Workflows = viewmodels.Workflows(report.Workflows.Data, report.WorkflowID)
		for _, wf := range props.Workflows {
			if wf.Selected {
				props.WorkflowName = wf.Name
			}
		}
	} else {
		props.WorkflowsErr = report.Workflows.Err
	}

	props.StageAgingErr = report.StageAging.Err
	props.StageAging = viewmodels.StageAgingRows(report.StageAging.Data, report.SLADays)

	var avg *float64
	if report.TimeToClose.OK() && report.TimeToClose.Data != nil {
		avg = &report.TimeToClose.Data.AvgSeconds
	}
	props.Strip = viewmodels.Strip(len(report.StageAging.Data), report.Breach, avg, report.Risk, report.Trend)
	props.TimeToCloseErr = report.TimeToClose.Err
	props.TimeToClose = viewmodels.TimeToCloseStats(report.TimeToClose.Data)

	props.SummaryErr = report.Summary.Err
	props.Summary = viewmodels.SummaryRows(report.Summary.Data)

	props.BreakdownErr = report.Breakdown.Err
	if b := report.Breakdown.Data; b != nil {
		props.Breakdown = viewmodels.BreakdownRows(b.Stages, b.Bottleneck)
		props.BreakdownCustom = b.Custom
	}

	templ.Handler(dashboard.Workflow(props)).ServeHTTP(w, r)
}

func (c *DashboardController) ExportStageAging(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, err := composables.UseSession(r.Context())
	if err != nil {
		http.Error(w, backend.ErrMissingIdentity.Error(), http.StatusUnauthorized)
		return
	}
	items, slaDays, err := c.dashboardService.StageAgingExport(r.Context(), sess.Backend, id)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).WithField("workflow_id", id).Warn("stage aging export failed")
		http.Error(w, err.Error(), httpapi.StatusFor(err))
		return
	}

	ctx := r.Context()
	source := &export.StageAgingSource{
		Items:   items,
		SLADays: float64(slaDays),
		Sheet:   intl.T(ctx, "Dashboard.Export.Sheet"),
		Labels: export.StageAgingLabels{
			Application: intl.T(ctx, "Dashboard.Export.Application"),
			Stage:       intl.T(ctx, "Dashboard.Export.Stage"),
			Age:         intl.T(ctx, "Dashboard.Export.Age"),
			AgeSeconds:  intl.T(ctx, "Dashboard.Export.AgeSeconds"),
			OverSLA:     intl.T(ctx, "Dashboard.Export.OverSLA"),
			Yes:         intl.T(ctx, "Dashboard.Export.Yes"),
			No:          intl.T(ctx, "Dashboard.Export.No"),
		},
	}
	data, err := export.NewExporter(export.DefaultOptions()).Export(ctx, source)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="stage-aging-%s.xlsx"`, url.PathEscape(id)))
	if _, err := w.Write(data); err != nil {
		composables.UseLogger(ctx).WithError(err).Warn("write export")
	}
}
