package controllers_test

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/ats-console/modules/core"
	"github.com/iota-uz/ats-console/modules/dashboard"
	"github.com/iota-uz/ats-console/pkg/export"
	"github.com/iota-uz/ats-console/pkg/itf"
)

const (
	workflowsJSON  = `[{"id":"wf-1","name":"Engineering","active":false},{"id":"wf-2","name":"Sales","active":true}]`
	stageAgingJSON = `[{"application_id":"a-1","workflow_id":"wf-1","current_stage":"screening","age_seconds":100},` +
		`{"application_id":"a-2","workflow_id":"wf-1","current_stage":"interview","age_seconds":700000}]`
	timeToCloseJSON = `{"count":4,"avg_seconds":172800,"median_seconds":86400,"p90_seconds":259200,"min_seconds":3600,"max_seconds":345600}`
	summaryJSON     = `[{"stage":"screening","count":10,"avg_duration_seconds":3600,"median_duration_seconds":1800,"p90_duration_seconds":7200}]`
	breakdownJSON   = `[{"stage":"screening","count":3,"median_seconds":7200,"p90_seconds":9000},{"stage":"offer","count":1,"median_seconds":60,"p90_seconds":60}]`
)

func scriptedBackend(t *testing.T) *itf.Backend {
	t.Helper()
	return itf.NewBackend(t).
		Me("en").
		JSON("/workflows", http.StatusOK, workflowsJSON).
		JSON("/reporting/stage-aging", http.StatusOK, stageAgingJSON).
		JSON("/reporting/time-to-close", http.StatusOK, timeToCloseJSON).
		JSON("/reporting/stage-duration-summary", http.StatusOK, summaryJSON).
		JSON("/reporting/stage-duration-breakdown", http.StatusOK, breakdownJSON)
}

func newEnv(t *testing.T, b *itf.Backend) *itf.TestEnvironment {
	t.Helper()
	return itf.NewTestContext().
		WithModules(
			core.NewModule(nil),
			dashboard.NewModule(&dashboard.ModuleOptions{SLADays: 7}),
		).
		WithNavItems(core.NavItems...).
		WithBackend(b).
		Build(t)
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

func TestList_AutoRedirectsToDefaultWorkflow(t *testing.T) {
	env := newEnv(t, scriptedBackend(t))

	rec := env.Get("/dashboard?auto=1")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard/workflows/wf-2", rec.Header().Get("Location"))
}

func TestList_FiltersByQuery(t *testing.T) {
	env := newEnv(t, scriptedBackend(t))

	rec := env.Get("/dashboard?q=eng")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := itf.Document(t, rec)
	items := doc.Find("#workflows li[data-workflow]")
	require.Equal(t, 1, items.Length())
	id, _ := items.Attr("data-workflow")
	assert.Equal(t, "wf-1", id)
	value, _ := doc.Find(`input[name="q"]`).Attr("value")
	assert.Equal(t, "eng", value)
}

func TestList_WithoutIdentityShowsBanner(t *testing.T) {
	b := scriptedBackend(t)
	env := newEnv(t, b)

	rec := env.Do(env.Anonymous(http.MethodGet, "/dashboard?auto=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	doc := itf.Document(t, rec)
	assert.Contains(t, text(doc.Find("#workflows [role=alert]")), "No identity selected")
	assert.Zero(t, b.Calls(http.MethodGet, "/workflows"))
}

func TestShow_RendersEverySection(t *testing.T) {
	env := newEnv(t, scriptedBackend(t))

	rec := env.Get("/dashboard/workflows/wf-1")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := itf.Document(t, rec)

	assert.Equal(t, "Engineering", text(doc.Find("header h1")))
	current, _ := doc.Find(`[data-workflow="wf-1"]`).Attr("aria-current")
	assert.Equal(t, "page", current)

	values := doc.Find("#command-strip .stat-value")
	require.Equal(t, 4, values.Length())
	assert.Equal(t, "2", text(values.Eq(0)))
	assert.Equal(t, "1", text(values.Eq(1)))
	assert.Equal(t, "50.0%", text(values.Eq(2)))
	assert.Equal(t, "2d", text(values.Eq(3)))
	level, _ := doc.Find("#command-strip [data-risk]").Attr("data-level")
	assert.Equal(t, "critical", level)

	assert.Equal(t, "Needs attention", text(doc.Find("#sla-breach [data-breach-badge]")))
	assert.Equal(t, 1, doc.Find("#stage-aging tr.over-sla").Length())
	href, _ := doc.Find("#stage-aging a[data-export]").Attr("href")
	assert.Equal(t, "/dashboard/workflows/wf-1/stage-aging.xlsx", href)

	assert.Equal(t, 1, doc.Find("#stage-duration tbody tr").Length())
	assert.Contains(t, text(doc.Find("#time-to-close")), "1d")
	assert.Equal(t, 2, doc.Find("#stage-breakdown tbody tr").Length())
	assert.Equal(t, "screening", text(doc.Find("#stage-breakdown tr.bottleneck td").First()))
	assert.Zero(t, doc.Find("[role=alert]").Length())
}

func TestShow_FailedSectionDoesNotBlankOthers(t *testing.T) {
	b := scriptedBackend(t).
		JSON("/reporting/stage-duration-summary", http.StatusInternalServerError, `down`)
	env := newEnv(t, b)

	rec := env.Get("/dashboard/workflows/wf-1")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := itf.Document(t, rec)

	assert.Contains(t, text(doc.Find("#stage-duration [role=alert]")), "Failed to fetch stage duration summary")
	assert.Zero(t, doc.Find("#stage-aging [role=alert]").Length())
	assert.Equal(t, 2, doc.Find("#stage-aging tbody tr").Length())
	assert.Equal(t, 2, doc.Find("#stage-breakdown tbody tr").Length())
}

func TestShow_CustomWindow(t *testing.T) {
	b := itf.NewBackend(t).Me("en").
		JSON("/workflows", http.StatusOK, workflowsJSON).
		JSON("/reporting/stage-aging", http.StatusOK, `[]`).
		JSON("/reporting/time-to-close", http.StatusOK, timeToCloseJSON).
		JSON("/reporting/stage-duration-summary", http.StatusOK, `[]`)
	var (
		mu    sync.Mutex
		froms []string
	)
	b.Handle(http.MethodGet, "/reporting/stage-duration-breakdown", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		froms = append(froms, r.URL.Query().Get("from")+"/"+r.URL.Query().Get("to"))
		mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
	})
	env := newEnv(t, b)

	rec := env.Get("/dashboard/workflows/wf-1?from=2026-02-01&to=2026-02-10")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := itf.Document(t, rec)

	assert.Contains(t, text(doc.Find("#stage-breakdown")), "2026-02-01 to 2026-02-10")
	value, _ := doc.Find(`#stage-breakdown input[name="from"]`).Attr("value")
	assert.Equal(t, "2026-02-01", value)
	assert.ElementsMatch(t, []string{
		"2026-02-01T00:00:00Z/2026-02-11T00:00:00Z",
		"2026-01-22T00:00:00Z/2026-02-01T00:00:00Z",
	}, froms)
	assert.Equal(t, "No data yet.", text(doc.Find("#stage-aging .empty")))
}

func TestExportStageAging(t *testing.T) {
	env := newEnv(t, scriptedBackend(t))

	rec := env.Get("/dashboard/workflows/wf-1/stage-aging.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "stage-aging-wf-1.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Stage aging")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Over SLA", rows[0][4])
	assert.Equal(t, "no", rows[1][4])
	assert.Equal(t, "yes", rows[2][4])
}

func TestExportStageAging_Errors(t *testing.T) {
	b := scriptedBackend(t).JSON("/reporting/stage-aging", http.StatusInternalServerError, `down`)
	env := newEnv(t, b)

	rec := env.Get("/dashboard/workflows/wf-1/stage-aging.xlsx")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = env.Do(env.Anonymous(http.MethodGet, "/dashboard/workflows/wf-1/stage-aging.xlsx", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
