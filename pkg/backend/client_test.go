package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithIdentity("org-1", "user-1"))
	require.NoError(t, err)
	return c, &calls
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New("  ")
	require.ErrorIs(t, err, ErrMissingBaseURL)

	_, err = New("not a url")
	require.Error(t, err)
}

func TestClient_MissingIdentity_NoNetwork(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})

	_, err := c.WithIdentity("org-1", " ").Me(context.Background())
	require.Error(t, err)
	assert.True(t, IsMissingIdentity(err))
	assert.Equal(t, KindMissingIdentity, KindOf(err))
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestClient_SendsIdentityHeaders(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "org-1", r.Header.Get(HeaderOrgID))
		assert.Equal(t, "user-1", r.Header.Get(HeaderUserID))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "/ux/applications", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"module":"applications","config":{"layout":"compact"}}`)
	})

	got, err := c.UXConfig(context.Background(), " applications ")
	require.NoError(t, err)
	assert.Equal(t, "applications", got.Module)
	require.NotNil(t, got.Config.Layout)
	assert.Equal(t, LayoutCompact, *got.Config.Layout)
}

func TestClient_UXConfig_Normalizes(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"module":42,"config":{"layout":"wide","theme":"light","flags":{"a":true,"b":"yes","c":false}}}`)
	})

	got, err := c.UXConfig(context.Background(), "dashboard")
	require.NoError(t, err)
	assert.Equal(t, "dashboard", got.Module)
	assert.Nil(t, got.Config.Layout)
	require.NotNil(t, got.Config.Theme)
	assert.Equal(t, ThemeLight, *got.Config.Theme)
	assert.Equal(t, map[string]bool{"a": true, "c": false}, got.Config.Flags)
}

func TestClient_UXConfig_RejectsMissingConfig(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"module":"dashboard"}`)
	})

	_, err := c.UXConfig(context.Background(), "dashboard")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestClient_UXConfig_StatusErrorMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, "upstream down\n")
	})

	_, err := c.UXConfig(context.Background(), "dashboard")
	require.Error(t, err)
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindNetwork, be.Kind)
	assert.Equal(t, http.StatusBadGateway, be.Status)
	assert.Equal(t, "Failed to fetch UX config (502 Bad Gateway): upstream down", be.Message)
}

func TestClient_UXVersions_Forbidden(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, `{"detail":"nope"}`)
	})

	versions, err := c.UXVersions(context.Background(), "dashboard")
	require.Error(t, err)
	assert.True(t, IsForbidden(err))
	assert.Equal(t, "Insufficient permissions", err.Error())
	assert.Empty(t, versions)
}

func TestClient_UXVersions_Decodes(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ux/dashboard/versions", r.URL.Path)
		writeJSON(w, http.StatusOK, `[
			{"version":2,"audit_log_id":"a2","created_at":"2024-02-01T00:00:00Z","actor_id":"u","config":{"theme":"dark"},"diff":{"theme":{"from":"light","to":"dark"}}},
			{"version":1,"audit_log_id":"a1","created_at":"2024-01-01T00:00:00Z","actor_id":"u","config":{"theme":"light"}}
		]`)
	})

	versions, err := c.UXVersions(context.Background(), "dashboard")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	require.NotNil(t, versions[0].Diff)
	assert.Equal(t, "dark", *versions[0].Diff.Theme.To)
	assert.Nil(t, versions[1].Diff)
}

func TestClient_RollbackUX(t *testing.T) {
	t.Run("posts version", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var body rollbackRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, 3, body.Version)
			writeJSON(w, http.StatusOK, `{"module":"dashboard","config":{"layout":"dense"}}`)
		})
		got, err := c.RollbackUX(context.Background(), "dashboard", 3)
		require.NoError(t, err)
		assert.Equal(t, LayoutDense, *got.Config.Layout)
	})

	t.Run("not found", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, `{}`)
		})
		_, err := c.RollbackUX(context.Background(), "dashboard", 9)
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		assert.Equal(t, "Version not found", err.Error())
	})

	t.Run("forbidden", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusForbidden, `{}`)
		})
		_, err := c.RollbackUX(context.Background(), "dashboard", 1)
		assert.True(t, IsForbidden(err))
	})

	t.Run("version below one never reaches backend", func(t *testing.T) {
		c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		_, err := c.RollbackUX(context.Background(), "dashboard", 0)
		require.Error(t, err)
		assert.Zero(t, atomic.LoadInt32(calls))
	})
}

func TestClient_Policy_DefaultsSLA(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"organization_id":"org-1","require_4eyes_on_hire":true,"require_4eyes_on_ux_rollback":false,"created_at":"x","updated_at":"y"}`)
	})

	p, err := c.Policy(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 7.0, p.StageAgingSLADays, 0)
	assert.True(t, p.Require4EyesOnHire)
	assert.Nil(t, p.CandidateRetentionDays)
}

func TestClient_Policy_RejectsMissingFlags(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"organization_id":"org-1","require_4eyes_on_ux_rollback":false,"created_at":"x","updated_at":"y"}`)
	})

	_, err := c.Policy(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Invalid require_4eyes_on_hire", err.Error())
}

func TestClient_Workflows(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":"wf-1","name":"Engineering","active":true}]`)
	})
	items, err := c.Workflows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []WorkflowListItem{{ID: "wf-1", Name: "Engineering", Active: true}}, items)

	c, _ = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":"  ","name":"x","active":true}]`)
	})
	_, err = c.Workflows(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Invalid id", err.Error())
}

func TestClient_StageAging(t *testing.T) {
	limit, offset := 50, 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "wf-1", r.URL.Query().Get("workflow_id"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		writeJSON(w, http.StatusOK, `[{"application_id":"a","workflow_id":"wf-1","current_stage":"screen","age_seconds":100}]`)
	})

	items, err := c.StageAging(context.Background(), StageAgingParams{WorkflowID: "wf-1", Limit: &limit, Offset: &offset})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.InDelta(t, 100, items[0].AgeSeconds, 0)
}

func TestClient_StageAging_RejectsBadShapes(t *testing.T) {
	cases := map[string]struct {
		body string
		msg  string
	}{
		"not an array":   {body: `{"items":[]}`, msg: "Invalid stage aging response"},
		"null":           {body: `null`, msg: "Invalid stage aging response"},
		"missing age":    {body: `[{"application_id":"a","workflow_id":"w","current_stage":"s"}]`, msg: "Invalid age_seconds"},
		"age is string":  {body: `[{"application_id":"a","workflow_id":"w","current_stage":"s","age_seconds":"1"}]`, msg: "Invalid age_seconds"},
		"stage is a num": {body: `[{"application_id":"a","workflow_id":"w","current_stage":5,"age_seconds":1}]`, msg: "Invalid current_stage"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tc.body)
			})
			items, err := c.StageAging(context.Background(), StageAgingParams{})
			require.Error(t, err)
			assert.Nil(t, items)
			assert.True(t, IsValidation(err))
			assert.Equal(t, tc.msg, err.Error())
		})
	}
}

func TestClient_TimeToClose(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "hired", r.URL.Query().Get("result"))
		writeJSON(w, http.StatusOK, `{"count":3,"avg_seconds":10,"median_seconds":9,"p90_seconds":20,"min_seconds":1,"max_seconds":30}`)
	})

	stats, err := c.TimeToClose(context.Background(), TimeToCloseParams{Result: ResultHired})
	require.NoError(t, err)
	assert.InDelta(t, 3, stats.Count, 0)
	assert.InDelta(t, 30, stats.MaxSeconds, 0)
}

func TestClient_StageDurationSummary_RequiresWorkflow(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := c.StageDurationSummary(context.Background(), "   ")
	require.Error(t, err)
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestClient_StageDurationBreakdown(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reporting/stage-duration-breakdown", r.URL.Path)
		assert.Equal(t, "2024-01-01T00:00:00Z", r.URL.Query().Get("from"))
		assert.Empty(t, r.URL.Query().Get("to"))
		writeJSON(w, http.StatusOK, `{"items":[{"stage":"screen","count":2,"median_seconds":60,"p90_seconds":120}]}`)
	})

	items, err := c.StageDurationBreakdown(context.Background(), "wf-1", Window{From: from})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "screen", items[0].Stage)
}

func TestClient_CancelledFetchYieldsNoData(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, `[]`)
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var items []StageAgingItem
	var err error
	go func() {
		defer close(done)
		items, err = c.StageAging(ctx, StageAgingParams{})
	}()
	cancel()
	<-done

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, items)
}

func TestClient_RecordsRequestMetrics(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, `{}`)
	})
	_, _ = c.UXVersions(context.Background(), "metrics-probe")

	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range mfs {
		if mf.GetName() != "ats_console_backend_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := labelsToMap(m)
			if labels["endpoint"] == "ux_versions" && labels["result"] == "forbidden" {
				require.GreaterOrEqual(t, m.GetCounter().GetValue(), float64(1))
				found = true
			}
		}
	}
	require.True(t, found, "expected ats_console_backend_requests_total{endpoint=ux_versions,result=forbidden}")
}

func labelsToMap(m *dto.Metric) map[string]string {
	out := map[string]string{}
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}
