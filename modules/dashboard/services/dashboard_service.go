package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/sync/errgroup"

	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/lifecycle"
	"github.com/iota-uz/ats-console/pkg/session"
)

// Section is one independently loaded part of a page. A failed section
// keeps its error and never blanks the others.
type Section[T any] struct {
	Data T
	Err  error
}

func (s Section[T]) OK() bool {
	return s.Err == nil
}

func section[T any](data T, err error) Section[T] {
	if err != nil {
		var zero T
		return Section[T]{Data: zero, Err: err}
	}
	return Section[T]{Data: data}
}

type Breakdown struct {
	Stages     []lifecycle.ComparedStage
	Bottleneck string
	Current    backend.Window
	Previous   backend.Window
	// Custom is true when the caller chose the window.
	Custom bool
}

// WorkflowReport is everything the workflow page shows.
type WorkflowReport struct {
	WorkflowID  string
	Workflows   Section[[]backend.WorkflowListItem]
	SLADays     int
	StageAging  Section[[]backend.StageAgingItem]
	Breach      lifecycle.Breach
	Risk        lifecycle.RiskLevel
	Trend       lifecycle.Trend
	TimeToClose Section[*backend.TimeToCloseStats]
	Summary     Section[[]backend.StageDurationSummaryItem]
	Breakdown   Section[*Breakdown]
}

type DashboardService struct {
	defaultSLADays int
	now            func() time.Time
}

func NewDashboardService(defaultSLADays int) *DashboardService {
	return &DashboardService{
		defaultSLADays: lifecycle.SafeSLADays(float64(defaultSLADays)),
		now:            time.Now,
	}
}

// WithClock replaces the clock used for the default breakdown windows.
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

func (s *DashboardService) Workflows(ctx context.Context, client *backend.Client) Section[[]backend.WorkflowListItem] {
	return section(client.Workflows(ctx))
}

// SLADays is the policy's stage-aging SLA, or the configured default when
// the policy cannot be read.
func (s *DashboardService) SLADays(ctx context.Context, client *backend.Client) int {
	policy, err := client.Policy(ctx)
	if err != nil || policy == nil {
		return s.defaultSLADays
	}
	return lifecycle.SafeSLADays(policy.StageAgingSLADays)
}

// Report loads every section of the workflow page concurrently. window
// overrides the default last-30-days comparison; nil keeps the default.
func (s *DashboardService) Report(ctx context.Context, sess *session.Session, workflowID string, window *backend.Window) *WorkflowReport {
	report := &WorkflowReport{
		WorkflowID: strings.TrimSpace(workflowID),
		SLADays:    s.defaultSLADays,
		Risk:       lifecycle.RiskControlled,
		Trend:      lifecycle.TrendStable,
	}
	client := sess.Backend

	var g errgroup.Group
	g.Go(func() error {
		report.Workflows = s.Workflows(ctx, client)
		return nil
	})
	g.Go(func() error {
		report.SLADays = s.SLADays(ctx, client)
		return nil
	})
	g.Go(func() error {
		report.StageAging = section(client.StageAging(ctx, backend.StageAgingParams{WorkflowID: report.WorkflowID}))
		return nil
	})
	g.Go(func() error {
		report.TimeToClose = section(client.TimeToClose(ctx, backend.TimeToCloseParams{WorkflowID: report.WorkflowID}))
		return nil
	})
	g.Go(func() error {
		report.Summary = section(client.StageDurationSummary(ctx, report.WorkflowID))
		return nil
	})
	g.Go(func() error {
		report.Breakdown = section(s.breakdown(ctx, client, report.WorkflowID, window))
		return nil
	})
	_ = g.Wait()

	if report.StageAging.OK() {
		report.Breach = lifecycle.ComputeBreach(report.StageAging.Data, float64(report.SLADays))
		report.Risk = lifecycle.Risk(report.Breach.BreachPercent)
		report.Trend = sess.Trends.Observe(report.WorkflowID, report.Breach.BreachPercent)
	}
	return report
}

func (s *DashboardService) breakdown(ctx context.Context, client *backend.Client, workflowID string, window *backend.Window) (*Breakdown, error) {
	out := &Breakdown{}
	if window != nil && !window.From.IsZero() && !window.To.IsZero() && window.To.After(window.From) {
		size := window.To.Sub(window.From)
		out.Current = *window
		out.Previous = backend.Window{From: window.From.Add(-size), To: window.From}
		out.Custom = true
	} else {
		out.Current, out.Previous = lifecycle.Windows(s.now())
	}

	var (
		g        errgroup.Group
		current  []backend.StageDurationBreakdownItem
		previous []backend.StageDurationBreakdownItem
	)
	g.Go(func() error {
		var err error
		current, err = client.StageDurationBreakdown(ctx, workflowID, out.Current)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = client.StageDurationBreakdown(ctx, workflowID, out.Previous)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.Stages = lifecycle.CompareBreakdown(current, previous)
	out.Bottleneck = lifecycle.Bottleneck(current)
	return out, nil
}

// StageAgingExport loads what the spreadsheet export needs.
func (s *DashboardService) StageAgingExport(ctx context.Context, client *backend.Client, workflowID string) ([]backend.StageAgingItem, int, error) {
	var (
		g       errgroup.Group
		items   []backend.StageAgingItem
		slaDays int
	)
	g.Go(func() error {
		var err error
		items, err = client.StageAging(ctx, backend.StageAgingParams{WorkflowID: strings.TrimSpace(workflowID)})
		return err
	})
	g.Go(func() error {
		slaDays = s.SLADays(ctx, client)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, slaDays, nil
}

// FilterWorkflows ranks workflows by fuzzy match of query against their
// names. An empty query keeps the backend order.
func FilterWorkflows(items []backend.WorkflowListItem, query string) []backend.WorkflowListItem {
	query = strings.TrimSpace(query)
	if query == "" {
		return items
	}
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
		if names[i] == "" {
			names[i] = item.ID
		}
	}
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)
	out := make([]backend.WorkflowListItem, 0, len(ranks))
	for _, rank := range ranks {
		out = append(out, items[rank.OriginalIndex])
	}
	return out
}

// DefaultWorkflow is the first active workflow, else the first one.
func DefaultWorkflow(items []backend.WorkflowListItem) (backend.WorkflowListItem, bool) {
	for _, item := range items {
		if item.Active {
			return item, true
		}
	}
	if len(items) > 0 {
		return items[0], true
	}
	return backend.WorkflowListItem{}, false
}
