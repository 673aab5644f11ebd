package viewmodels

import (
	"fmt"
	"math"

	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/lifecycle"
)

const dash = "—"

type Workflow struct {
	ID       string
	Name     string
	Active   bool
	Selected bool
}

type StageAgingRow struct {
	ApplicationID string
	Stage         string
	Age           string
	OverSLA       bool
}

type SummaryRow struct {
	Stage  string
	Count  string
	Avg    string
	Median string
	P90    string
}

type BreakdownRow struct {
	Stage      string
	Median     string
	Previous   string
	Delta      string
	Trend      lifecycle.StageTrend
	TrendClass string
	Bottleneck bool
}

type CommandStrip struct {
	OpenCount      string
	BreachCount    string
	BreachPercent  string
	AvgTimeToClose string
	Risk           lifecycle.RiskLevel
	RiskClass      string
	Trend          lifecycle.Trend
}

func Workflows(items []backend.WorkflowListItem, selected string) []Workflow {
	out := make([]Workflow, len(items))
	for i, item := range items {
		name := item.Name
		if name == "" {
			name = item.ID
		}
		out[i] = Workflow{ID: item.ID, Name: name, Active: item.Active, Selected: item.ID == selected}
	}
	return out
}

func StageAgingRows(items []backend.StageAgingItem, slaDays int) []StageAgingRow {
	out := make([]StageAgingRow, len(items))
	for i, item := range items {
		out[i] = StageAgingRow{
			ApplicationID: item.ApplicationID,
			Stage:         item.CurrentStage,
			Age:           lifecycle.FormatDuration(item.AgeSeconds),
			OverSLA:       lifecycle.Breached(item, float64(slaDays)),
		}
	}
	return out
}

func SummaryRows(items []backend.StageDurationSummaryItem) []SummaryRow {
	out := make([]SummaryRow, len(items))
	for i, item := range items {
		out[i] = SummaryRow{
			Stage:  item.Stage,
			Count:  Count(item.Count),
			Avg:    lifecycle.FormatDuration(item.AvgDurationSeconds),
			Median: lifecycle.FormatDuration(item.MedianDurationSeconds),
			P90:    lifecycle.FormatDuration(item.P90DurationSeconds),
		}
	}
	return out
}

func BreakdownRows(stages []lifecycle.ComparedStage, bottleneck string) []BreakdownRow {
	out := make([]BreakdownRow, len(stages))
	for i, stage := range stages {
		row := BreakdownRow{
			Stage:      stage.Stage,
			Median:     lifecycle.FormatDuration(stage.MedianSeconds),
			Previous:   dash,
			Delta:      dash,
			Trend:      stage.Trend,
			TrendClass: lifecycle.StageTrendClass(stage.Trend),
			Bottleneck: bottleneck != "" && stage.Stage == bottleneck,
		}
		if stage.PreviousMedian != nil {
			row.Previous = lifecycle.FormatDuration(*stage.PreviousMedian)
		}
		if stage.Delta != nil {
			row.Delta = lifecycle.FormatSignedDuration(*stage.Delta)
		}
		out[i] = row
	}
	return out
}

// Strip builds the KPI strip. avgTimeToClose is nil when the report failed.
func Strip(openCount int, breach lifecycle.Breach, avgTimeToClose *float64, risk lifecycle.RiskLevel, trend lifecycle.Trend) CommandStrip {
	strip := CommandStrip{
		OpenCount:      fmt.Sprintf("%d", max(0, openCount)),
		BreachCount:    fmt.Sprintf("%d", max(0, breach.BreachCount)),
		BreachPercent:  Percent(breach.BreachPercent),
		AvgTimeToClose: dash,
		Risk:           risk,
		RiskClass:      lifecycle.RiskBadge(risk),
		Trend:          trend,
	}
	if avgTimeToClose != nil && !math.IsNaN(*avgTimeToClose) && !math.IsInf(*avgTimeToClose, 0) {
		strip.AvgTimeToClose = lifecycle.FormatDuration(*avgTimeToClose)
	}
	return strip
}

// Percent formats with one decimal. Non-finite and negative values read 0.
func Percent(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		p = 0
	}
	return fmt.Sprintf("%.1f%%", p)
}

func Count(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return "0"
	}
	return fmt.Sprintf("%d", int64(math.Floor(n)))
}

type TimeToClose struct {
	Count  string
	Avg    string
	Median string
	P90    string
	Min    string
	Max    string
}

func TimeToCloseStats(stats *backend.TimeToCloseStats) *TimeToClose {
	if stats == nil {
		return nil
	}
	return &TimeToClose{
		Count:  Count(stats.Count),
		Avg:    lifecycle.FormatDuration(stats.AvgSeconds),
		Median: lifecycle.FormatDuration(stats.MedianSeconds),
		P90:    lifecycle.FormatDuration(stats.P90Seconds),
		Min:    lifecycle.FormatDuration(stats.MinSeconds),
		Max:    lifecycle.FormatDuration(stats.MaxSeconds),
	}
}
