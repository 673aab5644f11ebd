package lifecycle

import (
	"math"
	"time"

	"github.com/iota-uz/ats-console/pkg/backend"
)

// BreakdownWindowSize is the length of each comparison window.
const BreakdownWindowSize = 30 * 24 * time.Hour

// stageThreshold is the median change, in seconds, below which a stage is
// considered unchanged.
const stageThreshold = 60

type StageTrend string

const (
	StageFaster StageTrend = "faster"
	StageSlower StageTrend = "slower"
	StageStable StageTrend = "stable"
	StageNew    StageTrend = "new"
)

type ComparedStage struct {
	backend.StageDurationBreakdownItem
	PreviousMedian *float64
	Delta          *float64
	Trend          StageTrend
}

// Windows returns the current window ending at now and the window of the
// same size right before it.
func Windows(now time.Time) (current, previous backend.Window) {
	current = backend.Window{From: now.Add(-BreakdownWindowSize), To: now}
	previous = backend.Window{From: current.From.Add(-BreakdownWindowSize), To: current.From}
	return current, previous
}

// CompareBreakdown pairs each current stage with the previous window's
// median by stage name. Stages absent from previous are marked new.
func CompareBreakdown(current, previous []backend.StageDurationBreakdownItem) []ComparedStage {
	byStage := make(map[string]float64, len(previous))
	for _, item := range previous {
		byStage[item.Stage] = item.MedianSeconds
	}
	out := make([]ComparedStage, 0, len(current))
	for _, item := range current {
		row := ComparedStage{StageDurationBreakdownItem: item, Trend: StageNew}
		if prev, ok := byStage[item.Stage]; ok {
			delta := item.MedianSeconds - prev
			row.PreviousMedian = &prev
			row.Delta = &delta
			switch {
			case math.Abs(delta) < stageThreshold:
				row.Trend = StageStable
			case delta < 0:
				row.Trend = StageFaster
			default:
				row.Trend = StageSlower
			}
		}
		out = append(out, row)
	}
	return out
}

// Bottleneck returns the stage with the highest median, or "" for no data.
// Ties keep the earliest stage.
func Bottleneck(items []backend.StageDurationBreakdownItem) string {
	stage := ""
	best := math.Inf(-1)
	for _, item := range items {
		if item.MedianSeconds > best {
			best = item.MedianSeconds
			stage = item.Stage
		}
	}
	return stage
}
