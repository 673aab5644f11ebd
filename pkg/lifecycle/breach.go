package lifecycle

import (
	"math"

	"github.com/iota-uz/ats-console/pkg/backend"
)

const DefaultSLADays = backend.DefaultStageAgingSLADays

// maxSLADays keeps SafeSLADays*day inside int.
const maxSLADays = math.MaxInt / day

// SafeSLADays floors days to a whole number of at least one. Non-finite
// input falls back to DefaultSLADays. Larger values than fit in seconds as
// an int are capped.
func SafeSLADays(days float64) int {
	d := safeDays(days)
	if d >= maxSLADays {
		return maxSLADays
	}
	return int(d)
}

// SLASeconds stays in float64 so very large policies never wrap.
func SLASeconds(days float64) float64 {
	return safeDays(days) * day
}

func safeDays(days float64) float64 {
	if math.IsNaN(days) || math.IsInf(days, 0) {
		return DefaultSLADays
	}
	return math.Max(1, math.Floor(days))
}

type Breach struct {
	Total         int
	BreachCount   int
	BreachPercent float64
}

// ComputeBreach counts items strictly older than the SLA.
func ComputeBreach(items []backend.StageAgingItem, slaDays float64) Breach {
	limit := SLASeconds(slaDays)
	b := Breach{Total: len(items)}
	for _, item := range items {
		if item.AgeSeconds > limit {
			b.BreachCount++
		}
	}
	if b.Total > 0 {
		b.BreachPercent = float64(b.BreachCount) / float64(b.Total) * 100
	}
	return b
}

// Breached reports whether a single item is over the SLA.
func Breached(item backend.StageAgingItem, slaDays float64) bool {
	return item.AgeSeconds > SLASeconds(slaDays)
}

type RiskLevel string

const (
	RiskControlled RiskLevel = "controlled"
	RiskWatch      RiskLevel = "watch"
	RiskAtRisk     RiskLevel = "at_risk"
	RiskCritical   RiskLevel = "critical"
)

func Risk(breachPercent float64) RiskLevel {
	switch {
	case breachPercent <= 0:
		return RiskControlled
	case breachPercent <= 5:
		return RiskWatch
	case breachPercent <= 15:
		return RiskAtRisk
	default:
		return RiskCritical
	}
}
