package lifecycle

import (
	twmerge "github.com/Oudwins/tailwind-merge-go"
)

const badgeBase = "shrink-0 rounded-full px-2 py-1 text-xs font-medium"

// BreachBadge returns the indicator classes for an SLA breach summary:
// green without breaches, amber up to 20 percent, red above.
func BreachBadge(breachCount int, breachPercent float64, extra ...string) string {
	var tone string
	switch {
	case breachCount <= 0:
		tone = "bg-green-500/15 text-green-400"
	case breachPercent <= 20:
		tone = "bg-amber-500/15 text-amber-400"
	default:
		tone = "bg-red-500/15 text-red-400"
	}
	return twmerge.Merge(append([]string{badgeBase, tone}, extra...)...)
}

func RiskBadge(level RiskLevel, extra ...string) string {
	var tone string
	switch level {
	case RiskControlled:
		tone = "text-green-400"
	case RiskWatch:
		tone = "text-amber-300"
	case RiskAtRisk:
		tone = "text-amber-500"
	default:
		tone = "text-red-400"
	}
	return twmerge.Merge(append([]string{"text-sm font-semibold", tone}, extra...)...)
}

func StageTrendClass(trend StageTrend) string {
	switch trend {
	case StageFaster:
		return twmerge.Merge("text-xs", "text-green-400")
	case StageSlower:
		return twmerge.Merge("text-xs", "text-red-400")
	default:
		return "text-xs text-[color:var(--ax-muted)]"
	}
}
