// Package lifecycle holds the arithmetic the dashboard applies on top of
// backend analytics: duration labels, SLA breach metrics, risk levels and
// period-over-period trends.
package lifecycle

import (
	"math"
	"strconv"
)

const (
	minute = 60
	hour   = 60 * minute
	day    = 24 * hour
)

// FormatDuration renders seconds as a single coarse unit: 59s, 1m, 1h, 1d.
// Non-finite and negative input renders as 0s.
func FormatDuration(seconds float64) string {
	s := 0.0
	if !math.IsNaN(seconds) && !math.IsInf(seconds, 0) {
		s = math.Max(0, math.Floor(seconds))
	}
	switch {
	case s < minute:
		return units(s, 1) + "s"
	case s < hour:
		return units(s, minute) + "m"
	case s < day:
		return units(s, hour) + "h"
	default:
		return units(s, day) + "d"
	}
}

// units counts whole units in float64 so huge ages never wrap negative.
func units(seconds, unit float64) string {
	return strconv.FormatFloat(math.Floor(seconds/unit), 'f', 0, 64)
}

// FormatSignedDuration prefixes FormatDuration with the sign of seconds.
// Zero has no sign.
func FormatSignedDuration(seconds float64) string {
	switch {
	case seconds < 0:
		return "-" + FormatDuration(-seconds)
	case seconds > 0:
		return "+" + FormatDuration(seconds)
	default:
		return FormatDuration(0)
	}
}
