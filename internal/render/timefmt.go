package render

import (
	"fmt"

	"transitboard/internal/config"
)

// FromNow formats how far target lies from now (both unix seconds) as a
// short label: "Now" under 30s, "0min" under a minute, minute counts under
// an hour, and hour+minute beyond that. Unit suffixes follow the configured
// display policy. Already-elapsed targets fall into the "Now" branch; the
// staleness watchdog reconnects before they age further.
func FromNow(target, now int64, unit config.UnitDisplay) string {
	diff := target - now

	if diff < 30 {
		return "Now"
	}

	if diff < 60 {
		switch unit {
		case config.UnitShort:
			return "0m"
		case config.UnitNone:
			return "0"
		default:
			return "0min"
		}
	}

	minutes := diff / 60

	if minutes < 60 {
		switch unit {
		case config.UnitShort:
			return fmt.Sprintf("%dm", minutes)
		case config.UnitNone:
			return fmt.Sprintf("%d", minutes)
		default:
			return fmt.Sprintf("%dmin", minutes)
		}
	}

	hours := minutes / 60
	minutes = minutes % 60

	if unit == config.UnitNone {
		return fmt.Sprintf("%d:%02d", hours, minutes)
	}
	return fmt.Sprintf("%dh%dm", hours, minutes)
}
