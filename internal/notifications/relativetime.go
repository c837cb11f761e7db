package notifications

import (
	"fmt"
	"time"
)

// RelativeTime describes how long before now t happened ("just now",
// "5 minutes ago"). Beyond 30 days it falls back to a plain date.
func RelativeTime(t, now time.Time) string {
	seconds := int(now.Sub(t).Seconds())
	if seconds < 60 {
		return "just now"
	}

	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d %s ago", minutes, pluralize("minute", minutes))
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d %s ago", hours, pluralize("hour", hours))
	}

	days := hours / 24
	if days < 30 {
		return fmt.Sprintf("%d %s ago", days, pluralize("day", days))
	}

	return t.Format("Jan 02, 2006")
}

func pluralize(unit string, n int) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
