package textutil

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// FormatDuration renders a media duration as M:SS, or H:MM:SS for durations
// of an hour or more.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatClock renders a timestamp as HH:MM in the supplied location. A nil
// location falls back to the timestamp's own zone.
func FormatClock(ts time.Time, loc *time.Location) string {
	if loc != nil {
		ts = ts.In(loc)
	}
	return ts.Format("15:04")
}

// DayKey renders the unit key (YYYY-MM-DD) for a timestamp in the supplied
// location.
func DayKey(ts time.Time, loc *time.Location) string {
	if loc != nil {
		ts = ts.In(loc)
	}
	return ts.Format("2006-01-02")
}

// Truncate shortens text to at most limit runes, appending an ellipsis when
// anything was cut. Newlines collapse to spaces so previews stay single-line.
func Truncate(text string, limit int) string {
	flattened := strings.Join(strings.Fields(text), " ")
	if limit <= 0 || utf8.RuneCountInString(flattened) <= limit {
		return flattened
	}
	runes := []rune(flattened)
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
