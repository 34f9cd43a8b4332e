package notifications

import "time"

// Layouts used by FormatTimestamp.
const (
	TimeLayout = "15:04:05"
	DateLayout = "2006-01-02"
)

// FormatTimestamp renders t relative to now: the time of day for anything
// younger than 24 hours, the date otherwise. Both are shown in now's location.
func FormatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())
	if now.Sub(t) < 24*time.Hour {
		return t.Format(TimeLayout)
	}
	return t.Format(DateLayout)
}
