package notifications_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifystream/pkg/notifications"
)

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "just now", at: now, want: "09:30:00"},
		{name: "earlier today", at: now.Add(-3 * time.Hour), want: "06:30:00"},
		{name: "under a day", at: now.Add(-23*time.Hour - 59*time.Minute), want: "09:31:00"},
		{name: "exactly a day", at: now.Add(-24 * time.Hour), want: "2024-05-01"},
		{name: "last week", at: now.Add(-6 * 24 * time.Hour), want: "2024-04-26"},
		{name: "zero", at: time.Time{}, want: ""},
		{name: "other zone", at: time.Date(2024, 5, 2, 11, 0, 0, 0, time.FixedZone("CEST", 2*3600)), want: "09:00:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, notifications.FormatTimestamp(tt.at, now), tt.name)
	}
}

func TestLoginURL(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "/login/?next=%2Fprojects%2F12%2F", notifications.LoginURL("/projects/12/"))
	assert.Equal(t, "/login/?next=%2F", notifications.LoginURL(""))
}
