package pushchannel_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifystream/pkg/pushchannel"
)

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		backoff pushchannel.Backoff
		want    map[int]time.Duration
	}{
		{
			name:    "fixed",
			backoff: pushchannel.FixedBackoff{Interval: pushchannel.DefaultRetryInterval},
			want:    map[int]time.Duration{0: 0, 1: 5 * time.Second, 3: 5 * time.Second},
		},
		{
			name:    "linear capped",
			backoff: pushchannel.LinearBackoff{Interval: 2 * time.Second, MaxInterval: 5 * time.Second},
			want:    map[int]time.Duration{-1: 0, 1: 2 * time.Second, 2: 4 * time.Second, 3: 5 * time.Second},
		},
		{
			name:    "linear defaults",
			backoff: pushchannel.LinearBackoff{},
			want:    map[int]time.Duration{1: time.Second, 40: 30 * time.Second},
		},
		{
			name:    "exponential without jitter",
			backoff: pushchannel.ExponentialBackoff{InitialInterval: 500 * time.Millisecond, MaxInterval: 5 * time.Second, Multiplier: 3},
			want: map[int]time.Duration{
				0: 0,
				1: 500 * time.Millisecond,
				2: 1500 * time.Millisecond,
				3: 4500 * time.Millisecond,
				4: 5 * time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for attempt, want := range tt.want {
				assert.Equal(t, want, tt.backoff.NextInterval(attempt), "attempt %d", attempt)
			}
		})
	}
}

func TestExponentialBackoffJitter(t *testing.T) {
	t.Parallel()

	b := pushchannel.ExponentialBackoff{InitialInterval: time.Second, JitterFactor: 0.5}
	for i := 0; i < 50; i++ {
		got := b.NextInterval(2)
		assert.GreaterOrEqual(t, got, time.Second)
		assert.LessOrEqual(t, got, 3*time.Second)
	}
}
