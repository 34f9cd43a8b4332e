package pushchannel

import (
	"math"
	"math/rand/v2"
	"time"
)

// DefaultRetryInterval is the delay between reconnect attempts.
const DefaultRetryInterval = 5 * time.Second

// Backoff computes the delay before a reconnect attempt.
// Attempt starts at 1 for the first retry. Implementations must be safe for
// concurrent use.
type Backoff interface {
	NextInterval(attempt int) time.Duration
}

// FixedBackoff waits the same interval before every attempt.
type FixedBackoff struct {
	Interval time.Duration
}

func (f FixedBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

// LinearBackoff grows the delay by Interval per attempt, capped at MaxInterval.
type LinearBackoff struct {
	Interval    time.Duration
	MaxInterval time.Duration
}

func (l LinearBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	interval := l.Interval
	if interval == 0 {
		interval = time.Second
	}
	limit := l.MaxInterval
	if limit == 0 {
		limit = 30 * time.Second
	}

	return min(interval*time.Duration(attempt), limit)
}

// ExponentialBackoff multiplies the delay on each attempt with optional jitter.
// Formula: min(InitialInterval * Multiplier^(attempt-1) * (1 ± JitterFactor), MaxInterval)
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial == 0 {
		initial = time.Second
	}
	limit := e.MaxInterval
	if limit == 0 {
		limit = 30 * time.Second
	}
	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if e.JitterFactor > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.JitterFactor
	}
	if interval > float64(limit) {
		interval = float64(limit)
	}
	return time.Duration(interval)
}
