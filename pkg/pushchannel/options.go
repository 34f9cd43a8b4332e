package pushchannel

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// DefaultMaxRetries bounds consecutive reconnect attempts.
const DefaultMaxRetries = 3

// Config holds the environment-driven channel settings.
type Config struct {
	MaxRetries    int           `env:"NOTIFY_MAX_RETRIES" envDefault:"3"`
	RetryInterval time.Duration `env:"NOTIFY_RETRY_INTERVAL" envDefault:"5s"`
}

// Options converts the config to channel options.
func (c Config) Options() []Option {
	return []Option{WithMaxRetries(c.MaxRetries), WithRetryInterval(c.RetryInterval)}
}

// Decoder unmarshals an event payload into v.
type Decoder func(data []byte, v any) error

// Option configures a Channel.
type Option func(*settings)

type settings struct {
	maxRetries int
	backoff    Backoff
	clock      Clock
	logger     *slog.Logger
	guard      PageGuard
	decode     Decoder
	metrics    *Metrics
	onState    func(from, to State)
	onAuth     func(ctx context.Context, err error)
	onFailure  func(ctx context.Context, err error)
}

func defaultSettings() settings {
	return settings{
		maxRetries: DefaultMaxRetries,
		backoff:    FixedBackoff{Interval: DefaultRetryInterval},
		clock:      systemClock{},
		logger:     slog.Default(),
		decode:     json.Unmarshal,
	}
}

// WithMaxRetries sets how many reconnects follow consecutive failures before
// the channel gives up. Negative values are ignored.
func WithMaxRetries(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithRetryInterval uses a fixed delay between reconnects.
func WithRetryInterval(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.backoff = FixedBackoff{Interval: d}
		}
	}
}

// WithBackoff sets the reconnect delay strategy. Nil is ignored.
func WithBackoff(b Backoff) Option {
	return func(s *settings) {
		if b != nil {
			s.backoff = b
		}
	}
}

// WithClock replaces the clock used for retry timers. Nil is ignored.
func WithClock(c Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPageGuard installs the guard consulted before connecting.
func WithPageGuard(g PageGuard) Option {
	return func(s *settings) { s.guard = g }
}

// WithDecoder replaces JSON decoding of event data. Nil is ignored.
func WithDecoder(d Decoder) Option {
	return func(s *settings) {
		if d != nil {
			s.decode = d
		}
	}
}

// WithMetrics records channel activity in m. Nil disables metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithStateHook is called after every state change, outside the channel lock.
func WithStateHook(fn func(from, to State)) Option {
	return func(s *settings) { s.onState = fn }
}

// WithAuthRequiredHook is called once when the server rejects the session.
func WithAuthRequiredHook(fn func(ctx context.Context, err error)) Option {
	return func(s *settings) { s.onAuth = fn }
}

// WithFailureHook is called once when the retry budget is exhausted.
// err matches ErrRetriesExhausted and wraps the last connection error.
func WithFailureHook(fn func(ctx context.Context, err error)) Option {
	return func(s *settings) { s.onFailure = fn }
}
