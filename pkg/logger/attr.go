package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Endpoint records a remote URL under the key "endpoint".
func Endpoint(url string) slog.Attr {
	return slog.String("endpoint", url)
}

// State records a connection state under the key "state".
// Accepts anything with a String method so callers can pass their own enums.
func State(s interface{ String() string }) slog.Attr {
	if s == nil {
		return slog.Attr{}
	}
	return slog.String("state", s.String())
}

// Transition records a state change as "from" and "to" under the key "transition".
func Transition(from, to interface{ String() string }) slog.Attr {
	return Group("transition",
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}

// NotificationID records the notification identifier under the key "notification_id".
// If id is empty, it returns an empty Attr.
func NotificationID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("notification_id", id)
}

// EventID records a stream event identifier under the key "event_id".
// If id is empty, it returns an empty Attr.
func EventID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("event_id", id)
}

// EventType records the event type under the key "event_type".
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// MaxRetries records the retry bound under the key "max_retries".
func MaxRetries(n int) slog.Attr {
	return slog.Int("max_retries", n)
}

// Delay records a scheduled wait under the key "delay".
func Delay(d time.Duration) slog.Attr {
	return slog.Duration("delay", d)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// StatusCode records an HTTP status under the key "status_code".
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// Count records a generic item count under the key "count".
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// Connection records the sequence number of a push connection session under
// the key "connection".
func Connection(seq uint64) slog.Attr {
	return slog.Uint64("connection", seq)
}
