package notifications

import "time"

// Config holds the environment-driven client settings.
type Config struct {
	BaseURL         string        `env:"NOTIFY_BASE_URL,required"`
	StreamPath      string        `env:"NOTIFY_STREAM_PATH" envDefault:"/notifications/stream/"`
	ListPath        string        `env:"NOTIFY_LIST_PATH" envDefault:"/notifications/recent/"`
	MarkReadPath    string        `env:"NOTIFY_MARK_READ_PATH" envDefault:"/notifications/mark-read/"`
	MarkAllReadPath string        `env:"NOTIFY_MARK_ALL_READ_PATH" envDefault:"/notifications/mark-all-read/"`
	UnreadCountPath string        `env:"NOTIFY_UNREAD_COUNT_PATH" envDefault:"/notifications/unread-count/"`
	CSRFToken       string        `env:"NOTIFY_CSRF_TOKEN"`
	RequestTimeout  time.Duration `env:"NOTIFY_REQUEST_TIMEOUT" envDefault:"10s"`
}

// NewClientFromConfig creates a client from cfg. Explicit opts win.
func NewClientFromConfig(cfg Config, opts ...ClientOption) (*Client, error) {
	base := []ClientOption{
		WithPaths(Paths{
			Stream:      cfg.StreamPath,
			List:        cfg.ListPath,
			MarkRead:    cfg.MarkReadPath,
			MarkAllRead: cfg.MarkAllReadPath,
			UnreadCount: cfg.UnreadCountPath,
		}),
		WithRequestTimeout(cfg.RequestTimeout),
	}
	if cfg.CSRFToken != "" {
		base = append(base, WithCSRFToken(cfg.CSRFToken))
	}
	return NewClient(cfg.BaseURL, append(base, opts...)...)
}
