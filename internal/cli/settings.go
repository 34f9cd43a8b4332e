package cli

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/notifystream/pkg/config"
	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/notifications"
	"github.com/dmitrymomot/notifystream/pkg/pushchannel"
	"github.com/dmitrymomot/notifystream/pkg/sse"
)

const serviceName = "notifytail"

// Settings is the full environment of the terminal host.
type Settings struct {
	AppEnv            string `env:"APP_ENV" envDefault:"development"`
	LogLevel          string `env:"LOG_LEVEL"`
	SessionCookie     string `env:"NOTIFY_SESSION_COOKIE"`
	SessionCookieName string `env:"NOTIFY_SESSION_COOKIE_NAME" envDefault:"sessionid"`
	PagePath          string `env:"NOTIFY_PAGE_PATH" envDefault:"/"`

	Client  notifications.Config
	Channel pushchannel.Config
}

func loadSettings(ro rootOptions, envFiles []string) (Settings, error) {
	var opts []config.Option
	if ro.environment != nil {
		opts = append(opts, config.WithEnvironment(ro.environment))
	}
	if len(envFiles) > 0 {
		opts = append(opts, config.WithEnvFiles(envFiles...))
	}
	return config.Load[Settings](opts...)
}

func (s Settings) logger(w io.Writer) *slog.Logger {
	return logger.New(
		logger.WithEnvironment(s.AppEnv, serviceName),
		logger.WithLevelName(s.LogLevel),
		logger.WithOutput(w),
	)
}

func (s Settings) sessionCookie() *http.Cookie {
	if s.SessionCookie == "" {
		return nil
	}
	return &http.Cookie{Name: s.SessionCookieName, Value: s.SessionCookie}
}

func (s Settings) client(log *slog.Logger) (*notifications.Client, error) {
	return notifications.NewClientFromConfig(s.Client,
		notifications.WithClientCookie(s.sessionCookie()),
		notifications.WithClientLogger(log),
	)
}

func (s Settings) transport(log *slog.Logger) pushchannel.Transport {
	return pushchannel.NewSSETransport(sse.NewClient(
		sse.WithCookie(s.sessionCookie()),
		sse.WithLogger(log),
	))
}

func (s Settings) pagePath() string {
	return s.PagePath
}
