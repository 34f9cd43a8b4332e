package sse

import (
	"log/slog"
	"net/http"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client. Nil is ignored.
// The client must not set a Timeout, or long-lived streams get cut.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithHeader adds a header sent on every handshake.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		if key != "" && value != "" {
			c.headers.Add(key, value)
		}
	}
}

// WithCookie attaches a cookie, usually the session cookie, to every handshake.
func WithCookie(ck *http.Cookie) ClientOption {
	return func(c *Client) {
		if ck != nil {
			c.cookies = append(c.cookies, ck)
		}
	}
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// ConnectOption configures a single Connect call.
type ConnectOption func(*connectOptions)

type connectOptions struct {
	lastEventID string
}

// WithLastEventID asks the server to resume after the given event id.
func WithLastEventID(id string) ConnectOption {
	return func(o *connectOptions) {
		o.lastEventID = id
	}
}
