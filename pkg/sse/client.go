package sse

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

// Client opens event streams over HTTP.
// Zero value is not usable; use NewClient.
type Client struct {
	httpClient *http.Client
	headers    http.Header
	cookies    []*http.Cookie
	logger     *slog.Logger
}

// NewClient creates a stream client. The default HTTP client has no overall
// timeout because streams stay open indefinitely; handshake latency is
// bounded by the transport's response header timeout instead.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConnsPerHost:   2,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
		headers: make(http.Header),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect performs the handshake and returns the open stream.
// A 401 or 403 response yields an error matching ErrUnauthorized.
func (c *Client) Connect(ctx context.Context, rawURL string, opts ...ConnectOption) (*Stream, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	o := connectOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if o.lastEventID != "" {
		req.Header.Set("Last-Event-ID", o.lastEventID)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", rawURL, err)
	}

	if resp.StatusCode != http.StatusOK {
		drain(resp.Body)
		c.logger.LogAttrs(ctx, slog.LevelDebug, "event stream handshake rejected",
			logger.Endpoint(rawURL),
			logger.StatusCode(resp.StatusCode),
		)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/event-stream" {
		drain(resp.Body)
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedContentType, resp.Header.Get("Content-Type"))
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "event stream opened",
		logger.Endpoint(rawURL),
		logger.Duration(time.Since(start)),
	)

	s := NewStream(resp.Body)
	s.lastID = o.lastEventID
	return s, nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return nil
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4<<10))
	_ = body.Close()
}
