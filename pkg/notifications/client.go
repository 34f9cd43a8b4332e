package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

// Default endpoint paths of the marketplace.
const (
	DefaultStreamPath      = "/notifications/stream/"
	DefaultListPath        = "/notifications/recent/"
	DefaultMarkReadPath    = "/notifications/mark-read/"
	DefaultMarkAllReadPath = "/notifications/mark-all-read/"
	DefaultUnreadCountPath = "/notifications/unread-count/"
)

const maxResponseSize = 1 << 20

// Paths are the endpoint paths resolved against the base URL.
type Paths struct {
	Stream      string
	List        string
	MarkRead    string // the notification id and a trailing slash are appended
	MarkAllRead string
	UnreadCount string
}

func DefaultPaths() Paths {
	return Paths{
		Stream:      DefaultStreamPath,
		List:        DefaultListPath,
		MarkRead:    DefaultMarkReadPath,
		MarkAllRead: DefaultMarkAllReadPath,
		UnreadCount: DefaultUnreadCountPath,
	}
}

// ResponseError is a non-2xx answer from one of the JSON endpoints.
type ResponseError struct {
	Method string
	Path   string
	Code   int
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("notifications: %s %s returned %d", e.Method, e.Path, e.Code)
}

// Is lets 401 and 403 match ErrUnauthorized and everything else
// ErrUnexpectedResponse.
func (e *ResponseError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	case ErrUnexpectedResponse:
		return e.Code != http.StatusUnauthorized && e.Code != http.StatusForbidden
	}
	return false
}

// Client calls the list and mark-read endpoints on behalf of the session.
type Client struct {
	base       *url.URL
	paths      Paths
	httpClient *http.Client
	csrfToken  func(ctx context.Context) string
	headers    http.Header
	cookies    []*http.Cookie
	timeout    time.Duration
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithPaths(p Paths) ClientOption {
	return func(c *Client) {
		defaults := DefaultPaths()
		c.paths = Paths{
			Stream:      orDefault(p.Stream, defaults.Stream),
			List:        orDefault(p.List, defaults.List),
			MarkRead:    orDefault(p.MarkRead, defaults.MarkRead),
			MarkAllRead: orDefault(p.MarkAllRead, defaults.MarkAllRead),
			UnreadCount: orDefault(p.UnreadCount, defaults.UnreadCount),
		}
	}
}

// WithCSRFToken sends token as X-CSRFToken on every POST.
func WithCSRFToken(token string) ClientOption {
	return WithCSRFTokenFunc(func(context.Context) string { return token })
}

// WithCSRFTokenFunc reads the CSRF token at request time.
func WithCSRFTokenFunc(fn func(ctx context.Context) string) ClientOption {
	return func(c *Client) { c.csrfToken = fn }
}

func WithClientHeader(key, value string) ClientOption {
	return func(c *Client) {
		if key != "" && value != "" {
			c.headers.Add(key, value)
		}
	}
}

// WithClientCookie attaches a cookie, usually the session and CSRF cookies.
func WithClientCookie(ck *http.Cookie) ClientOption {
	return func(c *Client) {
		if ck != nil {
			c.cookies = append(c.cookies, ck)
		}
	}
}

// WithRequestTimeout bounds every call. Zero disables the bound.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the marketplace at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		base:       u,
		paths:      DefaultPaths(),
		httpClient: &http.Client{},
		csrfToken:  func(context.Context) string { return "" },
		headers:    make(http.Header),
		timeout:    10 * time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.csrfToken == nil {
		c.csrfToken = func(context.Context) string { return "" }
	}
	return c, nil
}

// StreamURL is the absolute URL of the push endpoint.
func (c *Client) StreamURL() string {
	return c.resolve(c.paths.Stream)
}

// List fetches the recent notifications of the session, newest first.
func (c *Client) List(ctx context.Context) ([]Notification, error) {
	var body struct {
		Notifications []Notification `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodGet, c.paths.List, &body); err != nil {
		return nil, err
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "notifications listed", logger.Count(len(body.Notifications)))
	return body.Notifications, nil
}

// MarkRead acknowledges a single notification. Any answer other than
// {"status": "success"} is reported as ErrMarkReadRejected.
func (c *Client) MarkRead(ctx context.Context, id ID) error {
	segment, err := pathSegment(id)
	if err != nil {
		return err
	}
	path := strings.TrimSuffix(c.paths.MarkRead, "/") + "/" + segment + "/"
	if err := c.postStatus(ctx, path); err != nil {
		return err
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "notification marked read", logger.NotificationID(string(id)))
	return nil
}

// MarkAllRead acknowledges every notification of the session.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.postStatus(ctx, c.paths.MarkAllRead)
}

// UnreadCount asks the server for the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var body struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, c.paths.UnreadCount, &body); err != nil {
		return 0, err
	}
	return body.Count, nil
}

func (c *Client) postStatus(ctx context.Context, path string) error {
	var body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, path, &body)
	switch {
	case err == nil && body.Status == "success":
		return nil
	case err == nil:
		return fmt.Errorf("%w: status %q %s", ErrMarkReadRejected, body.Status, body.Message)
	case isNotFound(err):
		return fmt.Errorf("%w: %w", ErrMarkReadRejected, err)
	default:
		return err
	}
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if method == http.MethodPost {
		if token := c.csrfToken(ctx); token != "" {
			req.Header.Set("X-CSRFToken", token)
		}
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return &ResponseError{Method: method, Path: path, Code: resp.StatusCode}
	}
	if redirectedToLogin(req, resp) {
		return fmt.Errorf("%s %s: redirected to %s: %w", method, path, resp.Request.URL.Path, ErrUnauthorized)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnexpectedResponse, method, path, err)
	}
	return nil
}

// resolve joins path onto the base URL. path may contain escaped segments;
// they stay escaped in the result.
func (c *Client) resolve(path string) string {
	ref := &url.URL{Path: path}
	if unescaped, err := url.PathUnescape(path); err == nil && unescaped != path {
		ref = &url.URL{Path: unescaped, RawPath: path}
	}
	return c.base.ResolveReference(ref).String()
}

// pathSegment escapes id for use as a single path segment. Ids that would
// address another path are rejected.
func pathSegment(id ID) (string, error) {
	s := string(id)
	switch {
	case s == "":
		return "", ErrEmptyID
	case s == "." || s == ".." || strings.ContainsAny(s, "/\\"):
		return "", fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return url.PathEscape(s), nil
}

// redirectedToLogin detects a session that expired and got bounced to the
// login page by a followed redirect.
func redirectedToLogin(req *http.Request, resp *http.Response) bool {
	if resp.Request == nil || resp.Request.URL == nil {
		return false
	}
	final := resp.Request.URL.Path
	return final != req.URL.Path && strings.Contains(final, "/login/")
}

func isNotFound(err error) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.Code == http.StatusNotFound
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
