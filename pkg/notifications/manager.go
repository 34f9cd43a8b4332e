package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/pushchannel"
)

// API is the part of Client the Manager depends on.
type API interface {
	StreamURL() string
	List(ctx context.Context) ([]Notification, error)
	MarkRead(ctx context.Context, id ID) error
	MarkAllRead(ctx context.Context) error
}

// Manager ties the push channel, the inbox, the API and the presenter
// together for one session. Construct one per session and pass it around;
// there is no package-level instance.
type Manager struct {
	api       API
	inbox     *Inbox
	presenter Presenter
	channel   *pushchannel.Channel[Payload]
	pagePath  func() string
	logger    *slog.Logger

	mu          sync.Mutex
	panelOpen   bool
	unsubscribe func()
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	logger      *slog.Logger
	pagePath    func() string
	inbox       *Inbox
	channelOpts []pushchannel.Option
}

// WithManagerLogger sets the logger for the Manager and its channel.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(o *managerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPagePath reports the current page path. It drives the channel's page
// guard and the "next" parameter of login redirects.
func WithPagePath(fn func() string) ManagerOption {
	return func(o *managerOptions) { o.pagePath = fn }
}

// WithInbox shares an existing inbox.
func WithInbox(b *Inbox) ManagerOption {
	return func(o *managerOptions) {
		if b != nil {
			o.inbox = b
		}
	}
}

// WithChannelOptions passes options to the underlying push channel. The
// auth and failure hooks are owned by the Manager and cannot be replaced.
func WithChannelOptions(opts ...pushchannel.Option) ManagerOption {
	return func(o *managerOptions) {
		o.channelOpts = append(o.channelOpts, opts...)
	}
}

// NewManager creates a manager that receives pushes through transport.
func NewManager(api API, transport pushchannel.Transport, presenter Presenter, opts ...ManagerOption) *Manager {
	o := managerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.inbox == nil {
		o.inbox = NewInbox()
	}

	m := &Manager{
		api:       api,
		inbox:     o.inbox,
		presenter: presenter,
		pagePath:  o.pagePath,
		logger:    o.logger.With(logger.Component("notifications")),
	}

	chOpts := []pushchannel.Option{pushchannel.WithLogger(o.logger)}
	if o.pagePath != nil {
		chOpts = append(chOpts, pushchannel.WithPageGuard(pushchannel.ExcludePaths(o.pagePath)))
	}
	chOpts = append(chOpts, o.channelOpts...)
	chOpts = append(chOpts,
		pushchannel.WithAuthRequiredHook(m.authRequired),
		pushchannel.WithFailureHook(m.connectionFailed),
	)
	m.channel = pushchannel.New[Payload](transport, chOpts...)
	return m
}

// Start subscribes to pushes and opens the channel.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.unsubscribe == nil {
		m.unsubscribe = m.channel.OnEvent(m.receive)
	}
	m.mu.Unlock()

	m.presenter.Badge(m.inbox.UnreadCount())
	return m.channel.Start(ctx, m.api.StreamURL())
}

// OpenPanel loads the recent notifications and renders the panel. On a
// failed fetch the local entries are still shown and the error is returned.
func (m *Manager) OpenPanel(ctx context.Context) error {
	m.mu.Lock()
	m.panelOpen = true
	m.mu.Unlock()

	list, err := m.api.List(ctx)
	if err != nil {
		m.handleAPIError(ctx, "failed to load notifications", err)
	} else {
		added := m.inbox.Merge(list)
		m.logger.LogAttrs(ctx, slog.LevelDebug, "notifications loaded",
			logger.Count(len(list)), slog.Int("added", added))
	}

	m.presenter.Badge(m.inbox.UnreadCount())
	m.presenter.Panel(m.inbox.Items())
	if err != nil {
		return fmt.Errorf("open panel: %w", err)
	}
	return nil
}

// ClosePanel hides the panel and evicts entries that were read.
func (m *Manager) ClosePanel(ctx context.Context) {
	m.mu.Lock()
	m.panelOpen = false
	m.mu.Unlock()

	if n := m.inbox.EvictRead(); n > 0 {
		m.logger.LogAttrs(ctx, slog.LevelDebug, "read notifications evicted", logger.Count(n))
	}
}

// MarkRead acknowledges id with the server and, once it confirms, marks the
// local entry read.
func (m *Manager) MarkRead(ctx context.Context, id ID) error {
	if err := m.api.MarkRead(ctx, id); err != nil {
		m.handleAPIError(ctx, "failed to mark notification read", err, logger.NotificationID(string(id)))
		return err
	}
	if !m.inbox.MarkRead(id) {
		m.logger.LogAttrs(ctx, slog.LevelDebug, "marked notification not in inbox or already read",
			logger.NotificationID(string(id)))
	}
	m.refresh()
	return nil
}

// MarkAllRead acknowledges every notification.
func (m *Manager) MarkAllRead(ctx context.Context) error {
	if err := m.api.MarkAllRead(ctx); err != nil {
		m.handleAPIError(ctx, "failed to mark all notifications read", err)
		return err
	}
	m.inbox.MarkAllRead()
	m.refresh()
	return nil
}

// Close stops the channel and forgets every entry, as on page unload.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.panelOpen = false
	m.mu.Unlock()

	m.channel.Stop()
	m.inbox.Clear()
}

func (m *Manager) Inbox() *Inbox {
	return m.inbox
}

func (m *Manager) Channel() *pushchannel.Channel[Payload] {
	return m.channel
}

func (m *Manager) PanelOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.panelOpen
}

func (m *Manager) receive(ctx context.Context, p Payload) {
	if p.Error != "" {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "server reported a stream error", slog.String("reason", p.Error))
		return
	}

	var fresh []Notification
	for _, n := range p.Notifications {
		if !m.inbox.Add(n) {
			m.logger.LogAttrs(ctx, slog.LevelDebug, "duplicate notification ignored", logger.NotificationID(string(n.ID)))
			continue
		}
		fresh = append(fresh, n)
	}
	if len(fresh) == 0 {
		return
	}

	m.refresh()
	for _, n := range fresh {
		m.presenter.Toast(n)
	}
}

// refresh re-renders the badge and, when open, the panel.
func (m *Manager) refresh() {
	m.presenter.Badge(m.inbox.UnreadCount())
	if m.PanelOpen() {
		m.presenter.Panel(m.inbox.Items())
	}
}

func (m *Manager) handleAPIError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	m.logger.LogAttrs(ctx, slog.LevelWarn, msg, append(attrs, logger.Error(err))...)
	if errors.Is(err, ErrUnauthorized) {
		m.channel.Stop()
		m.presenter.RedirectToLogin(m.currentPath())
	}
}

func (m *Manager) authRequired(ctx context.Context, err error) {
	m.logger.LogAttrs(ctx, slog.LevelWarn, "session rejected by push endpoint", logger.Error(err))
	m.presenter.RedirectToLogin(m.currentPath())
}

func (m *Manager) connectionFailed(ctx context.Context, err error) {
	m.logger.LogAttrs(ctx, slog.LevelError, "notification connection lost", logger.Error(err))
	m.presenter.Banner(FailureMessage)
}

func (m *Manager) currentPath() string {
	if m.pagePath == nil {
		return "/"
	}
	return m.pagePath()
}
