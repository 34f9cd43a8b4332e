package notifications_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/notifications"
	"github.com/dmitrymomot/notifystream/pkg/notifytest"
	"github.com/dmitrymomot/notifystream/pkg/pushchannel"
	"github.com/dmitrymomot/notifystream/pkg/sse"
)

const (
	waitFor = 3 * time.Second
	tick    = 5 * time.Millisecond
)

type presenterMock struct {
	mock.Mock
}

func (p *presenterMock) Toast(n notifications.Notification) { p.Called(n) }
func (p *presenterMock) Badge(unread int) { p.Called(unread) }
func (p *presenterMock) Panel(items []notifications.Notification) { p.Called(items) }
func (p *presenterMock) Banner(message string) { p.Called(message) }
func (p *presenterMock) RedirectToLogin(next string) { p.Called(next) }

// lenient accepts any badge and panel render.
func lenient() *presenterMock {
	p := &presenterMock{}
	p.On("Badge", mock.Anything).Maybe()
	p.On("Panel", mock.Anything).Maybe()
	return p
}

func newTestManager(t *testing.T, srv *notifytest.Server, p notifications.Presenter, opts ...notifications.ManagerOption) *notifications.Manager {
	t.Helper()

	client, err := notifications.NewClient(srv.URL,
		notifications.WithHTTPClient(srv.Client()),
		notifications.WithCSRFToken("tok"),
		notifications.WithClientLogger(logger.Discard()),
	)
	require.NoError(t, err)

	transport := pushchannel.NewSSETransport(sse.NewClient(
		sse.WithHTTPClient(srv.Client()),
		sse.WithLogger(logger.Discard()),
	))

	base := []notifications.ManagerOption{
		notifications.WithManagerLogger(logger.Discard()),
		notifications.WithChannelOptions(pushchannel.WithRetryInterval(10 * time.Millisecond)),
	}
	m := notifications.NewManager(client, transport, p, append(base, opts...)...)
	t.Cleanup(m.Close)
	return m
}

func newTestServer(t *testing.T) *notifytest.Server {
	t.Helper()
	srv := notifytest.NewServer(notifytest.WithCSRFToken("tok"), notifytest.WithListLimit(0))
	t.Cleanup(srv.Close)
	return srv
}

func waitOpen(t *testing.T, m *notifications.Manager, srv *notifytest.Server) {
	t.Helper()
	require.Eventually(t, func() bool { return m.Channel().State() == pushchannel.Open }, waitFor, tick)
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.True(t, srv.WaitForStreams(ctx, 1))
}

func TestManager_ReceivesPushes(t *testing.T) {
	srv := newTestServer(t)
	p := lenient()

	toasts := make(chan notifications.Notification, 8)
	p.On("Toast", mock.Anything).Run(func(args mock.Arguments) {
		toasts <- args.Get(0).(notifications.Notification)
	})

	m := newTestManager(t, srv, p)
	require.NoError(t, m.Start(context.Background()))
	waitOpen(t, m, srv)

	nextToast := func() notifications.Notification {
		t.Helper()
		select {
		case n := <-toasts:
			return n
		case <-time.After(waitFor):
			t.Fatal("no toast shown")
			return notifications.Notification{}
		}
	}

	first, _ := srv.Publish(notifications.Notification{Title: "New investor", Message: "Alice backed Solar Farm"})
	assert.Equal(t, first.ID, nextToast().ID)

	// same id pushed again, then garbage, then a server error, then a fresh one
	srv.Publish(first)
	srv.PublishRaw("{not json")
	srv.PublishRaw(`[{"title": "no id", "created_at": "2024-05-01T10:00:00Z"}]`)
	srv.PublishRaw(`{"error": "Session expired"}`)
	second, _ := srv.Publish(notifications.Notification{Title: "Price alert"})
	assert.Equal(t, second.ID, nextToast().ID)

	assert.Empty(t, toasts, "duplicate must not toast twice")
	assert.Equal(t, 2, m.Inbox().Len())
	assert.Equal(t, 2, m.Inbox().UnreadCount())
	assert.Equal(t, pushchannel.Open, m.Channel().State())
	p.AssertCalled(t, "Badge", 2)
	p.AssertNotCalled(t, "Banner", mock.Anything)
}

func TestManager_PanelAndMarkRead(t *testing.T) {
	srv := newTestServer(t)
	now := time.Now().UTC()
	seeded := srv.Seed(
		notifications.Notification{ID: "1", Title: "Dividend paid", CreatedAt: now.Add(-2 * time.Hour), IsRead: true},
		notifications.Notification{ID: "2", Title: "Milestone reached", CreatedAt: now.Add(-time.Hour)},
	)
	require.Len(t, seeded, 2)

	p := &presenterMock{}
	p.On("Badge", 1).Once()
	p.On("Panel", mock.MatchedBy(func(items []notifications.Notification) bool {
		return len(items) == 2 && items[0].ID == "2" && !items[0].IsRead
	})).Once()
	p.On("Badge", 0).Once()
	p.On("Panel", mock.MatchedBy(func(items []notifications.Notification) bool {
		return len(items) == 2 && items[0].IsRead && items[1].IsRead
	})).Once()

	m := newTestManager(t, srv, p)
	ctx := context.Background()

	require.NoError(t, m.OpenPanel(ctx))
	assert.True(t, m.PanelOpen())
	assert.Equal(t, 1, m.Inbox().UnreadCount())

	require.NoError(t, m.MarkRead(ctx, "2"))
	assert.Zero(t, m.Inbox().UnreadCount())
	assert.Equal(t, []string{"2"}, srv.MarkReadIDs())

	m.ClosePanel(ctx)
	assert.False(t, m.PanelOpen())
	assert.Zero(t, m.Inbox().Len(), "read entries are evicted when the panel closes")

	p.AssertExpectations(t)
}

func TestManager_MarkReadRejected(t *testing.T) {
	srv := newTestServer(t)
	p := lenient()
	m := newTestManager(t, srv, p)

	m.Inbox().Add(notifications.Notification{ID: "5", Title: "App approved"})
	srv.Seed(notifications.Notification{ID: "5", Title: "App approved"})
	srv.SetRejectMarkRead(true)

	err := m.MarkRead(context.Background(), "5")
	assert.ErrorIs(t, err, notifications.ErrMarkReadRejected)
	assert.Equal(t, 1, m.Inbox().UnreadCount())
	p.AssertNotCalled(t, "Badge", 0)
	p.AssertNotCalled(t, "RedirectToLogin", mock.Anything)
}

func TestManager_MarkAllRead(t *testing.T) {
	srv := newTestServer(t)
	p := lenient()
	m := newTestManager(t, srv, p)

	srv.Seed(notifications.Notification{ID: "1"}, notifications.Notification{ID: "2"})
	m.Inbox().Add(notifications.Notification{ID: "1"})
	m.Inbox().Add(notifications.Notification{ID: "2"})

	require.NoError(t, m.MarkAllRead(context.Background()))
	assert.Zero(t, m.Inbox().UnreadCount())
	p.AssertCalled(t, "Badge", 0)

	n, _ := srv.Notification("2")
	assert.True(t, n.IsRead)
}

func TestManager_AuthRejectedRedirects(t *testing.T) {
	srv := newTestServer(t)
	srv.SetUnauthorized(true)

	p := lenient()
	redirected := make(chan string, 1)
	p.On("RedirectToLogin", mock.Anything).Run(func(args mock.Arguments) {
		redirected <- args.String(0)
	})

	m := newTestManager(t, srv, p, notifications.WithPagePath(func() string { return "/projects/42/" }))
	require.NoError(t, m.Start(context.Background()))

	select {
	case next := <-redirected:
		assert.Equal(t, "/projects/42/", next)
	case <-time.After(waitFor):
		t.Fatal("no login redirect")
	}
	assert.Equal(t, pushchannel.Failed, m.Channel().State())
	assert.Equal(t, 1, srv.StreamRequests())
	p.AssertNotCalled(t, "Banner", mock.Anything)
}

func TestManager_RetryExhaustionShowsBanner(t *testing.T) {
	srv := newTestServer(t)

	var mu sync.Mutex
	attempts := 0
	refused := pushchannel.TransportFunc(func(context.Context, string, string) (pushchannel.Stream, error) {
		mu.Lock()
		attempts++
		mu.Unlock()
		return nil, errors.New("connection refused")
	})

	client, err := notifications.NewClient(srv.URL, notifications.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	p := lenient()
	banners := make(chan string, 1)
	p.On("Banner", mock.Anything).Run(func(args mock.Arguments) { banners <- args.String(0) })

	m := notifications.NewManager(client, refused, p,
		notifications.WithManagerLogger(logger.Discard()),
		notifications.WithChannelOptions(
			pushchannel.WithMaxRetries(3),
			pushchannel.WithRetryInterval(time.Millisecond),
		),
	)
	t.Cleanup(m.Close)

	require.NoError(t, m.Start(context.Background()))

	select {
	case msg := <-banners:
		assert.Equal(t, notifications.FailureMessage, msg)
	case <-time.After(waitFor):
		t.Fatal("no banner")
	}

	mu.Lock()
	assert.Equal(t, 4, attempts)
	mu.Unlock()
	assert.Equal(t, pushchannel.Failed, m.Channel().State())
	p.AssertNotCalled(t, "RedirectToLogin", mock.Anything)
}

func TestManager_ReconnectsAfterDrop(t *testing.T) {
	srv := newTestServer(t)
	p := lenient()
	toasts := make(chan notifications.Notification, 4)
	p.On("Toast", mock.Anything).Run(func(args mock.Arguments) {
		toasts <- args.Get(0).(notifications.Notification)
	})

	m := newTestManager(t, srv, p)
	require.NoError(t, m.Start(context.Background()))
	waitOpen(t, m, srv)

	srv.Publish(notifications.Notification{Title: "before"})
	select {
	case <-toasts:
	case <-time.After(waitFor):
		t.Fatal("no toast before drop")
	}

	require.Equal(t, 1, srv.DropConnections())
	require.Eventually(t, func() bool { return srv.StreamRequests() == 2 }, waitFor, tick)
	waitOpen(t, m, srv)

	assert.Equal(t, []string{"", "1"}, srv.LastEventIDs())
	assert.Zero(t, m.Channel().RetryCount())

	after, _ := srv.Publish(notifications.Notification{Title: "after"})
	select {
	case n := <-toasts:
		assert.Equal(t, after.ID, n.ID)
	case <-time.After(waitFor):
		t.Fatal("no toast after reconnect")
	}
}

func TestManager_ExcludedPageDoesNotConnect(t *testing.T) {
	srv := newTestServer(t)
	p := lenient()
	m := newTestManager(t, srv, p, notifications.WithPagePath(func() string { return "/password/reset/" }))

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, pushchannel.Disconnected, m.Channel().State())
	assert.Zero(t, srv.StreamRequests())
}

func TestManager_OpenPanelUnauthorized(t *testing.T) {
	srv := newTestServer(t)
	srv.SetUnauthorized(true)

	p := lenient()
	p.On("RedirectToLogin", "/").Once()

	m := newTestManager(t, srv, p)
	m.Inbox().Add(notifications.Notification{ID: "local"})

	err := m.OpenPanel(context.Background())
	assert.ErrorIs(t, err, notifications.ErrUnauthorized)
	p.AssertCalled(t, "Panel", mock.MatchedBy(func(items []notifications.Notification) bool { return len(items) == 1 }))
	p.AssertExpectations(t)
}

func TestManager_CloseClearsEverything(t *testing.T) {
	srv := newTestServer(t)
	p := lenient()
	p.On("Toast", mock.Anything).Maybe()

	m := newTestManager(t, srv, p)
	require.NoError(t, m.Start(context.Background()))
	waitOpen(t, m, srv)

	srv.Publish(notifications.Notification{Title: "x"})
	require.Eventually(t, func() bool { return m.Inbox().Len() == 1 }, waitFor, tick)

	m.Close()
	assert.Equal(t, pushchannel.Disconnected, m.Channel().State())
	assert.Zero(t, m.Inbox().Len())
	require.Eventually(t, func() bool { return srv.Streams() == 0 }, waitFor, tick)
}
