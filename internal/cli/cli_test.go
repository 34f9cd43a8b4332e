package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifystream/internal/cli"
	"github.com/dmitrymomot/notifystream/internal/tui"
	"github.com/dmitrymomot/notifystream/pkg/config"
	"github.com/dmitrymomot/notifystream/pkg/notifications"
	"github.com/dmitrymomot/notifystream/pkg/notifytest"
)

const (
	sessionID = "s3cr3t"
	csrfToken = "tok"
)

// syncBuffer is written by the push goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newServer(t *testing.T) *notifytest.Server {
	t.Helper()
	srv := notifytest.NewServer(
		notifytest.WithSession("sessionid", sessionID),
		notifytest.WithCSRFToken(csrfToken),
	)
	t.Cleanup(srv.Close)
	return srv
}

func environment(srv *notifytest.Server, extra ...string) map[string]string {
	env := map[string]string{
		"NOTIFY_BASE_URL":       srv.URL,
		"NOTIFY_SESSION_COOKIE": sessionID,
		"NOTIFY_CSRF_TOKEN":     csrfToken,
		"NOTIFY_RETRY_INTERVAL": "10ms",
		"LOG_LEVEL":             "error",
	}
	for i := 0; i+1 < len(extra); i += 2 {
		env[extra[i]] = extra[i+1]
	}
	return env
}

func run(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmdForTest(env)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{}, args...)) // nil would make cobra read os.Args
	err := cmd.Execute()
	return out.String(), err
}

func seed(srv *notifytest.Server) {
	now := time.Now().UTC()
	srv.Seed(
		notifications.Notification{ID: "1", Title: "Dividend paid", IsRead: true, CreatedAt: now.Add(-3 * time.Hour)},
		notifications.Notification{ID: "2", Title: "Milestone reached", CreatedAt: now.Add(-2 * time.Hour)},
		notifications.Notification{ID: "3", Title: "New investor", CreatedAt: now.Add(-time.Hour)},
	)
}

func TestListCommand(t *testing.T) {
	srv := newServer(t)
	seed(srv)

	out, err := run(t, environment(srv), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Milestone reached")
	assert.Contains(t, out, "2 unread")
	assert.Less(t, strings.Index(out, "New investor"), strings.Index(out, "Dividend paid"))
}

func TestListCommand_JSON(t *testing.T) {
	srv := newServer(t)
	seed(srv)

	out, err := run(t, environment(srv), "list", "--json")
	require.NoError(t, err)

	var items []notifications.Notification
	require.NoError(t, json.Unmarshal([]byte(out), &items), "output should be valid JSON")
	require.Len(t, items, 3)
	assert.Equal(t, notifications.ID("3"), items[0].ID)
	assert.True(t, items[2].IsRead)
}

func TestListCommand_WrongSession(t *testing.T) {
	srv := newServer(t)
	env := environment(srv, "NOTIFY_SESSION_COOKIE", "stale")

	_, err := run(t, env, "list")
	assert.ErrorIs(t, err, notifications.ErrUnauthorized)
}

func TestReadCommand(t *testing.T) {
	srv := newServer(t)
	seed(srv)

	out, err := run(t, environment(srv), "read", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "notification 2 marked read")
	assert.Equal(t, []string{"2"}, srv.MarkReadIDs())

	_, err = run(t, environment(srv), "read", "404")
	assert.ErrorIs(t, err, notifications.ErrMarkReadRejected)

	out, err = run(t, environment(srv), "read", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "all notifications marked read")

	out, err = run(t, environment(srv), "unread")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)
}

func TestReadCommand_InvalidID(t *testing.T) {
	srv := newServer(t)
	seed(srv)

	_, err := run(t, environment(srv), "read", "../../mark-all-read")
	assert.ErrorIs(t, err, notifications.ErrInvalidID)
	assert.Empty(t, srv.MarkReadIDs())

	out, err := run(t, environment(srv), "unread")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestReadCommand_Args(t *testing.T) {
	srv := newServer(t)

	_, err := run(t, environment(srv), "read")
	assert.Error(t, err)

	_, err = run(t, environment(srv), "read", "1", "--all")
	assert.Error(t, err)
}

func TestUnreadCommand(t *testing.T) {
	srv := newServer(t)
	seed(srv)

	out, err := run(t, environment(srv), "unread")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestMissingBaseURL(t *testing.T) {
	_, err := run(t, map[string]string{}, "list")
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, map[string]string{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "notifytail dev")
}

func TestTailCommand(t *testing.T) {
	srv := newServer(t)
	seed(srv)

	cmd := cli.NewRootCmdForTest(environment(srv))
	out := &syncBuffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"tail", "--recent"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(ctx, 3*time.Second)
	defer waitCancel()
	require.True(t, srv.WaitForStreams(waitCtx, 1))

	srv.Publish(notifications.Notification{Title: "Price alert", Message: "Solar Farm shares up 4%"})
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Solar Farm shares up 4%")
	}, 3*time.Second, 5*time.Millisecond)
	assert.Contains(t, out.String(), "Milestone reached", "--recent prints the list first")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("tail did not stop on cancel")
	}
}

func TestTailCommand_SessionExpired(t *testing.T) {
	srv := newServer(t)
	srv.SetUnauthorized(true)

	out, err := run(t, environment(srv, "NOTIFY_PAGE_PATH", "/projects/9/"))
	assert.ErrorIs(t, err, tui.ErrSessionExpired)
	assert.Contains(t, out, "/login/?next=%2Fprojects%2F9%2F")
}

func TestTailCommand_ConnectionLost(t *testing.T) {
	srv := newServer(t)
	env := environment(srv, "NOTIFY_MAX_RETRIES", "1", "NOTIFY_RETRY_INTERVAL", "1ms")
	env["NOTIFY_STREAM_PATH"] = "/nowhere/"

	out, err := run(t, env, "tail")
	assert.ErrorIs(t, err, tui.ErrConnectionLost)
	assert.Contains(t, out, notifications.FailureMessage)
}

func TestTailCommand_ExcludedPage(t *testing.T) {
	srv := newServer(t)

	_, err := run(t, environment(srv, "NOTIFY_PAGE_PATH", "/login/"), "tail")
	assert.ErrorContains(t, err, "disabled for this page path")
	assert.Zero(t, srv.StreamRequests())
}
