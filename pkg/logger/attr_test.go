package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

type testState string

func (s testState) String() string { return string(s) }

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestState(t *testing.T) {
	attr := logger.State(testState("open"))
	require.Equal(t, "state", attr.Key)
	assert.Equal(t, "open", attr.Value.String())
}

func TestTransition(t *testing.T) {
	attr := logger.Transition(testState("connecting"), testState("open"))
	require.Equal(t, "transition", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "connecting", g[0].Value.String())
	assert.Equal(t, "open", g[1].Value.String())
}

func TestNotificationID(t *testing.T) {
	attr := logger.NotificationID("n-1")
	require.Equal(t, "notification_id", attr.Key)
	assert.Equal(t, "n-1", attr.Value.String())

	assert.True(t, logger.NotificationID("").Equal(slog.Attr{}))
	assert.True(t, logger.EventID("").Equal(slog.Attr{}))
}

func TestScalarAttrs(t *testing.T) {
	assert.Equal(t, int64(2), logger.RetryCount(2).Value.Int64())
	assert.Equal(t, int64(3), logger.MaxRetries(3).Value.Int64())
	assert.Equal(t, 5*time.Second, logger.Delay(5*time.Second).Value.Duration())
	assert.Equal(t, int64(401), logger.StatusCode(401).Value.Int64())
	assert.Equal(t, "http://x/stream", logger.Endpoint("http://x/stream").Value.String())
}
