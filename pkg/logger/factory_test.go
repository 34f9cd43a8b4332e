package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Run("creates JSON logger", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		require.NotNil(t, log)
		log.Info("hello")
		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text formatter option", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatText))
		log.Info("hello")
		assert.Contains(t, buf.String(), "level=INFO")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("includes default attributes", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithAttr(slog.String("svc", "test")))
		log.Info("msg")
		assert.Equal(t, "test", decode(t, buf)["svc"])
	})

	t.Run("level name", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevelName("warn"))
		log.Info("dropped")
		assert.Empty(t, buf.String())
		log.Warn("kept")
		assert.Equal(t, "kept", decode(t, buf)["msg"])
	})

	t.Run("unknown level name keeps default", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevelName("loud"))
		log.Info("kept")
		assert.Equal(t, "kept", decode(t, buf)["msg"])
	})

	t.Run("extracts from context", func(t *testing.T) {
		buf := &bytes.Buffer{}
		type key string
		ctxKey := key("page")
		log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(
			nil,
			func(ctx context.Context) (slog.Attr, bool) {
				v, ok := ctx.Value(ctxKey).(string)
				return slog.String("page", v), ok
			},
		))
		ctx := context.WithValue(context.Background(), ctxKey, "/dashboard/")
		log.InfoContext(ctx, "context msg")
		assert.Equal(t, "/dashboard/", decode(t, buf)["page"])
	})
}

func TestWithAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf))

	ctx := logger.WithAttrs(context.Background(), logger.Endpoint("http://x/stream"))
	child := logger.WithAttrs(ctx, logger.Connection(3))
	assert.Same(t, ctx, logger.WithAttrs(ctx))
	assert.Len(t, logger.AttrsFromContext(ctx), 1, "parent context is not modified")

	log.InfoContext(child, "open")
	entry := decode(t, buf)
	assert.Equal(t, "http://x/stream", entry["endpoint"])
	assert.Equal(t, float64(3), entry["connection"])

	assert.Nil(t, logger.AttrsFromContext(context.Background()))
}

func TestWithAttrs_Grouped(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithContextExtractors(func(context.Context) (slog.Attr, bool) {
			return slog.String("request_id", "r1"), true
		}),
	)

	ctx := logger.WithAttrs(context.Background(), logger.Connection(3))
	log.With("component", "inbox").WithGroup("push").With("endpoint", "e").InfoContext(ctx, "open", "state", "open")

	entry := decode(t, buf)
	assert.Equal(t, float64(3), entry["connection"])
	assert.Equal(t, "r1", entry["request_id"])
	assert.Equal(t, "inbox", entry["component"])
	assert.Equal(t, map[string]any{"endpoint": "e", "state": "open"}, entry["push"])
}

func TestEnvironmentPresets(t *testing.T) {
	t.Run("development", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment("development", "notifytail"), logger.WithOutput(buf))
		log.Debug("msg")
		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), "service=notifytail")
	})

	t.Run("production", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment("prod", "notifytail"), logger.WithOutput(buf))
		log.Debug("hidden")
		assert.Empty(t, buf.String())
		log.Info("msg")
		entry := decode(t, buf)
		assert.Equal(t, "notifytail", entry["service"])
		assert.Equal(t, logger.EnvProduction, entry["env"])
	})
}

func TestDiscard(t *testing.T) {
	log := logger.Discard()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}

func TestWithFormatPanics(t *testing.T) {
	assert.Panics(t, func() {
		logger.New(logger.WithFormat(logger.Format("xml")))
	})
}
