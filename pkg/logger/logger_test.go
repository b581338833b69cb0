package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskingHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewTextHandler(&buf, nil)))

	log.With(slog.String("bot_token", "123:abc")).Info("starting",
		slog.String("api_key", "cg-secret"),
		slog.Group("sentry", slog.String("dsn", "https://key@sentry.io/1")),
		slog.String("coin", "bitcoin"),
	)

	out := buf.String()
	assert.NotContains(t, out, "123:abc")
	assert.NotContains(t, out, "cg-secret")
	assert.NotContains(t, out, "sentry.io")
	assert.Contains(t, out, "coin=bitcoin")
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "warning", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "loud", want: slog.LevelInfo, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseLevel(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLogger_SetLevel(t *testing.T) {
	l := New(Options{Level: "info", Format: "text"})
	t.Cleanup(func() { _ = l.Close() })

	assert.Equal(t, slog.LevelInfo, l.Level())
	require.NoError(t, l.SetLevel("debug"))
	assert.Equal(t, slog.LevelDebug, l.Level())
	assert.Error(t, l.SetLevel("nope"))
	assert.Equal(t, slog.LevelDebug, l.Level())
}

func TestCorrelationID(t *testing.T) {
	assert.Equal(t, "", CorrelationIDFromContext(context.Background()))

	ctx := WithCorrelationID(context.Background(), "abc")
	assert.Equal(t, "abc", CorrelationIDFromContext(ctx))

	generated := CorrelationIDFromContext(WithCorrelationID(context.Background(), ""))
	assert.Len(t, generated, 36)
}

func TestFanoutHandler(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer
	info := slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	errOnly := slog.NewTextHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError})

	log := slog.New(newFanoutHandler(info, errOnly))
	log.Info("hello")
	log.Error("failed")

	assert.Contains(t, infoBuf.String(), "hello")
	assert.Contains(t, infoBuf.String(), "failed")
	assert.NotContains(t, errBuf.String(), "hello")
	assert.Contains(t, errBuf.String(), "failed")
}
