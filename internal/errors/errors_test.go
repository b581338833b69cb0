package errors

import (
	"bytes"
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/coinwatch-bot/internal/i18n"
)

func TestKindOf(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "user input", err: NewUserInputError("price", "usage.price"), want: KindUserInput},
		{name: "not found", err: NewNotFoundError("price", "pepe"), want: KindNotFound},
		{name: "no data", err: NewNoDataError("chart", "pepe"), want: KindNotFound},
		{name: "upstream", err: NewUpstreamError("info", "bitcoin", 502), want: KindUpstream},
		{name: "network", err: NewNetworkError("info", "bitcoin", stdErrors.New("dial tcp")), want: KindNetwork},
		{name: "wrapped", err: fmt.Errorf("outer: %w", NewNotFoundError("info", "x")), want: KindNotFound},
		{name: "plain", err: stdErrors.New("boom"), want: KindUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stdErrors.New("timeout")
	err := NewNetworkError("price", "bitcoin", cause)

	assert.True(t, stdErrors.Is(err, cause))
	assert.Contains(t, err.Error(), "timeout")
}

func TestHandler_Handle(t *testing.T) {
	m, err := i18n.Load("en")
	require.NoError(t, err)
	tr := m.Translator("en")

	var buf bytes.Buffer
	h := NewHandler(slog.New(slog.NewTextHandler(&buf, nil)), false)

	msg := h.Handle(context.Background(), NewUpstreamError("info", "bitcoin", 503), tr)
	assert.Equal(t, tr.T(MsgUpstream), msg)
	assert.Contains(t, buf.String(), "status=503")
	assert.Contains(t, buf.String(), "coin=bitcoin")
	assert.Contains(t, buf.String(), "op=info")

	msg = h.Handle(context.Background(), NewUserInputError("chart", "usage.chart"), tr)
	assert.Equal(t, tr.T("usage.chart"), msg)

	msg = h.Handle(context.Background(), stdErrors.New("boom"), tr)
	assert.Equal(t, tr.T(MsgGeneric), msg)

	assert.Equal(t, "", h.Handle(context.Background(), nil, tr))
	assert.Equal(t, fallbackMessage, h.Handle(context.Background(), stdErrors.New("x"), nil))
}
