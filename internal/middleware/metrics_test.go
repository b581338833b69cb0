package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/Proton-105/coinwatch-bot/internal/errors"
	"github.com/Proton-105/coinwatch-bot/internal/testutil"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "success", err: nil, want: "ok"},
		{name: "rate limited", err: apperrors.NewRateLimitError(time.Second), want: "rate_limited"},
		{name: "other error", err: errors.New("boom"), want: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status(tt.err))
		})
	}
}

func TestMetrics_PassesThroughResult(t *testing.T) {
	want := errors.New("boom")
	handler := Metrics(func(telebot.Context) error { return want })

	err := handler(testutil.NewMessage(1, 1, "/price btc"))
	assert.ErrorIs(t, err, want)
}

func TestMetrics_NilHandler(t *testing.T) {
	assert.Nil(t, Metrics(nil))
}
