package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/coinwatch-bot/pkg/config"
)

func testRulesConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:   true,
		PerUser:   config.RateLimitRule{Limit: 30, Window: "1m"},
		Lookups:   config.RateLimitRule{Limit: 10, Window: "30s"},
		Whitelist: []int64{42},
	}
}

func TestRules_For(t *testing.T) {
	rules, err := NewRules(testRulesConfig())
	require.NoError(t, err)

	tests := []struct {
		action string
		names  []string
	}{
		{action: "/start", names: []string{"user"}},
		{action: "/price", names: []string{"user", "lookup"}},
		{action: "button:coin", names: []string{"user", "lookup"}},
		{action: "text", names: []string{"user", "lookup"}},
		{action: "button:restart", names: []string{"user"}},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			got := rules.For(tt.action)
			names := make([]string, 0, len(got))
			for _, rule := range got {
				names = append(names, rule.Name)
			}
			assert.Equal(t, tt.names, names)
		})
	}

	assert.Equal(t, time.Minute, rules.MaxWindow())
}

func TestRules_Whitelist(t *testing.T) {
	rules, err := NewRules(testRulesConfig())
	require.NoError(t, err)

	assert.True(t, rules.IsWhitelisted(42))
	assert.False(t, rules.IsWhitelisted(7))
}

func TestRules_DisabledOrZeroLimit(t *testing.T) {
	cfg := testRulesConfig()
	cfg.Enabled = false
	rules, err := NewRules(cfg)
	require.NoError(t, err)
	assert.False(t, rules.Enabled())
	assert.Empty(t, rules.For("/price"))

	cfg = testRulesConfig()
	cfg.Lookups.Limit = 0
	rules, err = NewRules(cfg)
	require.NoError(t, err)
	assert.Len(t, rules.For("/price"), 1)
}

func TestRules_InvalidWindow(t *testing.T) {
	for _, window := range []string{"", "soon", "-1m"} {
		cfg := testRulesConfig()
		cfg.PerUser.Window = window

		_, err := NewRules(cfg)
		assert.Error(t, err, window)
	}
}
