package ratelimit

import (
	"fmt"
	"time"

	"github.com/Proton-105/coinwatch-bot/pkg/config"
)

// Rule is a parsed limit: at most Limit requests per Window.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

// lookupActions hit the market data API.
var lookupActions = map[string]struct{}{
	"/price":       {},
	"/info":        {},
	"/chart":       {},
	"/top":         {},
	"button:price": {},
	"button:info":  {},
	"button:chart": {},
	"button:top":   {},
	"button:coin":  {},
	"text":         {},
}

// Rules encapsulates configured rate limits and helper methods.
type Rules struct {
	enabled   bool
	perUser   *Rule
	lookups   *Rule
	whitelist map[int64]struct{}
}

// NewRules parses rate limiting rules from configuration settings.
// A rule with a zero limit is disabled.
func NewRules(cfg config.RateLimitConfig) (*Rules, error) {
	perUser, err := parseRule("user", cfg.PerUser)
	if err != nil {
		return nil, err
	}
	lookups, err := parseRule("lookup", cfg.Lookups)
	if err != nil {
		return nil, err
	}

	whitelist := make(map[int64]struct{}, len(cfg.Whitelist))
	for _, id := range cfg.Whitelist {
		whitelist[id] = struct{}{}
	}

	return &Rules{
		enabled:   cfg.Enabled,
		perUser:   perUser,
		lookups:   lookups,
		whitelist: whitelist,
	}, nil
}

// Enabled reports whether any limiting is configured.
func (r *Rules) Enabled() bool {
	return r != nil && r.enabled && (r.perUser != nil || r.lookups != nil)
}

// IsWhitelisted returns true if the userID bypasses rate limits.
func (r *Rules) IsWhitelisted(userID int64) bool {
	_, ok := r.whitelist[userID]
	return ok
}

// For returns the rules that apply to action, per-user first.
func (r *Rules) For(action string) []Rule {
	if !r.Enabled() {
		return nil
	}

	rules := make([]Rule, 0, 2)
	if r.perUser != nil {
		rules = append(rules, *r.perUser)
	}
	if _, ok := lookupActions[action]; ok && r.lookups != nil {
		rules = append(rules, *r.lookups)
	}
	return rules
}

// MaxWindow is the longest configured window, used to age out idle buckets.
func (r *Rules) MaxWindow() time.Duration {
	var longest time.Duration
	for _, rule := range []*Rule{r.perUser, r.lookups} {
		if rule != nil && rule.Window > longest {
			longest = rule.Window
		}
	}
	return longest
}

func parseRule(name string, rule config.RateLimitRule) (*Rule, error) {
	if rule.Limit <= 0 {
		return nil, nil
	}
	if rule.Window == "" {
		return nil, fmt.Errorf("ratelimit %s: window duration is not set", name)
	}
	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return nil, fmt.Errorf("ratelimit %s: %w", name, err)
	}
	if window <= 0 {
		return nil, fmt.Errorf("ratelimit %s: window must be positive", name)
	}
	return &Rule{Name: name, Limit: rule.Limit, Window: window}, nil
}
