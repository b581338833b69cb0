package jobs

import (
	"context"

	"github.com/Proton-105/coinwatch-bot/internal/ratelimit"
	"github.com/Proton-105/coinwatch-bot/internal/state"
	"github.com/Proton-105/coinwatch-bot/pkg/metrics"
)

const (
	JobSessionSweep     = "session_sweep"
	JobStateMetrics     = "state_metrics"
	JobRateLimitCleanup = "ratelimit_cleanup"
)

// SessionSweep drops sessions whose wait has expired.
func SessionSweep(spec string, cleaner *state.Cleaner) Job {
	return Job{
		Name: JobSessionSweep,
		Spec: spec,
		Run: func(ctx context.Context) error {
			cleaner.Cleanup(ctx)
			return ctx.Err()
		},
	}
}

// StateMetrics refreshes the session gauges.
func StateMetrics(spec string, collector *metrics.StateCollector) Job {
	return Job{
		Name: JobStateMetrics,
		Spec: spec,
		Run:  collector.Collect,
	}
}

// RateLimitCleanup drops idle rate limit buckets.
func RateLimitCleanup(spec string, cleaner *ratelimit.Cleaner) Job {
	return Job{
		Name: JobRateLimitCleanup,
		Spec: spec,
		Run: func(ctx context.Context) error {
			cleaner.Cleanup(ctx)
			return ctx.Err()
		},
	}
}
