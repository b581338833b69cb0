package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/coinwatch-bot/internal/ratelimit"
	"github.com/Proton-105/coinwatch-bot/internal/state"
	"github.com/Proton-105/coinwatch-bot/pkg/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunsRegisteredJobs(t *testing.T) {
	scheduler := NewScheduler(testLogger(), time.Second)

	var runs atomic.Int32
	require.NoError(t, scheduler.Register(Job{
		Name: "tick",
		Spec: "@every 1s",
		Run: func(context.Context) error {
			runs.Add(1)
			return errors.New("failures are logged, not fatal")
		},
	}))

	scheduler.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, scheduler.Stop(ctx))
}

func TestScheduler_Register(t *testing.T) {
	noop := func(context.Context) error { return nil }

	tests := []struct {
		name    string
		job     Job
		wantErr bool
		listed  bool
	}{
		{name: "valid", job: Job{Name: "a", Spec: "@every 5m", Run: noop}, listed: true},
		{name: "disabled", job: Job{Name: "b", Spec: "", Run: noop}},
		{name: "bad spec", job: Job{Name: "c", Spec: "every now and then", Run: noop}, wantErr: true},
		{name: "no func", job: Job{Name: "d", Spec: "@every 5m"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheduler := NewScheduler(testLogger(), 0)

			err := scheduler.Register(tt.job)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.listed {
				assert.Equal(t, []string{tt.job.Name}, scheduler.Jobs())
			} else {
				assert.Empty(t, scheduler.Jobs())
			}
		})
	}
}

func TestSessionSweep_RemovesExpiredSessions(t *testing.T) {
	storage := state.NewMemoryStorage(time.Nanosecond)
	ctx := context.Background()
	id := state.SessionID{ChatID: 1, UserID: 2}

	require.NoError(t, storage.SetState(ctx, id, &state.Session{ID: id, State: state.StateAwaitingPriceSymbol}))
	time.Sleep(2 * time.Millisecond)

	job := SessionSweep("@every 5m", state.NewCleaner(storage, testLogger(), time.Nanosecond))
	require.NoError(t, job.Run(ctx))

	_, err := storage.GetState(ctx, id)
	assert.ErrorIs(t, err, state.ErrStateNotFound)
}

func TestStateMetricsAndRateLimitJobs(t *testing.T) {
	ctx := context.Background()
	fsm := state.NewStateMachine(state.NewMemoryStorage(time.Hour), testLogger())
	require.NoError(t, fsm.Await(ctx, state.SessionID{ChatID: 1, UserID: 1}, state.StateAwaitingChartSymbol))

	assert.NoError(t, StateMetrics("@every 1m", metrics.NewStateCollector(fsm)).Run(ctx))

	memory := ratelimit.NewMemoryLimiter()
	_, err := memory.Check(ctx, "user:1", 1, time.Minute)
	require.NoError(t, err)

	job := RateLimitCleanup("@every 10m", ratelimit.NewCleaner(nil, memory, testLogger(), time.Minute))
	assert.NoError(t, job.Run(ctx))
	assert.Equal(t, JobRateLimitCleanup, job.Name)
	assert.Equal(t, 1, memory.Len())
}
