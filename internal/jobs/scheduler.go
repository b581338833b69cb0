// Package jobs runs periodic maintenance work inside the bot process.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one periodic task. An empty Spec disables it.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler runs registered jobs on their cron specs.
type Scheduler struct {
	cron    *cron.Cron
	log     *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	names   []string
}

// NewScheduler builds a scheduler whose jobs run with at most timeout each.
// Overlapping runs of the same job are skipped.
func NewScheduler(log *slog.Logger, timeout time.Duration) *Scheduler {
	if log == nil {
		log = slog.Default()
	}

	cronLog := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
	}
}

// Register schedules job. Disabled jobs are logged and skipped.
func (s *Scheduler) Register(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %q has no run function", job.Name)
	}
	if job.Spec == "" {
		s.log.Info("scheduler: job disabled", slog.String("job", job.Name))
		return nil
	}

	if _, err := s.cron.AddFunc(job.Spec, func() { s.run(job) }); err != nil {
		return fmt.Errorf("register job %q: %w", job.Name, err)
	}

	s.names = append(s.names, job.Name)
	s.log.Info("scheduler: registered job", slog.String("job", job.Name), slog.String("spec", job.Spec))
	return nil
}

// Jobs lists the names of scheduled jobs.
func (s *Scheduler) Jobs() []string {
	return append([]string(nil), s.names...)
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.log.Info("scheduler: starting", slog.Int("jobs", len(s.names)))
	s.cron.Start()
}

// Stop cancels running jobs and waits for them until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.log.Info("scheduler: shutting down")
	s.cancel()

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(job Job) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.log.ErrorContext(ctx, "scheduler: job failed", slog.String("job", job.Name), slog.Any("error", err))
		return
	}

	s.log.DebugContext(ctx, "scheduler: job finished", slog.String("job", job.Name), slog.Duration("duration", time.Since(start)))
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
