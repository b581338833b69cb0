// Package lifecycle stops the bot's components in a fixed order.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Shutdown runs registered hooks one by one, last registered first,
// so components stop before the dependencies they were started after.
type Shutdown struct {
	mu             sync.Mutex
	hooks          []Hook
	log            *slog.Logger
	defaultTimeout time.Duration
	done           bool
}

// NewShutdown constructs a coordinator whose hooks get defaultTimeout each unless they set their own.
func NewShutdown(log *slog.Logger, defaultTimeout time.Duration) *Shutdown {
	if log == nil {
		log = slog.Default()
	}

	return &Shutdown{log: log, defaultTimeout: defaultTimeout}
}

// Register adds a named shutdown hook.
func (s *Shutdown) Register(name string, fn func(context.Context) error) {
	s.RegisterHook(Hook{Name: name, Fn: fn})
}

// RegisterHook adds a hook with its own timeout.
func (s *Shutdown) RegisterHook(hook Hook) {
	if hook.Fn == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks, hook)
}

// Execute runs every hook even when earlier ones fail and joins their errors.
// Calling it again is a no-op.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil
	}
	s.done = true
	hooks := append([]Hook(nil), s.hooks...)
	s.mu.Unlock()

	start := time.Now()
	s.log.Info("shutdown sequence started", slog.Int("hook_count", len(hooks)))

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := s.run(ctx, hooks[i]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", hooks[i].Name, err))
		}
	}

	s.log.Info("shutdown sequence finished", slog.Duration("elapsed", time.Since(start)))

	return errors.Join(errs...)
}

func (s *Shutdown) run(ctx context.Context, hook Hook) error {
	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = s.defaultTimeout
	}

	hookCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		hookCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	s.log.Info("running shutdown hook", slog.String("hook", hook.Name))

	if err := hook.Fn(hookCtx); err != nil {
		s.log.Error("shutdown hook failed", slog.String("hook", hook.Name), slog.Any("error", err))
		return err
	}

	s.log.Info("shutdown hook completed", slog.String("hook", hook.Name))
	return nil
}
