package state

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner removes stale sessions. Storages implementing Sweeper are swept
// directly; others are scanned and sessions older than ttl are cleared.
type Cleaner struct {
	storage Storage
	log     *slog.Logger
	ttl     time.Duration
	now     func() time.Time
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(storage Storage, log *slog.Logger, ttl time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		storage: storage,
		log:     log,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Cleanup runs a single pass and returns the number of removed sessions.
func (c *Cleaner) Cleanup(ctx context.Context) int {
	if c == nil || c.storage == nil || ctx.Err() != nil {
		return 0
	}

	if sweeper, ok := c.storage.(Sweeper); ok {
		removed := sweeper.Sweep(ctx)
		if removed > 0 {
			c.log.Info("state cleaner removed expired sessions", slog.Int("count", removed))
		}
		return removed
	}

	if c.ttl <= 0 {
		return 0
	}

	sessions, err := c.storage.GetAllStates(ctx)
	if err != nil {
		c.log.Error("state cleaner scan failed", slog.Any("error", err))
		return 0
	}

	removed := 0
	for _, session := range sessions {
		if session.UpdatedAt.IsZero() || c.now().Sub(session.UpdatedAt) <= c.ttl {
			continue
		}

		if err := c.storage.ClearState(ctx, session.ID); err != nil {
			c.log.Warn("state cleaner failed to clear session",
				slog.String("session", session.ID.String()),
				slog.Any("error", err),
			)
			continue
		}
		removed++
	}

	if removed > 0 {
		c.log.Info("state cleaner removed expired sessions", slog.Int("count", removed))
	}

	return removed
}
