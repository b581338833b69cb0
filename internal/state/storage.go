// Package state manages per-session conversation state for the bot.
package state

import "context"

// Storage defines the persistence contract for conversation sessions.
// Implementations must be safe for concurrent use.
type Storage interface {
	// GetState returns the session or ErrStateNotFound.
	GetState(ctx context.Context, id SessionID) (*Session, error)
	// SetState saves the provided session.
	SetState(ctx context.Context, id SessionID, session *Session) error
	// TakeState returns and removes the session in one step, or ErrStateNotFound.
	TakeState(ctx context.Context, id SessionID) (*Session, error)
	// ClearState removes the session.
	ClearState(ctx context.Context, id SessionID) error
	// GetAllStates lists every live session.
	GetAllStates(ctx context.Context) ([]*Session, error)
}

// Sweeper is implemented by storages that need explicit expiry.
type Sweeper interface {
	Sweep(ctx context.Context) int
}
