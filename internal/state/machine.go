package state

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var (
	// ErrInvalidTransition indicates that a requested FSM transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrStateNotFound indicates that a session record does not exist.
	ErrStateNotFound = errors.New("session state not found")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe FSM transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// StateMachine describes the operations supported by the FSM controller.
type StateMachine interface {
	// GetState returns the stored session or ErrStateNotFound.
	GetState(ctx context.Context, id SessionID) (*Session, error)
	// Current returns the session state, StateIdle when nothing is stored.
	Current(ctx context.Context, id SessionID) (State, error)
	// TransitionTo moves the session to newState if the transition is allowed.
	TransitionTo(ctx context.Context, id SessionID, newState State) error
	// Await enters a waiting state, replacing any pending one.
	Await(ctx context.Context, id SessionID, awaiting State) error
	// Consume returns the pending state and resets the session to idle.
	Consume(ctx context.Context, id SessionID) (State, error)
	// ClearState resets the session to idle.
	ClearState(ctx context.Context, id SessionID) error
	// GetAllStates lists every non-idle session.
	GetAllStates(ctx context.Context) ([]*Session, error)
}

type machine struct {
	storage Storage
	log     *slog.Logger
	now     func() time.Time
}

// NewStateMachine creates a FSM controller using the provided storage backend.
func NewStateMachine(storage Storage, log *slog.Logger) StateMachine {
	if log == nil {
		log = slog.Default()
	}

	return &machine{
		storage: storage,
		log:     log,
		now:     time.Now,
	}
}

func (m *machine) GetState(ctx context.Context, id SessionID) (*Session, error) {
	return m.storage.GetState(ctx, id)
}

func (m *machine) GetAllStates(ctx context.Context) ([]*Session, error) {
	return m.storage.GetAllStates(ctx)
}

func (m *machine) Current(ctx context.Context, id SessionID) (State, error) {
	session, err := m.storage.GetState(ctx, id)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return StateIdle, nil
		}
		return StateIdle, err
	}

	return session.State, nil
}

func (m *machine) TransitionTo(ctx context.Context, id SessionID, newState State) error {
	current, err := m.Current(ctx, id)
	if err != nil {
		return err
	}

	if !IsTransitionAllowed(current, newState) {
		m.log.Warn("invalid state transition",
			"chat_id", id.ChatID,
			"user_id", id.UserID,
			"from", current,
			"to", newState,
		)
		return ErrInvalidTransition
	}

	transitionRecorder(string(current), string(newState))

	if newState == StateIdle {
		return m.storage.ClearState(ctx, id)
	}

	return m.storage.SetState(ctx, id, &Session{
		ID:        id,
		State:     newState,
		UpdatedAt: m.now().UTC(),
	})
}

func (m *machine) Await(ctx context.Context, id SessionID, awaiting State) error {
	if !awaiting.IsAwaiting() {
		return ErrInvalidTransition
	}

	return m.TransitionTo(ctx, id, awaiting)
}

func (m *machine) Consume(ctx context.Context, id SessionID) (State, error) {
	session, err := m.storage.TakeState(ctx, id)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return StateIdle, nil
		}
		return StateIdle, err
	}

	if session.State != StateIdle {
		transitionRecorder(string(session.State), string(StateIdle))
	}

	return session.State, nil
}

func (m *machine) ClearState(ctx context.Context, id SessionID) error {
	current, err := m.Current(ctx, id)
	if err != nil {
		return err
	}

	if current == StateIdle {
		return nil
	}

	transitionRecorder(string(current), string(StateIdle))

	return m.storage.ClearState(ctx, id)
}
