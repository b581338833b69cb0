package bot

import (
	"log/slog"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinwatch-bot/internal/bot/handlers"
	"github.com/Proton-105/coinwatch-bot/internal/state"
)

// Dispatcher routes text messages to the handler of the session's pending state.
type Dispatcher struct {
	fsm           state.StateMachine
	stateHandlers map[state.State]handlers.Handler
	log           *slog.Logger
	mu            sync.RWMutex
}

// NewDispatcher creates a Dispatcher with an empty handlers registry.
func NewDispatcher(fsm state.StateMachine, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		fsm:           fsm,
		stateHandlers: make(map[state.State]handlers.Handler),
		log:           log,
	}
}

// RegisterStateHandler registers a handler for the provided state.
func (d *Dispatcher) RegisterStateHandler(s state.State, h handlers.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stateHandlers[s] = h
}

// Take consumes the session's pending state and returns the handler that
// answers it, or nil when nothing was pending. The session is idle afterwards
// whatever the handler does.
func (d *Dispatcher) Take(c telebot.Context) (handlers.Handler, error) {
	if c == nil || c.Sender() == nil {
		d.log.Warn("cannot dispatch without sender information")
		return nil, nil
	}

	ctx := handlers.RequestContext(c)
	session := handlers.SessionOf(c)

	pending, err := d.fsm.Consume(ctx, session)
	if err != nil {
		return nil, err
	}

	if pending == state.StateIdle {
		return nil, nil
	}

	handler := d.getHandler(pending)
	if handler == nil {
		d.log.Info("no handler registered for state", "state", pending, "session", session.String())
	}

	return handler, nil
}

func (d *Dispatcher) getHandler(s state.State) handlers.Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stateHandlers[s]
}
