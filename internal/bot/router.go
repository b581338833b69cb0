package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinwatch-bot/internal/bot/handlers"
	"github.com/Proton-105/coinwatch-bot/internal/bot/keyboard"
)

// Router dispatches commands, callbacks, and state-aware updates.
type Router struct {
	mu             sync.RWMutex
	commands       map[string]handlers.Handler
	callbacks      map[string]handlers.CallbackHandler
	payloads       map[string]handlers.CallbackHandler
	dispatcher     *Dispatcher
	defaultHandler handlers.Handler
	middlewares    []handlers.Middleware
	log            *slog.Logger
}

// NewRouter builds a Router with empty registries.
func NewRouter(dispatcher *Dispatcher, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands:    make(map[string]handlers.Handler),
		callbacks:   make(map[string]handlers.CallbackHandler),
		payloads:    make(map[string]handlers.CallbackHandler),
		dispatcher:  dispatcher,
		middlewares: make([]handlers.Middleware, 0),
		log:         log,
	}
}

// RegisterCommand registers a handler for a bot command such as "/price".
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[strings.ToLower(cmd)] = h
}

// RegisterCallback registers a handler for callback data matching data exactly.
func (r *Router) RegisterCallback(data string, h handlers.CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[data] = h
}

// RegisterPayload registers a handler for "{mode}_{arg}" callback data.
func (r *Router) RegisterPayload(mode string, h handlers.CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads[mode] = h
}

// Use appends a middleware to the chain.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// SetDefault sets the fallback handler for text no state is waiting for.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = h
}

// Route directs the incoming update to the appropriate handler.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	if callback := c.Callback(); callback != nil {
		return r.handleCallback(c, callback.Data)
	}

	return r.handleMessage(c)
}

func (r *Router) handleCallback(c telebot.Context, data string) error {
	defer func() {
		if err := c.Respond(); err != nil {
			r.log.Debug("failed to answer callback", slog.Any("error", err))
		}
	}()

	handler, arg := r.findCallbackHandler(data)
	if handler == nil {
		r.log.Info("no callback handler found", "data", data)
		return nil
	}

	return r.executeHandler(func(ctx telebot.Context) error {
		return handler(ctx, arg)
	}, c)
}

func (r *Router) handleMessage(c telebot.Context) error {
	text := strings.TrimSpace(c.Text())
	isCommand := strings.HasPrefix(text, "/")

	if isCommand {
		if handler := r.getCommandHandler(handlers.CommandName(text)); handler != nil {
			return r.executeHandler(handler, c)
		}
	}

	// The wait is consumed ahead of the middlewares so an answer they reject
	// still returns the session to idle.
	pending, err := r.takePending(c)
	if isCommand {
		// unknown commands end the wait but never answer it
		pending = nil
	}

	return r.executeHandler(func(c telebot.Context) error {
		if err != nil {
			return err
		}
		if pending != nil {
			return pending(c)
		}
		if handler := r.getDefaultHandler(); handler != nil {
			return handler(c)
		}
		return nil
	}, c)
}

func (r *Router) takePending(c telebot.Context) (handlers.Handler, error) {
	if r.dispatcher == nil {
		return nil, nil
	}
	return r.dispatcher.Take(c)
}

func (r *Router) executeHandler(h handlers.Handler, c telebot.Context) error {
	wrapped := r.applyMiddlewares(h)
	if wrapped == nil {
		return nil
	}
	return wrapped(c)
}

// findCallbackHandler prefers exact registrations so bare buttons such as
// "price" never reach the payload handler for the same mode.
func (r *Router) findCallbackHandler(data string) (handlers.CallbackHandler, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if handler, ok := r.callbacks[data]; ok {
		return handler, ""
	}

	mode, arg, err := keyboard.DecodePayload(data)
	if err != nil || arg == "" {
		return nil, ""
	}

	return r.payloads[mode], arg
}

func (r *Router) getCommandHandler(cmd string) handlers.Handler {
	r.mu.RLock()
	handler := r.commands[cmd]
	r.mu.RUnlock()
	return handler
}

func (r *Router) getDefaultHandler() handlers.Handler {
	r.mu.RLock()
	handler := r.defaultHandler
	r.mu.RUnlock()
	return handler
}

// applyMiddlewares wraps the handler with all registered middlewares.
func (r *Router) applyMiddlewares(h handlers.Handler) handlers.Handler {
	if h == nil {
		return nil
	}

	middlewares := r.middlewaresSnapshot()
	wrapped := h
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}
