package handlers

import (
	"context"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinwatch-bot/internal/bot/keyboard"
	"github.com/Proton-105/coinwatch-bot/internal/i18n"
	"github.com/Proton-105/coinwatch-bot/internal/quote"
	"github.com/Proton-105/coinwatch-bot/internal/state"
)

// Lookups is the part of quote.Service the handlers drive.
type Lookups interface {
	Lookup(ctx context.Context, r quote.Responder, mode, ticker string) error
	Top(ctx context.Context, r quote.Responder) error
	Usage(ctx context.Context, r quote.Responder, mode string) error
}

// NewLookupCommand serves /price, /info and /chart. With an argument it looks
// the coin up at once; without one it replies with usage and suggestions.
func NewLookupCommand(mode string, lookups Lookups, fsm state.StateMachine, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		responder := quote.NewResponder(c)

		clearPending(ctx, fsm, responder.Session(), log)

		ticker := commandPayload(c)
		if ticker == "" {
			return lookups.Usage(ctx, responder, mode)
		}

		return lookups.Lookup(ctx, responder, mode, ticker)
	}
}

// NewTopHandler serves /top and the top button.
func NewTopHandler(lookups Lookups, fsm state.StateMachine, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		responder := quote.NewResponder(c)

		clearPending(ctx, fsm, responder.Session(), log)

		return lookups.Top(ctx, responder)
	}
}

// NewTopCallback adapts the top handler to the top button.
func NewTopCallback(top Handler) CallbackHandler {
	return func(c telebot.Context, _ string) error {
		return top(c)
	}
}

// NewModeCallback enters the waiting state for mode and asks for a ticker.
// Choosing a mode while another wait is pending replaces it.
func NewModeCallback(mode string, fsm state.StateMachine, translations *i18n.Manager, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context, _ string) error {
		ctx := RequestContext(c)
		responder := quote.NewResponder(c)
		session := responder.Session()

		awaiting, ok := state.AwaitingStateFor(mode)
		if !ok {
			log.Warn("mode has no waiting state", slog.String("mode", mode))
			return nil
		}

		if err := fsm.Await(ctx, session, awaiting); err != nil {
			log.Error("failed to enter waiting state",
				slog.String("session", session.String()),
				slog.String("state", string(awaiting)),
				slog.Any("error", err),
			)
			return err
		}

		return responder.Reply(TranslatorFor(translations, c).T("prompt.symbol"), nil)
	}
}

// NewPayloadCallback serves "{mode}_{ticker}" buttons. The button supplies the
// ticker itself, so any pending wait is dropped first.
func NewPayloadCallback(mode string, lookups Lookups, fsm state.StateMachine, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context, arg string) error {
		ctx := RequestContext(c)
		responder := quote.NewResponder(c)

		clearPending(ctx, fsm, responder.Session(), log)

		return lookups.Lookup(ctx, responder, mode, arg)
	}
}

// NewSymbolReplyHandler answers the text sent while the session waited for a
// ticker in mode. The dispatcher has already returned the session to idle.
func NewSymbolReplyHandler(mode string, lookups Lookups) Handler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		responder := quote.NewResponder(c)
		ticker := strings.TrimSpace(c.Text())
		if ticker == "" {
			return lookups.Usage(ctx, responder, mode)
		}

		return lookups.Lookup(ctx, responder, mode, ticker)
	}
}

// NewFallbackHandler answers unexpected text with a hint and a restart button.
func NewFallbackHandler(translations *i18n.Manager) Handler {
	return func(c telebot.Context) error {
		t := TranslatorFor(translations, c)
		return quote.NewResponder(c).Reply(t.T("fallback.use_command"), keyboard.RestartButton(t))
	}
}

func clearPending(ctx context.Context, fsm state.StateMachine, session state.SessionID, log *slog.Logger) {
	if fsm == nil {
		return
	}

	if err := fsm.ClearState(ctx, session); err != nil {
		log.Warn("failed to clear pending state",
			slog.String("session", session.String()),
			slog.Any("error", err),
		)
	}
}

// commandPayload returns the text after the command, e.g. "btc" for "/price@bot btc".
func commandPayload(c telebot.Context) string {
	msg := c.Message()
	if msg == nil {
		return ""
	}

	if payload := strings.TrimSpace(msg.Payload); payload != "" {
		return payload
	}

	fields := strings.Fields(msg.Text)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}

	return fields[1]
}
