package handlers

import (
	"context"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinwatch-bot/internal/bot/keyboard"
	"github.com/Proton-105/coinwatch-bot/internal/i18n"
	"github.com/Proton-105/coinwatch-bot/internal/quote"
	"github.com/Proton-105/coinwatch-bot/internal/state"
)

const requestContextKey = "request_context"

// WithContext attaches ctx to the update so handlers can reuse it.
func WithContext(c telebot.Context, ctx context.Context) {
	c.Set(requestContextKey, ctx)
}

// RequestContext returns the context attached to the update, or a background context.
func RequestContext(c telebot.Context) context.Context {
	if c != nil {
		if ctx, ok := c.Get(requestContextKey).(context.Context); ok && ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

// SessionOf identifies the conversation the update belongs to.
func SessionOf(c telebot.Context) state.SessionID {
	return quote.NewResponder(c).Session()
}

// TranslatorFor picks the catalog matching the sender's Telegram language.
func TranslatorFor(m *i18n.Manager, c telebot.Context) i18n.Translator {
	lang := ""
	if c != nil && c.Sender() != nil {
		lang = c.Sender().LanguageCode
	}
	return m.Translator(lang)
}

// CommandName extracts "/price" from "/price@coinwatch_bot btc".
func CommandName(text string) string {
	name := strings.TrimSpace(text)
	if i := strings.IndexAny(name, " \t\n"); i >= 0 {
		name = name[:i]
	}
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

// ActionOf names the update for logs and metrics without echoing free text:
// the command, the button mode, or "text".
func ActionOf(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil {
		if mode, _, err := keyboard.DecodePayload(cb.Data); err == nil {
			return "button:" + mode
		}
		return "button"
	}

	text := strings.TrimSpace(c.Text())
	switch {
	case strings.HasPrefix(text, "/"):
		return CommandName(text)
	case text != "":
		return "text"
	default:
		return "unknown"
	}
}
