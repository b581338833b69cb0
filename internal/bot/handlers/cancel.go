package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinwatch-bot/internal/i18n"
	"github.com/Proton-105/coinwatch-bot/internal/quote"
	"github.com/Proton-105/coinwatch-bot/internal/state"
)

// NewCancelHandler drops any pending wait and confirms the cancellation.
func NewCancelHandler(fsm state.StateMachine, translations *i18n.Manager, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		responder := quote.NewResponder(c)
		session := responder.Session()

		if err := fsm.ClearState(ctx, session); err != nil {
			log.Error("failed to clear session state",
				slog.String("session", session.String()),
				slog.Any("error", err),
			)
			return err
		}

		return responder.Reply(TranslatorFor(translations, c).T("cancel.done"), nil)
	}
}
