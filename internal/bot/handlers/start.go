package handlers

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinwatch-bot/internal/bot/keyboard"
	"github.com/Proton-105/coinwatch-bot/internal/i18n"
	"github.com/Proton-105/coinwatch-bot/internal/state"
)

// NewStartHandler greets the user with the main menu and drops any pending wait.
// It serves /start, /restart and the restart button.
func NewStartHandler(fsm state.StateMachine, translations *i18n.Manager, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		session := SessionOf(c)

		if err := fsm.ClearState(ctx, session); err != nil {
			log.Error("failed to reset session on start",
				slog.String("session", session.String()),
				slog.Any("error", err),
			)
		}

		t := TranslatorFor(translations, c)
		greeting := i18n.Render(t, "start.greeting", map[string]string{
			"Name": mention(c.Sender()),
		})

		opts := &telebot.SendOptions{
			ParseMode:   telebot.ModeHTML,
			ReplyMarkup: keyboard.MainMenu(t),
		}
		if c.Message() == nil {
			return c.Send(greeting, opts)
		}
		return c.Reply(greeting, opts)
	}
}

// NewRestartCallback adapts the start handler to the restart button.
func NewRestartCallback(start Handler) CallbackHandler {
	return func(c telebot.Context, _ string) error {
		return start(c)
	}
}

func mention(user *telebot.User) string {
	if user == nil {
		return ""
	}

	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Username
	}

	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, user.ID, html.EscapeString(name))
}
