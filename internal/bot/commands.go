package bot

import (
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinwatch-bot/internal/i18n"
)

// Command constants for Telegram bot commands.
const (
	CommandStart   = "/start"
	CommandRestart = "/restart"
	CommandPrice   = "/price"
	CommandInfo    = "/info"
	CommandChart   = "/chart"
	CommandTop     = "/top"
	CommandCancel  = "/cancel"
)

var publishedCommands = []string{
	CommandStart,
	CommandPrice,
	CommandInfo,
	CommandChart,
	CommandTop,
	CommandCancel,
	CommandRestart,
}

// Commands builds the command list shown in the Telegram client menu.
func Commands(t i18n.Translator) []telebot.Command {
	out := make([]telebot.Command, 0, len(publishedCommands))
	for _, cmd := range publishedCommands {
		name := strings.TrimPrefix(cmd, "/")
		out = append(out, telebot.Command{
			Text:        name,
			Description: t.T("commands." + name),
		})
	}
	return out
}
