// Package keyboard builds inline keyboards and encodes their callback payloads.
package keyboard

import (
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinwatch-bot/internal/coin"
	"github.com/Proton-105/coinwatch-bot/internal/format"
	"github.com/Proton-105/coinwatch-bot/internal/i18n"
	"github.com/Proton-105/coinwatch-bot/internal/market"
	"github.com/Proton-105/coinwatch-bot/internal/state"
)

// Payload modes understood by the router.
const (
	ModePrice   = state.ModePrice
	ModeInfo    = state.ModeInfo
	ModeChart   = state.ModeChart
	ModeTop     = "top"
	ModeRestart = "restart"
	ModeCoin    = "coin"
)

const suggestionsPerRow = 3

// MainMenu builds the 2x2 mode selection panel.
func MainMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup, _ := NewInlineKeyboard().
		AddRow(
			InlineButton{Text: translated(t, "menu.price", "💰 Price"), Mode: ModePrice},
			InlineButton{Text: translated(t, "menu.info", "ℹ️ Info"), Mode: ModeInfo},
		).
		AddRow(
			InlineButton{Text: translated(t, "menu.chart", "📈 Chart"), Mode: ModeChart},
			InlineButton{Text: translated(t, "menu.top", "🏆 Top 10"), Mode: ModeTop},
		).
		Build()
	return markup
}

// RestartButton builds a single button returning to the main menu.
func RestartButton(t i18n.Translator) *telebot.ReplyMarkup {
	markup, _ := NewInlineKeyboard().
		AddRow(InlineButton{Text: translated(t, "menu.restart", "🔄 Restart"), Mode: ModeRestart}).
		Build()
	return markup
}

// Suggestions offers the popular tickers for mode, each button carrying both.
func Suggestions(mode string) (*telebot.ReplyMarkup, error) {
	popular := coin.Popular()
	buttons := make([]InlineButton, 0, len(popular))
	for _, ticker := range popular {
		buttons = append(buttons, InlineButton{
			Text: strings.ToUpper(ticker),
			Mode: mode,
			Arg:  ticker,
		})
	}

	return NewInlineKeyboard().AddGrid(suggestionsPerRow, buttons...).Build()
}

// TopCoins renders one row per coin; selecting it opens the coin info.
// Coins whose id does not fit into callback data are left out.
func TopCoins(coins []market.Snapshot) (*telebot.ReplyMarkup, error) {
	builder := NewInlineKeyboard()
	for _, c := range coins {
		if _, err := EncodePayload(ModeCoin, c.ID); err != nil {
			continue
		}

		text := coin.Marker(coin.ID(c.ID)) + " " + strings.ToUpper(c.Symbol) + ": " + format.CompactUSD(c.Price)
		builder.AddRow(InlineButton{Text: text, Mode: ModeCoin, Arg: c.ID})
	}

	return builder.Build()
}

func translated(t i18n.Translator, key, fallback string) string {
	if t == nil {
		return fallback
	}

	text := strings.TrimSpace(t.T(key))
	if text == "" || text == key {
		return fallback
	}

	return text
}
