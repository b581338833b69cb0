package keyboard

import (
	"fmt"

	telebot "gopkg.in/telebot.v3"
)

// InlineButton represents a lightweight inline keyboard button definition used by the builder.
type InlineButton struct {
	Text string
	Mode string // Payload mode routed by the bot.
	Arg  string // Optional argument appended to the mode.
}

// InlineKeyboardBuilder accumulates rows of InlineButton definitions before rendering telebot markup.
type InlineKeyboardBuilder struct {
	rows [][]InlineButton
}

// NewInlineKeyboard creates an empty builder.
func NewInlineKeyboard() *InlineKeyboardBuilder {
	return &InlineKeyboardBuilder{
		rows: make([][]InlineButton, 0),
	}
}

// AddRow appends a new row made of custom InlineButton definitions.
func (b *InlineKeyboardBuilder) AddRow(buttons ...InlineButton) *InlineKeyboardBuilder {
	if len(buttons) == 0 {
		return b
	}

	row := make([]InlineButton, len(buttons))
	copy(row, buttons)
	b.rows = append(b.rows, row)
	return b
}

// AddGrid lays buttons out in rows of at most perRow.
func (b *InlineKeyboardBuilder) AddGrid(perRow int, buttons ...InlineButton) *InlineKeyboardBuilder {
	if perRow <= 0 {
		perRow = len(buttons)
	}

	for start := 0; start < len(buttons); start += perRow {
		end := start + perRow
		if end > len(buttons) {
			end = len(buttons)
		}
		b.AddRow(buttons[start:end]...)
	}

	return b
}

// Build encodes every button payload and renders the inline markup.
func (b *InlineKeyboardBuilder) Build() (*telebot.ReplyMarkup, error) {
	inlineKeyboard := make([][]telebot.InlineButton, len(b.rows))
	for i, row := range b.rows {
		inlineKeyboard[i] = make([]telebot.InlineButton, len(row))
		for j, btn := range row {
			data, err := EncodePayload(btn.Mode, btn.Arg)
			if err != nil {
				return nil, fmt.Errorf("button %q: %w", btn.Text, err)
			}

			// Unique stays empty: telebot would prefix the data with "\f".
			inlineKeyboard[i][j] = telebot.InlineButton{
				Text: btn.Text,
				Data: data,
			}
		}
	}

	return &telebot.ReplyMarkup{InlineKeyboard: inlineKeyboard}, nil
}
