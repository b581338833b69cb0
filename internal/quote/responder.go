package quote

import (
	"bytes"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinwatch-bot/internal/state"
)

// Responder is what a lookup needs from the update that triggered it.
type Responder interface {
	Reply(text string, markup *telebot.ReplyMarkup) error
	ReplyPhoto(png []byte) error
	Session() state.SessionID
	Language() string
}

// PlainMessage answers a text message by replying to it.
type PlainMessage struct {
	Ctx telebot.Context
}

// ButtonCallback answers an inline button press by replying to the message
// that carries the button, or with a plain message when there is none.
type ButtonCallback struct {
	Ctx telebot.Context
}

// NewResponder picks the variant matching the update carried by c.
func NewResponder(c telebot.Context) Responder {
	if c.Callback() != nil {
		return ButtonCallback{Ctx: c}
	}
	return PlainMessage{Ctx: c}
}

func (m PlainMessage) Reply(text string, markup *telebot.ReplyMarkup) error {
	return m.Ctx.Reply(text, sendOptions(markup)...)
}

func (m PlainMessage) ReplyPhoto(png []byte) error {
	return m.Ctx.Reply(photo(png))
}

func (m PlainMessage) Session() state.SessionID {
	return sessionOf(m.Ctx)
}

func (m PlainMessage) Language() string {
	return languageOf(m.Ctx)
}

func (b ButtonCallback) Reply(text string, markup *telebot.ReplyMarkup) error {
	return b.respond(text, sendOptions(markup)...)
}

func (b ButtonCallback) ReplyPhoto(png []byte) error {
	return b.respond(photo(png))
}

func (b ButtonCallback) respond(what interface{}, opts ...interface{}) error {
	if b.Ctx.Message() == nil {
		return b.Ctx.Send(what, opts...)
	}
	return b.Ctx.Reply(what, opts...)
}

func (b ButtonCallback) Session() state.SessionID {
	return sessionOf(b.Ctx)
}

func (b ButtonCallback) Language() string {
	return languageOf(b.Ctx)
}

func sendOptions(markup *telebot.ReplyMarkup) []interface{} {
	if markup == nil {
		return nil
	}
	return []interface{}{markup}
}

func photo(png []byte) *telebot.Photo {
	return &telebot.Photo{File: telebot.FromReader(bytes.NewReader(png))}
}

func sessionOf(c telebot.Context) state.SessionID {
	var id state.SessionID
	if chat := c.Chat(); chat != nil {
		id.ChatID = chat.ID
	}
	if sender := c.Sender(); sender != nil {
		id.UserID = sender.ID
	}
	return id
}

func languageOf(c telebot.Context) string {
	if sender := c.Sender(); sender != nil {
		return sender.LanguageCode
	}
	return ""
}
