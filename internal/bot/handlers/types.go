package handlers

import (
	telebot "gopkg.in/telebot.v3"
)

// Handler processes bot commands and text messages.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline button presses. arg is the part of the
// payload after the mode, empty for bare buttons.
type CallbackHandler func(c telebot.Context, arg string) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler
