package testutil

import (
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"
)

// Sent is one outgoing call captured by FakeContext.
type Sent struct {
	What    any
	Opts    []any
	IsReply bool
}

// Text returns the sent text, or "" for photos and other payloads.
func (s Sent) Text() string {
	text, _ := s.What.(string)
	return text
}

// Markup returns the inline keyboard attached to the call, if any.
func (s Sent) Markup() *telebot.ReplyMarkup {
	for _, opt := range s.Opts {
		switch o := opt.(type) {
		case *telebot.ReplyMarkup:
			return o
		case *telebot.SendOptions:
			return o.ReplyMarkup
		}
	}
	return nil
}

// FakeContext is a telebot.Context for one update that records everything sent back.
// Methods the bot never calls are left to the embedded nil interface.
type FakeContext struct {
	telebot.Context

	Msg  *telebot.Message
	CB   *telebot.Callback
	User *telebot.User

	mu        sync.Mutex
	sent      []Sent
	responded int
	store     map[string]any
}

// NewMessage builds a text update from userID in chatID, parsing a command payload
// the way telebot does.
func NewMessage(chatID, userID int64, text string) *FakeContext {
	user := &telebot.User{ID: userID, FirstName: "Test", LanguageCode: "en"}
	msg := &telebot.Message{
		ID:     1,
		Sender: user,
		Chat:   &telebot.Chat{ID: chatID, Type: telebot.ChatPrivate},
		Text:   text,
	}
	if strings.HasPrefix(text, "/") {
		if i := strings.IndexAny(text, " \n"); i >= 0 {
			msg.Payload = strings.TrimSpace(text[i+1:])
		}
	}

	return &FakeContext{Msg: msg, User: user, store: make(map[string]any)}
}

// NewCallback builds an inline button press carrying data.
func NewCallback(chatID, userID int64, data string) *FakeContext {
	user := &telebot.User{ID: userID, FirstName: "Test", LanguageCode: "en"}
	cb := &telebot.Callback{
		ID:     "cb",
		Sender: user,
		Message: &telebot.Message{
			ID:   2,
			Chat: &telebot.Chat{ID: chatID, Type: telebot.ChatPrivate},
		},
		Data: data,
	}

	return &FakeContext{CB: cb, User: user, store: make(map[string]any)}
}

func (f *FakeContext) Message() *telebot.Message {
	if f.CB != nil {
		return f.CB.Message
	}
	return f.Msg
}

func (f *FakeContext) Callback() *telebot.Callback {
	return f.CB
}

func (f *FakeContext) Sender() *telebot.User {
	return f.User
}

func (f *FakeContext) Chat() *telebot.Chat {
	if m := f.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (f *FakeContext) Text() string {
	m := f.Message()
	if m == nil {
		return ""
	}
	if m.Caption != "" {
		return m.Caption
	}
	return m.Text
}

func (f *FakeContext) Data() string {
	if f.CB != nil {
		return f.CB.Data
	}
	if f.Msg != nil {
		return f.Msg.Payload
	}
	return ""
}

func (f *FakeContext) Send(what interface{}, opts ...interface{}) error {
	f.record(Sent{What: what, Opts: opts})
	return nil
}

func (f *FakeContext) Reply(what interface{}, opts ...interface{}) error {
	f.record(Sent{What: what, Opts: opts, IsReply: true})
	return nil
}

func (f *FakeContext) Respond(_ ...*telebot.CallbackResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responded++
	return nil
}

func (f *FakeContext) Get(key string) interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[key]
}

func (f *FakeContext) Set(key string, val interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[key] = val
}

// Sent returns every outgoing call in order.
func (f *FakeContext) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Sent(nil), f.sent...)
}

// Texts returns the text of every outgoing message.
func (f *FakeContext) Texts() []string {
	var texts []string
	for _, s := range f.Sent() {
		if text := s.Text(); text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

// Photos counts outgoing photos.
func (f *FakeContext) Photos() int {
	n := 0
	for _, s := range f.Sent() {
		if _, ok := s.What.(*telebot.Photo); ok {
			n++
		}
	}
	return n
}

// Responded counts callback acknowledgements.
func (f *FakeContext) Responded() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.responded
}

func (f *FakeContext) record(s Sent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, s)
}
