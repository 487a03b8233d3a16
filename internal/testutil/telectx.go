package testutil

import (
	tele "gopkg.in/telebot.v4"
)

// FakeTele is a minimal tele.Context stand-in for handler tests. Only the
// methods the dialog manager and flows touch are implemented; anything else
// panics via the embedded nil interface, which is exactly what a test wants.
type FakeTele struct {
	tele.Context
	User *tele.User
	Txt  string

	store map[string]interface{}
	// Sent collects outbound message texts in order.
	Sent []string
}

// NewFakeTele builds a fake update from userID saying text.
func NewFakeTele(userID int64, text string) *FakeTele {
	return &FakeTele{
		User:  &tele.User{ID: userID},
		Txt:   text,
		store: make(map[string]interface{}),
	}
}

func (f *FakeTele) Sender() *tele.User { return f.User }

func (f *FakeTele) Chat() *tele.Chat { return &tele.Chat{ID: f.User.ID} }

func (f *FakeTele) Text() string { return f.Txt }

func (f *FakeTele) Message() *tele.Message { return &tele.Message{Text: f.Txt} }

func (f *FakeTele) Callback() *tele.Callback { return nil }

func (f *FakeTele) Update() tele.Update { return tele.Update{} }

func (f *FakeTele) Get(key string) interface{} { return f.store[key] }

func (f *FakeTele) Set(key string, value interface{}) { f.store[key] = value }

func (f *FakeTele) Send(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		f.Sent = append(f.Sent, s)
	}
	return nil
}

func (f *FakeTele) EditOrSend(what interface{}, opts ...interface{}) error {
	return f.Send(what, opts...)
}

func (f *FakeTele) Respond(_ ...*tele.CallbackResponse) error { return nil }

// LastSent returns the most recent outbound text, or "".
func (f *FakeTele) LastSent() string {
	if len(f.Sent) == 0 {
		return ""
	}
	return f.Sent[len(f.Sent)-1]
}
