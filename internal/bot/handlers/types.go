package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/weva-assistant/internal/i18n"
	"github.com/Proton-105/weva-assistant/internal/state"
	"github.com/Proton-105/weva-assistant/internal/widget"
)

const contextKey = "request_ctx"

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// HandlerFunc adapts ordinary functions to the Handler interface.
type HandlerFunc func(c telebot.Context) error

// Handle executes the underlying function.
func (h HandlerFunc) Handle(c telebot.Context) error {
	return h(c)
}

// Sessions is the projector surface handlers drive: the chat's widget and its rendering.
type Sessions interface {
	// View returns the current view of the chat's widget.
	View(c telebot.Context) widget.View
	// Dispatch sends intent to the chat's widget and renders what it appended.
	Dispatch(c telebot.Context, intent state.Event) error
	// Resume re-sends the latest assistant prompt of an open widget.
	Resume(c telebot.Context) error
	// Page re-renders the keyboard of message turnID at page.
	Page(c telebot.Context, turnID uint64, page int) error
	// Translator returns the translator for the chat's locale.
	Translator(c telebot.Context) i18n.Translator
}

// WithContext stores ctx on the update so downstream handlers share it.
func WithContext(c telebot.Context, ctx context.Context) {
	if c != nil {
		c.Set(contextKey, ctx)
	}
}

// Context returns the update context stored by WithContext or context.Background.
func Context(c telebot.Context) context.Context {
	if c != nil {
		if ctx, ok := c.Get(contextKey).(context.Context); ok && ctx != nil {
			return ctx
		}
	}
	return context.Background()
}
