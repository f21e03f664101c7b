package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/weva-assistant/internal/state"
)

// NewStartHandler opens the assistant, or re-sends the current prompt when it is already open.
func NewStartHandler(sessions Sessions, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Chat() == nil {
			log.Warn("start handler invoked without chat")
			return nil
		}

		if sessions.View(c).Open() {
			return sessions.Resume(c)
		}

		return sessions.Dispatch(c, state.OpenWidget{})
	}
}

// NewHelpHandler prints usage.
func NewHelpHandler(sessions Sessions) Handler {
	return func(c telebot.Context) error {
		return c.Send(sessions.Translator(c).T("bot.help"))
	}
}
