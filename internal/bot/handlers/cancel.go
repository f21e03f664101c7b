package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/weva-assistant/internal/state"
)

// NewEndHandler ends the chat. The widget host sends the farewell.
func NewEndHandler(sessions Sessions, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Chat() == nil {
			log.Warn("end handler invoked without chat")
			return nil
		}

		view := sessions.View(c)
		if !view.Open() && !view.IsTyping {
			return c.Send(sessions.Translator(c).T("bot.help"))
		}

		return sessions.Dispatch(c, state.CloseWidget{})
	}
}
