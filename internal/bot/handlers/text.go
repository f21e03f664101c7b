package handlers

import (
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/weva-assistant/internal/state"
)

// NewTextHandler forwards typed messages to the assistant.
func NewTextHandler(sessions Sessions) Handler {
	return func(c telebot.Context) error {
		text := strings.TrimSpace(c.Text())
		if text == "" {
			return nil
		}

		if !sessions.View(c).Open() {
			return c.Send(sessions.Translator(c).T("bot.help"))
		}

		return sessions.Dispatch(c, state.FreeText{Text: text})
	}
}
