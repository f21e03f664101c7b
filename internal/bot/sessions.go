package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/weva-assistant/internal/bot/handlers"
	"github.com/Proton-105/weva-assistant/internal/conversation"
	"github.com/Proton-105/weva-assistant/internal/domain"
	errors "github.com/Proton-105/weva-assistant/internal/errors"
	"github.com/Proton-105/weva-assistant/internal/i18n"
	"github.com/Proton-105/weva-assistant/internal/state"
	"github.com/Proton-105/weva-assistant/internal/widget"
)

var _ handlers.Sessions = (*Bot)(nil)

// View returns the chat's widget view without creating a widget.
func (b *Bot) View(c telebot.Context) widget.View {
	if w, ok := b.registry.Lookup(chatKey(c)); ok {
		return w.View()
	}
	return widget.View{Step: state.StepIdle}
}

// Dispatch sends intent to the chat's widget and renders the new turns, even when the intent failed.
func (b *Bot) Dispatch(c telebot.Context, intent state.Event) error {
	id := chatKey(c)
	if id == "" {
		return nil
	}

	ctx := handlers.Context(c)
	w := b.registry.Get(id)
	err := w.Dispatch(ctx, intent)

	if ch := b.chat(id); ch != nil {
		if renderErr := ch.render(ctx, w.View()); renderErr != nil && err == nil {
			err = renderErr
		}
	}
	return err
}

// Resume re-sends the latest assistant prompt.
func (b *Bot) Resume(c telebot.Context) error {
	id := chatKey(c)
	w, ok := b.registry.Lookup(id)
	ch := b.chat(id)
	if !ok || ch == nil {
		return b.Dispatch(c, state.OpenWidget{})
	}

	view := w.View()
	for i := len(view.Messages) - 1; i >= 0; i-- {
		msg := view.Messages[i]
		if msg.Speaker == conversation.SpeakerAssistant {
			return ch.resend(msg)
		}
	}
	return nil
}

// Page swaps the keyboard of the pressed message for another page of its list.
func (b *Bot) Page(c telebot.Context, turnID uint64, page int) error {
	cb := c.Callback()
	if cb == nil || cb.Message == nil {
		return nil
	}

	w, ok := b.registry.Lookup(chatKey(c))
	if !ok {
		return errors.NewUnknownChoiceError(fmt.Errorf("page of turn %d: %w", turnID, state.ErrUnknownChoice))
	}

	view := w.View()
	for _, msg := range view.Messages {
		if msg.TurnID != turnID {
			continue
		}

		markup, err := b.keyboard.ForMessage(b.translator(view.Locale), msg, page)
		if err != nil {
			return err
		}
		if _, err := b.telebot.EditReplyMarkup(cb.Message, markup); err != nil {
			b.log.Warn("edit keyboard failed", slog.Uint64("turn_id", turnID), slog.String("error", err.Error()))
		}
		return nil
	}

	return errors.NewUnknownChoiceError(fmt.Errorf("page of turn %d: %w", turnID, state.ErrUnknownChoice))
}

// RenderedTurn returns the last turn sent to the update's chat, or 0 when the chat has no widget.
func (b *Bot) RenderedTurn(c telebot.Context) uint64 {
	ch := b.chat(chatKey(c))
	if ch == nil {
		return 0
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.rendered
}

// Translator picks the chat's locale, then the sender's Telegram language, then the default.
func (b *Bot) Translator(c telebot.Context) i18n.Translator {
	if locale := b.View(c).Locale; locale.Valid() {
		return b.translator(locale)
	}

	if c != nil && c.Sender() != nil {
		if locale, ok := domain.ParseLocale(c.Sender().LanguageCode); ok {
			return b.translator(locale)
		}
	}

	return b.translator("")
}
