package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/weva-assistant/internal/bot/keyboard"
	"github.com/Proton-105/weva-assistant/internal/conversation"
	"github.com/Proton-105/weva-assistant/internal/domain"
	"github.com/Proton-105/weva-assistant/internal/i18n"
	"github.com/Proton-105/weva-assistant/internal/widget"
)

// chat renders one widget into one Telegram chat and acts as that widget's host.
type chat struct {
	bot       *Bot
	recipient telebot.Recipient

	mu       sync.Mutex
	rendered uint64 // highest turn id already sent
	locale   domain.Locale
}

func newChat(b *Bot, recipient telebot.Recipient) *chat {
	return &chat{bot: b, recipient: recipient}
}

// render sends the assistant messages the chat has not seen yet.
func (ch *chat) render(ctx context.Context, view widget.View) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	// A closed widget has no locale, so the next greeting starts from the default.
	ch.locale = view.Locale

	var errs []error
	for _, msg := range view.Since(ch.rendered) {
		ch.rendered = msg.TurnID
		if msg.Speaker != conversation.SpeakerAssistant {
			continue
		}
		if err := ch.sendLocked(msg); err != nil {
			ch.bot.log.WarnContext(ctx, "render message failed",
				slog.Uint64("turn_id", msg.TurnID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// resend sends msg again regardless of what was rendered.
func (ch *chat) resend(msg conversation.Message) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.sendLocked(msg)
}

func (ch *chat) sendLocked(msg conversation.Message) error {
	t := ch.translatorLocked()

	markup, err := ch.bot.keyboard.ForMessage(t, msg, 1)
	if err != nil {
		return fmt.Errorf("build keyboard for turn %d: %w", msg.TurnID, err)
	}

	text := msg.Text
	if text == "" {
		text = t.T("bot.no_items")
	}

	opts := make([]interface{}, 0, 1)
	if markup != nil {
		opts = append(opts, markup)
	}

	if _, err := ch.bot.telebot.Send(ch.recipient, text, opts...); err != nil {
		return fmt.Errorf("send turn %d: %w", msg.TurnID, err)
	}
	return nil
}

func (ch *chat) translator() i18n.Translator {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.translatorLocked()
}

func (ch *chat) translatorLocked() i18n.Translator {
	return ch.bot.translator(ch.locale)
}

// observe shows the typing indicator while a fetch is pending.
func (ch *chat) observe(view widget.View) {
	if !view.IsTyping {
		return
	}
	if err := ch.bot.telebot.Notify(ch.recipient, telebot.Typing); err != nil {
		ch.bot.log.Debug("typing indicator failed", slog.String("error", err.Error()))
	}
}

// OpenBookingPage hands the booking URL to the user as a link button.
func (ch *chat) OpenBookingPage(ctx context.Context, link widget.BookingLink) error {
	t := ch.bot.translator(link.Locale)

	markup, err := keyboard.BookingLink(t, link.URL)
	if err != nil {
		return fmt.Errorf("build booking link: %w", err)
	}

	text := i18n.Format(t, "bot.booking_link", map[string]string{"Name": link.Service.Name})
	if _, err := ch.bot.telebot.Send(ch.recipient, text, markup); err != nil {
		return fmt.Errorf("send booking link: %w", err)
	}
	return nil
}

// Dismiss says goodbye in the language the chat was using.
func (ch *chat) Dismiss(ctx context.Context) error {
	if _, err := ch.bot.telebot.Send(ch.recipient, ch.translator().T("bot.chat_ended")); err != nil {
		return fmt.Errorf("send farewell: %w", err)
	}
	return nil
}
