package handlers

import (
	"fmt"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/weva-assistant/internal/bot/keyboard"
	"github.com/Proton-105/weva-assistant/internal/domain"
	apperrors "github.com/Proton-105/weva-assistant/internal/errors"
	"github.com/Proton-105/weva-assistant/internal/state"
)

// NewChoiceHandler turns inline button presses into intents.
func NewChoiceHandler(sessions Sessions, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}

		unique, data, err := keyboard.DecodeCallback(cb.Data)
		if err != nil {
			log.Warn("undecodable callback", slog.String("data", cb.Data))
			return respond(c)
		}

		if unique == keyboard.UniquePage {
			ref, page, err := keyboard.DecodePage(data)
			if err != nil {
				return respond(c)
			}
			turnID, err := strconv.ParseUint(ref, 10, 64)
			if err != nil {
				return respond(c)
			}
			if err := sessions.Page(c, turnID, page); err != nil {
				return err
			}
			return respond(c)
		}

		intent, err := Intent(unique, data)
		if err != nil {
			return err
		}

		if err := sessions.Dispatch(c, intent); err != nil {
			return err
		}
		return respond(c)
	}
}

// Intent maps a callback unique and payload to the intent it stands for.
func Intent(unique, data string) (state.Event, error) {
	switch unique {
	case keyboard.UniqueLocale:
		locale, ok := domain.ParseLocale(data)
		if !ok {
			return nil, apperrors.NewUnknownChoiceError(fmt.Errorf("locale %q: %w", data, state.ErrUnknownChoice))
		}
		return state.SelectLocale{Locale: locale}, nil
	case keyboard.UniqueCategory:
		return state.SelectCategory{ID: domain.ID(data)}, nil
	case keyboard.UniqueCenter:
		return state.SelectCenter{ID: domain.ID(data)}, nil
	case keyboard.UniqueDepartment:
		return state.SelectDepartment{ID: domain.ID(data)}, nil
	case keyboard.UniqueService:
		return state.SelectService{ID: domain.ID(data)}, nil
	case keyboard.UniqueBookMore:
		return state.AnswerBookMore{Yes: data == "yes"}, nil
	case keyboard.UniqueChangeCategory:
		return state.ChangeCategory{}, nil
	default:
		return nil, apperrors.NewInvalidIntentError(fmt.Errorf("callback %q: %w", unique, state.ErrInvalidIntent))
	}
}

// respond clears the loading state on the pressed button.
func respond(c telebot.Context) error {
	return c.Respond()
}
