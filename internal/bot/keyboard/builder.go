package keyboard

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/weva-assistant/internal/conversation"
	"github.com/Proton-105/weva-assistant/internal/domain"
	"github.com/Proton-105/weva-assistant/internal/i18n"
)

const (
	defaultPageSize = 6
	defaultColumns  = 2
)

// LocaleOption is one button of the language row.
type LocaleOption struct {
	Locale domain.Locale
	Name   string
}

// Localizer hands out translators per language tag.
type Localizer interface {
	Translator(lang string) i18n.Translator
}

// Builder turns assistant messages into inline keyboards.
type Builder struct {
	log      *slog.Logger
	locales  []LocaleOption
	pageSize int
	columns  int
}

// NewBuilder returns a Builder that offers locales on the greeting. A pageSize below one uses the default.
func NewBuilder(log *slog.Logger, locales []LocaleOption, pageSize int) *Builder {
	if log == nil {
		log = slog.Default()
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	return &Builder{
		log:      log,
		locales:  locales,
		pageSize: pageSize,
		columns:  defaultColumns,
	}
}

// LocaleOptions names every supported locale in its own language.
func LocaleOptions(localizer Localizer) []LocaleOption {
	options := make([]LocaleOption, 0, len(domain.SupportedLocales()))
	for _, locale := range domain.SupportedLocales() {
		name := locale.String()
		if localizer != nil {
			name = translated(localizer.Translator(locale.String()), "locale.name", name)
		}
		options = append(options, LocaleOption{Locale: locale, Name: name})
	}
	return options
}

// ForMessage builds the keyboard for msg showing the given page of its list.
// It returns nil when the message carries nothing to press.
func (b *Builder) ForMessage(t i18n.Translator, msg conversation.Message, page int) (*telebot.ReplyMarkup, error) {
	kb := NewInlineKeyboard()

	if msg.Kind == conversation.KindGreeting {
		kb.AddRow(b.localeButtons()...)
	}

	if msg.Payload != nil && msg.Payload.Len() > 0 {
		b.addChoices(kb, t, msg, page)
	}

	switch msg.Affordance {
	case conversation.AffordanceYesNo:
		kb.AddRow(YesNoButtons(t)...)
	case conversation.AffordanceChangeCategory:
		kb.AddRow(InlineButton{
			Text:   translated(t, "bot.change_category", "Change category"),
			Unique: UniqueChangeCategory,
		})
	}

	if kb.Empty() {
		return nil, nil
	}
	return kb.Build()
}

// YesNoButtons answers the "book another service?" question.
func YesNoButtons(t i18n.Translator) []InlineButton {
	return []InlineButton{
		{Text: translated(t, "chat.yes", "Yes"), Unique: UniqueBookMore, Data: "yes"},
		{Text: translated(t, "chat.no", "No"), Unique: UniqueBookMore, Data: "no"},
	}
}

// BookingLink builds the markup carrying the booking page URL.
func BookingLink(t i18n.Translator, url string) (*telebot.ReplyMarkup, error) {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: translated(t, "bot.open_booking", "Open booking page"), URL: url}).
		Build()
}

// UniqueFor maps a listing kind to its callback unique.
func UniqueFor(kind domain.EntityKind) string {
	switch kind {
	case domain.EntityCategory:
		return UniqueCategory
	case domain.EntityStore:
		return UniqueCenter
	case domain.EntityDepartment:
		return UniqueDepartment
	case domain.EntityService:
		return UniqueService
	default:
		return ""
	}
}

// EntityLabel is the button text for a choice.
func EntityLabel(t i18n.Translator, entity domain.Entity) string {
	switch e := entity.(type) {
	case domain.Store:
		if e.ReviewCount == 0 && e.Rating == 0 {
			return e.Name
		}
		rating := i18n.Format(t, "bot.rating", map[string]string{
			"Rating": strconv.FormatFloat(e.Rating, 'f', 1, 64),
			"Count":  strconv.Itoa(e.ReviewCount),
		})
		return e.Name + " · " + rating
	case domain.Service:
		parts := []string{e.Name}
		if price := strings.TrimSpace(e.Price.String()); price != "" {
			parts = append(parts, price)
		}
		if duration := strings.TrimSpace(e.Duration.String()); duration != "" {
			parts = append(parts, duration)
		}
		return strings.Join(parts, " · ")
	default:
		return entity.DisplayName()
	}
}

func (b *Builder) localeButtons() []InlineButton {
	buttons := make([]InlineButton, 0, len(b.locales))
	for _, option := range b.locales {
		buttons = append(buttons, InlineButton{
			Text:   option.Name,
			Unique: UniqueLocale,
			Data:   option.Locale.String(),
		})
	}
	return buttons
}

func (b *Builder) addChoices(kb *InlineKeyboardBuilder, t i18n.Translator, msg conversation.Message, page int) {
	kind := msg.Payload.Entity()
	unique := UniqueFor(kind)
	if unique == "" {
		b.log.Warn("listing without callback unique", slog.String("kind", string(kind)))
		return
	}

	items, page, total := Paginate(msg.Payload.Choices(), page, b.pageSize)

	buttons := make([]InlineButton, 0, len(items))
	for _, item := range items {
		btn := InlineButton{Text: EntityLabel(t, item), Unique: unique, Data: item.EntityID().String()}
		if _, err := EncodeCallback(btn.Unique, btn.Data); err != nil {
			b.log.Warn("choice skipped", slog.String("kind", string(kind)), slog.String("error", err.Error()))
			continue
		}
		buttons = append(buttons, btn)
	}

	// Stores and services have long labels and get a row each.
	perRow := b.columns
	if kind == domain.EntityStore || kind == domain.EntityService {
		perRow = 1
	}
	kb.AddGrid(perRow, buttons...)

	if total > 1 {
		kb.AddRow(PaginationButtons(t, UniquePage, fmt.Sprint(msg.TurnID), page, total)...)
	}
}
