package state

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/Proton-105/weva-assistant/internal/conversation"
	"github.com/Proton-105/weva-assistant/internal/domain"
	"github.com/Proton-105/weva-assistant/internal/i18n"
)

var (
	// ErrInvalidTransition indicates that a reducer branch produced a step change the funnel forbids.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrInvalidIntent indicates that an intent is not valid in the current step.
	ErrInvalidIntent = errors.New("intent not valid in current step")
	// ErrUnknownChoice indicates that the picked entity was not offered.
	ErrUnknownChoice = errors.New("choice is not offered")
	// ErrBusy indicates that a fetch is already in flight.
	ErrBusy = errors.New("a fetch is already in progress")
	// ErrStaleResult indicates that a fetch result no longer matches the pending ticket.
	ErrStaleResult = errors.New("stale fetch result")
)

const (
	// DefaultStoreLimit caps how many centers are shown for a category.
	DefaultStoreLimit = 5
	// DefaultServiceLimit caps how many services are shown for a department.
	DefaultServiceLimit = 5
)

// Localizer hands out translators per language tag.
type Localizer interface {
	Translator(lang string) i18n.Translator
}

// Options tunes the reducer.
type Options struct {
	StoreLimit    int
	ServiceLimit  int
	DefaultLocale domain.Locale
}

// Transition is the outcome of reducing one event.
type Transition struct {
	State    State
	Messages []conversation.Message
	Effects  []Effect
	// ResetLog asks the owner to empty the message log before appending Messages.
	ResetLog bool
}

// Machine is the conversation reducer. It holds configuration only and is safe for concurrent use.
type Machine struct {
	localizer     Localizer
	storeLimit    int
	serviceLimit  int
	defaultLocale domain.Locale
	keywords      []string
}

// NewMachine builds a reducer that renders assistant text through localizer.
func NewMachine(localizer Localizer, opts Options) *Machine {
	if opts.StoreLimit <= 0 {
		opts.StoreLimit = DefaultStoreLimit
	}
	if opts.ServiceLimit <= 0 {
		opts.ServiceLimit = DefaultServiceLimit
	}
	if !opts.DefaultLocale.Valid() {
		opts.DefaultLocale = domain.LocaleEnglish
	}

	m := &Machine{
		localizer:     localizer,
		storeLimit:    opts.StoreLimit,
		serviceLimit:  opts.ServiceLimit,
		defaultLocale: opts.DefaultLocale,
	}

	for _, locale := range domain.SupportedLocales() {
		for _, keyword := range i18n.List(m.translator(locale), "chat.greeting_keywords") {
			if normalized := normalizeText(keyword); normalized != "" {
				m.keywords = append(m.keywords, normalized)
			}
		}
	}
	m.keywords = lo.Uniq(m.keywords)

	return m
}

// Reduce computes the transition for ev. On error the returned transition carries s unchanged.
func (m *Machine) Reduce(s State, ev Event) (Transition, error) {
	var (
		t   Transition
		err error
	)

	switch e := ev.(type) {
	case OpenWidget:
		t = m.open(s)
	case CloseWidget:
		t = m.close(s)
	case SelectLocale:
		t, err = m.selectLocale(s, e)
	case SelectCategory:
		t, err = m.selectCategory(s, e)
	case SelectCenter:
		t, err = m.selectCenter(s, e)
	case ChangeCategory:
		t, err = m.changeCategory(s)
	case SelectDepartment:
		t, err = m.selectDepartment(s, e)
	case SelectService:
		t, err = m.selectService(s, e)
	case BookingOpened:
		t, err = m.bookingOpened(s, e)
	case AnswerBookMore:
		t, err = m.answerBookMore(s, e)
	case FreeText:
		t, err = m.freeText(s, e)
	case CategoriesLoaded:
		t, err = m.categoriesLoaded(s, e)
	case StoresLoaded:
		t, err = m.storesLoaded(s, e)
	case DepartmentsLoaded:
		t, err = m.departmentsLoaded(s, e)
	case ServicesLoaded:
		t, err = m.servicesLoaded(s, e)
	default:
		err = fmt.Errorf("%w: unsupported event %T", ErrInvalidIntent, ev)
	}

	if err != nil {
		return Transition{State: s}, err
	}

	if !IsTransitionAllowed(s.Step, t.State.Step) {
		return Transition{State: s}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Step, t.State.Step)
	}

	return t, nil
}

func (m *Machine) open(s State) Transition {
	if s.Step != StepIdle {
		return Transition{State: s}
	}

	next := s
	next.Step = StepLanguageSelect
	greeting := conversation.AssistantText(conversation.KindGreeting, m.translator(next.Locale).T("chat.greeting"), conversation.AffordanceNone)

	return Transition{State: next, Messages: []conversation.Message{greeting}}
}

func (m *Machine) close(s State) Transition {
	if s.Step == StepIdle && s.Pending == nil {
		return Transition{State: s}
	}

	next := Initial()
	next.Epoch = s.Epoch + 1
	next.Seq = s.Seq

	return Transition{State: next, ResetLog: true, Effects: []Effect{Dismiss{}}}
}

func (m *Machine) selectLocale(s State, e SelectLocale) (Transition, error) {
	if s.Step != StepLanguageSelect {
		return Transition{}, fmt.Errorf("%w: select locale in %s", ErrInvalidIntent, s.Step)
	}
	if s.Pending != nil {
		return Transition{}, ErrBusy
	}
	if !e.Locale.Valid() {
		return Transition{}, fmt.Errorf("%w: locale %q", ErrUnknownChoice, e.Locale)
	}

	next := s
	next.Locale = e.Locale

	return m.requestCategories(next, m.translator(e.Locale).T("locale.name")), nil
}

func (m *Machine) selectCategory(s State, e SelectCategory) (Transition, error) {
	if s.Step != StepCategorySelect {
		return Transition{}, fmt.Errorf("%w: select category in %s", ErrInvalidIntent, s.Step)
	}
	if s.Pending != nil {
		return Transition{}, ErrBusy
	}
	if !s.ShowCategories || len(s.Offers.Categories) == 0 {
		return Transition{}, fmt.Errorf("%w: categories are not shown", ErrInvalidIntent)
	}

	category, ok := lo.Find(s.Offers.Categories, func(c domain.Category) bool { return c.ID == e.ID })
	if !ok {
		return Transition{}, fmt.Errorf("%w: category %s", ErrUnknownChoice, e.ID)
	}

	next, ticket := s.nextTicket()
	next.ShowCategories = false
	next.Pending = &Pending{Ticket: ticket, Fetch: FetchCategoryStores, Category: &category}

	return Transition{
		State:    next,
		Messages: []conversation.Message{conversation.UserTurn(category.Name)},
		Effects:  []Effect{FetchCategoryDetail{Ticket: ticket, CategoryID: category.ID, Locale: next.Locale}},
	}, nil
}

func (m *Machine) selectCenter(s State, e SelectCenter) (Transition, error) {
	if s.Step != StepCenterSelect {
		return Transition{}, fmt.Errorf("%w: select center in %s", ErrInvalidIntent, s.Step)
	}
	if s.Pending != nil {
		return Transition{}, ErrBusy
	}

	center, ok := lo.Find(s.Offers.Stores, func(st domain.Store) bool { return st.ID == e.ID })
	if !ok {
		return Transition{}, fmt.Errorf("%w: center %s", ErrUnknownChoice, e.ID)
	}

	next, ticket := s.nextTicket()
	next.Pending = &Pending{Ticket: ticket, Fetch: FetchCenterDepartments, Center: &center}

	return Transition{
		State:    next,
		Messages: []conversation.Message{conversation.UserTurn(center.Name)},
		Effects:  []Effect{FetchCenterDetail{Ticket: ticket, CenterID: center.ID, Locale: next.Locale}},
	}, nil
}

func (m *Machine) changeCategory(s State) (Transition, error) {
	if s.Step != StepCenterSelect {
		return Transition{}, fmt.Errorf("%w: change category in %s", ErrInvalidIntent, s.Step)
	}
	if s.Pending != nil {
		return Transition{}, ErrBusy
	}

	return m.requestCategories(s, ""), nil
}

func (m *Machine) selectDepartment(s State, e SelectDepartment) (Transition, error) {
	if s.Step != StepDepartmentSelect || s.Selection.Center == nil {
		return Transition{}, fmt.Errorf("%w: select department in %s", ErrInvalidIntent, s.Step)
	}
	if s.Pending != nil {
		return Transition{}, ErrBusy
	}

	department, ok := lo.Find(s.Offers.Departments, func(d domain.Department) bool { return d.ID == e.ID })
	if !ok {
		return Transition{}, fmt.Errorf("%w: department %s", ErrUnknownChoice, e.ID)
	}

	next, ticket := s.nextTicket()
	next.Pending = &Pending{Ticket: ticket, Fetch: FetchDepartment, Department: &department}

	return Transition{
		State:    next,
		Messages: []conversation.Message{conversation.UserTurn(department.Name)},
		Effects: []Effect{FetchServices{
			Ticket:       ticket,
			CenterID:     s.Selection.Center.ID,
			DepartmentID: department.ID,
			Locale:       next.Locale,
		}},
	}, nil
}

func (m *Machine) selectService(s State, e SelectService) (Transition, error) {
	if s.Step != StepServiceSelect && s.Step != StepPostBooking {
		return Transition{}, fmt.Errorf("%w: select service in %s", ErrInvalidIntent, s.Step)
	}
	if s.Pending != nil {
		return Transition{}, ErrBusy
	}
	if s.Selection.Center == nil || s.Selection.Department == nil {
		return Transition{}, fmt.Errorf("%w: selection is incomplete", ErrInvalidIntent)
	}

	service, ok := lo.Find(s.Offers.Services, func(v domain.Service) bool { return v.ID == e.ID })
	if !ok {
		return Transition{}, fmt.Errorf("%w: service %s", ErrUnknownChoice, e.ID)
	}

	return Transition{
		State: s,
		Effects: []Effect{OpenBookingPage{
			Epoch:      s.Epoch,
			Service:    service,
			Center:     *s.Selection.Center,
			Department: *s.Selection.Department,
			Locale:     s.Locale,
		}},
	}, nil
}

func (m *Machine) bookingOpened(s State, e BookingOpened) (Transition, error) {
	if e.Epoch != s.Epoch || (s.Step != StepServiceSelect && s.Step != StepPostBooking) {
		return Transition{}, ErrStaleResult
	}

	next := s
	next.Step = StepPostBooking
	next.AwaitingAnswer = true
	ack := conversation.AssistantText(conversation.KindPlainText, m.translator(s.Locale).T("chat.booking_opened"), conversation.AffordanceYesNo)

	return Transition{State: next, Messages: []conversation.Message{ack}}, nil
}

func (m *Machine) answerBookMore(s State, e AnswerBookMore) (Transition, error) {
	offered := s.Step == StepServiceSelect || s.Step == StepPostBooking || (s.AwaitingAnswer && s.Locale.Valid())
	if !offered {
		return Transition{}, fmt.Errorf("%w: book more in %s", ErrInvalidIntent, s.Step)
	}

	if !e.Yes {
		return m.close(s), nil
	}

	if s.Pending != nil {
		return Transition{}, ErrBusy
	}

	return m.requestCategories(s, m.translator(s.Locale).T("chat.yes")), nil
}

func (m *Machine) freeText(s State, e FreeText) (Transition, error) {
	if s.Step == StepIdle {
		return Transition{}, fmt.Errorf("%w: free text while closed", ErrInvalidIntent)
	}

	text := strings.TrimSpace(e.Text)
	if text == "" {
		return Transition{State: s}, nil
	}

	key := "chat.fallback_reply"
	if m.isGreeting(text) {
		key = "chat.greeting_reply"
	}

	next := s
	affordance := conversation.AffordanceNone
	if s.Locale.Valid() {
		affordance = conversation.AffordanceYesNo
		next.AwaitingAnswer = true
	}

	return Transition{
		State: next,
		Messages: []conversation.Message{
			conversation.UserTurn(text),
			conversation.AssistantText(conversation.KindPlainText, m.translator(s.Locale).T(key), affordance),
		},
	}, nil
}

func (m *Machine) categoriesLoaded(s State, e CategoriesLoaded) (Transition, error) {
	next, err := s.settle(e.Ticket, FetchCategoryList)
	if err != nil {
		return Transition{}, err
	}

	tr := m.translator(s.Locale)
	if e.Err != nil {
		return m.failed(next, tr.T("errors.categories")), nil
	}
	if len(e.Categories) == 0 {
		return m.failed(next, tr.T("errors.no_categories")), nil
	}

	categories := append([]domain.Category(nil), e.Categories...)
	next.Step = StepCategorySelect
	next.Selection = Selection{}
	next.Offers = Offers{Categories: categories}
	next.ShowCategories = true
	next.AwaitingAnswer = false

	prompt := conversation.Message{
		Speaker: conversation.SpeakerAssistant,
		Kind:    conversation.KindCategoryPrompt,
		Text:    tr.T("chat.category_prompt"),
		Payload: conversation.NewEntityList(domain.EntityCategory, categories),
	}

	return Transition{State: next, Messages: []conversation.Message{prompt}}, nil
}

func (m *Machine) storesLoaded(s State, e StoresLoaded) (Transition, error) {
	pending := s.Pending
	next, err := s.settle(e.Ticket, FetchCategoryStores)
	if err != nil {
		return Transition{}, err
	}

	tr := m.translator(s.Locale)
	if e.Err != nil {
		next.ShowCategories = true
		return m.failed(next, tr.T("errors.stores")), nil
	}

	stores := capped(e.Stores, m.storeLimit)
	next.Step = StepCenterSelect
	next.Selection = Selection{Category: pending.Category}
	next.Offers.Stores = stores

	intro := i18n.Format(tr, "chat.stores_intro", map[string]string{"Name": pending.Category.Name})
	list := conversation.NewEntityList(domain.EntityStore, stores)

	return Transition{
		State:    next,
		Messages: []conversation.Message{conversation.AssistantList(intro, list, conversation.AffordanceChangeCategory)},
	}, nil
}

func (m *Machine) departmentsLoaded(s State, e DepartmentsLoaded) (Transition, error) {
	pending := s.Pending
	next, err := s.settle(e.Ticket, FetchCenterDepartments)
	if err != nil {
		return Transition{}, err
	}

	tr := m.translator(s.Locale)
	if e.Err != nil {
		return m.failed(next, tr.T("errors.departments")), nil
	}

	departments := append([]domain.Department(nil), e.Departments...)
	next.Step = StepDepartmentSelect
	next.Selection.Center = pending.Center
	next.Offers.Departments = departments

	intro := i18n.Format(tr, "chat.departments_intro", map[string]string{"Name": pending.Center.Name})
	list := conversation.NewEntityList(domain.EntityDepartment, departments)

	return Transition{
		State:    next,
		Messages: []conversation.Message{conversation.AssistantList(intro, list, conversation.AffordanceNone)},
	}, nil
}

func (m *Machine) servicesLoaded(s State, e ServicesLoaded) (Transition, error) {
	pending := s.Pending
	next, err := s.settle(e.Ticket, FetchDepartment)
	if err != nil {
		return Transition{}, err
	}

	tr := m.translator(s.Locale)
	if e.Err != nil {
		return m.failed(next, tr.T("errors.services")), nil
	}

	services := capped(e.Services, m.serviceLimit)
	next.Step = StepServiceSelect
	next.Selection.Department = pending.Department
	next.Offers.Services = services

	intro := i18n.Format(tr, "chat.services_intro", map[string]string{"Name": pending.Department.Name})
	list := conversation.NewEntityList(domain.EntityService, services)

	return Transition{
		State:    next,
		Messages: []conversation.Message{conversation.AssistantList(intro, list, conversation.AffordanceYesNo)},
	}, nil
}

// requestCategories starts a category listing. Selections are kept until the listing succeeds.
func (m *Machine) requestCategories(s State, echo string) Transition {
	next, ticket := s.nextTicket()
	next.Pending = &Pending{Ticket: ticket, Fetch: FetchCategoryList}

	t := Transition{
		State:   next,
		Effects: []Effect{FetchCategories{Ticket: ticket, Locale: next.Locale}},
	}
	if echo != "" {
		t.Messages = []conversation.Message{conversation.UserTurn(echo)}
	}
	return t
}

func (m *Machine) failed(s State, text string) Transition {
	return Transition{
		State:    s,
		Messages: []conversation.Message{conversation.AssistantText(conversation.KindError, text, conversation.AffordanceNone)},
	}
}

func (m *Machine) translator(locale domain.Locale) i18n.Translator {
	if !locale.Valid() {
		locale = m.defaultLocale
	}
	return m.localizer.Translator(locale.String())
}

func (m *Machine) isGreeting(text string) bool {
	padded := " " + normalizeText(text) + " "
	for _, keyword := range m.keywords {
		if strings.Contains(padded, " "+keyword+" ") {
			return true
		}
	}
	return false
}

// settle clears the pending fetch if ticket and kind match it.
func (s State) settle(ticket Ticket, kind FetchKind) (State, error) {
	if s.Pending == nil || s.Pending.Ticket != ticket || s.Pending.Fetch != kind {
		return s, ErrStaleResult
	}
	s.Pending = nil
	return s, nil
}

func capped[T any](items []T, limit int) []T {
	return append([]T(nil), lo.Slice(items, 0, limit)...)
}

// normalizeText lowercases text and collapses every run of non-alphanumerics into one space.
func normalizeText(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return strings.Join(words, " ")
}
