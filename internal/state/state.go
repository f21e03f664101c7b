// Package state implements the conversation state machine as a pure reducer.
package state

import (
	"fmt"

	"github.com/Proton-105/weva-assistant/internal/domain"
)

// Step is the active funnel step of a conversation.
type Step string

const (
	// StepIdle means the widget is closed or was never opened.
	StepIdle Step = "idle"
	// StepLanguageSelect waits for the user to pick a locale.
	StepLanguageSelect Step = "language_select"
	// StepCategorySelect shows the category list.
	StepCategorySelect Step = "category_select"
	// StepCenterSelect shows the centers of the chosen category.
	StepCenterSelect Step = "center_select"
	// StepDepartmentSelect shows the departments of the chosen center.
	StepDepartmentSelect Step = "department_select"
	// StepServiceSelect shows the services of the chosen department.
	StepServiceSelect Step = "service_select"
	// StepPostBooking follows an opened booking page and offers book-more or end-chat.
	StepPostBooking Step = "post_booking"
)

// Steps returns every step in funnel order.
func Steps() []Step {
	return []Step{
		StepIdle,
		StepLanguageSelect,
		StepCategorySelect,
		StepCenterSelect,
		StepDepartmentSelect,
		StepServiceSelect,
		StepPostBooking,
	}
}

// FetchKind names the catalog call a pending fetch stands for.
type FetchKind string

const (
	FetchCategoryList      FetchKind = "categories"
	FetchCategoryStores    FetchKind = "category_detail"
	FetchCenterDepartments FetchKind = "center_detail"
	FetchDepartment        FetchKind = "services"
)

// Ticket identifies one fetch. Results carrying any other ticket are stale.
type Ticket struct {
	Epoch uint64 `json:"epoch"`
	Seq   uint64 `json:"seq"`
}

// Pending describes the fetch currently in flight and the selection it will commit on success.
type Pending struct {
	Ticket     Ticket             `json:"ticket"`
	Fetch      FetchKind          `json:"fetch"`
	Category   *domain.Category   `json:"category,omitempty"`
	Center     *domain.Store      `json:"center,omitempty"`
	Department *domain.Department `json:"department,omitempty"`
}

// Selection holds the entities chosen so far.
type Selection struct {
	Category   *domain.Category   `json:"category,omitempty"`
	Center     *domain.Store      `json:"center,omitempty"`
	Department *domain.Department `json:"department,omitempty"`
}

// Offers holds the choice sets most recently presented to the user.
type Offers struct {
	Categories  []domain.Category   `json:"categories,omitempty"`
	Stores      []domain.Store      `json:"stores,omitempty"`
	Departments []domain.Department `json:"departments,omitempty"`
	Services    []domain.Service    `json:"services,omitempty"`
}

// State is the serializable conversation state. Values are treated as immutable;
// the reducer always builds a new State instead of mutating pointed-to data.
type State struct {
	Step           Step          `json:"step"`
	Locale         domain.Locale `json:"locale,omitempty"`
	Selection      Selection     `json:"selection"`
	Offers         Offers        `json:"offers"`
	ShowCategories bool          `json:"show_categories"`
	AwaitingAnswer bool          `json:"awaiting_answer"`
	Pending        *Pending      `json:"pending,omitempty"`
	Epoch          uint64        `json:"epoch"`
	Seq            uint64        `json:"seq"`
}

// Initial returns the state of a widget that was never opened.
func Initial() State {
	return State{Step: StepIdle}
}

// IsTyping reports whether a fetch is outstanding.
func (s State) IsTyping() bool {
	return s.Pending != nil
}

func (s State) nextTicket() (State, Ticket) {
	s.Seq++
	return s, Ticket{Epoch: s.Epoch, Seq: s.Seq}
}

// CheckInvariants reports the first selection invariant s violates.
func (s State) CheckInvariants() error {
	afterCategory := s.Step == StepCenterSelect || s.Step == StepDepartmentSelect || s.Step == StepServiceSelect || s.Step == StepPostBooking
	afterCenter := s.Step == StepDepartmentSelect || s.Step == StepServiceSelect || s.Step == StepPostBooking
	afterDepartment := s.Step == StepServiceSelect || s.Step == StepPostBooking

	switch {
	case (s.Selection.Category != nil) != afterCategory:
		return fmt.Errorf("state: category selection %t in step %s", s.Selection.Category != nil, s.Step)
	case (s.Selection.Center != nil) != afterCenter:
		return fmt.Errorf("state: center selection %t in step %s", s.Selection.Center != nil, s.Step)
	case (s.Selection.Department != nil) != afterDepartment:
		return fmt.Errorf("state: department selection %t in step %s", s.Selection.Department != nil, s.Step)
	case s.Step == StepIdle && s.Locale != "":
		return fmt.Errorf("state: locale %q kept while idle", s.Locale)
	}
	return nil
}
