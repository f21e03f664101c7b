package state

import "github.com/Proton-105/weva-assistant/internal/domain"

// Event is anything the reducer reacts to: a user intent or a fetch result.
type Event interface {
	Name() string
}

// OpenWidget opens the widget and greets the user.
type OpenWidget struct{}

// CloseWidget closes the widget and discards the conversation.
type CloseWidget struct{}

// SelectLocale picks the conversation language.
type SelectLocale struct {
	Locale domain.Locale
}

// SelectCategory picks one of the offered categories.
type SelectCategory struct {
	ID domain.ID
}

// SelectCenter picks one of the offered centers.
type SelectCenter struct {
	ID domain.ID
}

// SelectDepartment picks one of the offered departments.
type SelectDepartment struct {
	ID domain.ID
}

// SelectService picks one of the offered services and opens its booking page.
type SelectService struct {
	ID domain.ID
}

// AnswerBookMore answers the "book another service?" question.
type AnswerBookMore struct {
	Yes bool
}

// FreeText is a line typed by the user.
type FreeText struct {
	Text string
}

// ChangeCategory returns from the center list to the category list.
type ChangeCategory struct{}

// CategoriesLoaded carries the result of a category listing.
type CategoriesLoaded struct {
	Ticket     Ticket
	Categories []domain.Category
	Err        error
}

// StoresLoaded carries the result of a category detail fetch.
type StoresLoaded struct {
	Ticket Ticket
	Stores []domain.Store
	Err    error
}

// DepartmentsLoaded carries the result of a center detail fetch.
type DepartmentsLoaded struct {
	Ticket      Ticket
	Departments []domain.Department
	Err         error
}

// ServicesLoaded carries the services of the selected department.
type ServicesLoaded struct {
	Ticket   Ticket
	Services []domain.Service
	Err      error
}

// BookingOpened acknowledges that the booking page of a service was opened.
type BookingOpened struct {
	Epoch     uint64
	ServiceID domain.ID
}

func (OpenWidget) Name() string        { return "open_widget" }
func (CloseWidget) Name() string       { return "close_widget" }
func (SelectLocale) Name() string      { return "select_locale" }
func (SelectCategory) Name() string    { return "select_category" }
func (SelectCenter) Name() string      { return "select_center" }
func (SelectDepartment) Name() string  { return "select_department" }
func (SelectService) Name() string     { return "select_service" }
func (AnswerBookMore) Name() string    { return "answer_book_more" }
func (FreeText) Name() string          { return "free_text" }
func (ChangeCategory) Name() string    { return "change_category" }
func (CategoriesLoaded) Name() string  { return "categories_loaded" }
func (StoresLoaded) Name() string      { return "stores_loaded" }
func (DepartmentsLoaded) Name() string { return "departments_loaded" }
func (ServicesLoaded) Name() string    { return "services_loaded" }
func (BookingOpened) Name() string     { return "booking_opened" }
