package state

import "github.com/Proton-105/weva-assistant/internal/domain"

// Effect describes work the reducer wants done outside of it.
type Effect interface {
	effect()
}

// FetchCategories asks for the non-empty category list.
type FetchCategories struct {
	Ticket Ticket
	Locale domain.Locale
}

// FetchCategoryDetail asks for the stores of a category.
type FetchCategoryDetail struct {
	Ticket     Ticket
	CategoryID domain.ID
	Locale     domain.Locale
}

// FetchCenterDetail asks for the departments of a center.
type FetchCenterDetail struct {
	Ticket   Ticket
	CenterID domain.ID
	Locale   domain.Locale
}

// FetchServices asks for the services a center offers in one department.
type FetchServices struct {
	Ticket       Ticket
	CenterID     domain.ID
	DepartmentID domain.ID
	Locale       domain.Locale
}

// OpenBookingPage asks the host to navigate to the booking page of a service.
type OpenBookingPage struct {
	Epoch      uint64
	Service    domain.Service
	Center     domain.Store
	Department domain.Department
	Locale     domain.Locale
}

// Dismiss asks the host to hide the widget.
type Dismiss struct{}

func (FetchCategories) effect()     {}
func (FetchCategoryDetail) effect() {}
func (FetchCenterDetail) effect()   {}
func (FetchServices) effect()       {}
func (OpenBookingPage) effect()     {}
func (Dismiss) effect()             {}
