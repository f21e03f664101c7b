// Package catalog reads the Weva catalog: categories, centers, departments and services.
package catalog

import (
	"context"

	"github.com/Proton-105/weva-assistant/internal/domain"
)

// Catalog is the read-only catalog boundary used by the widget controller.
type Catalog interface {
	// ListCategories returns the categories that have at least one store, in server order.
	ListCategories(ctx context.Context, locale domain.Locale) ([]domain.Category, error)
	FetchCategoryDetail(ctx context.Context, categoryID domain.ID, locale domain.Locale) (CategoryDetail, error)
	FetchCenterDetail(ctx context.Context, centerID domain.ID, locale domain.Locale) (CenterDetail, error)
	// FetchServicesForDepartment returns the center's services listed under the department, in server order.
	FetchServicesForDepartment(ctx context.Context, centerID, departmentID domain.ID, locale domain.Locale) ([]domain.Service, error)
}

// CategoryDetail is the normalized /home/{id} payload.
type CategoryDetail struct {
	Stores []domain.Store
}

// CenterDetail is the normalized /center/{id} payload.
type CenterDetail struct {
	Departments []domain.Department
	Services    []domain.Service
}

// Observer receives one sample per remote call.
type Observer interface {
	ObserveCatalogRequest(endpoint, outcome string, seconds float64)
}

type noopObserver struct{}

func (noopObserver) ObserveCatalogRequest(string, string, float64) {}
