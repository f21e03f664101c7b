package catalog

import (
	"github.com/samber/lo"

	"github.com/Proton-105/weva-assistant/internal/domain"
)

type categoryDTO struct {
	ID   domain.ID `json:"id"`
	Name string    `json:"name"`
}

type reviewDTO struct {
	Rating *float64 `json:"rating"`
	// The API has also sent the key as ratinng; both spellings are accepted.
	LegacyRating *float64 `json:"ratinng"`
	Count        *int     `json:"count"`
}

type storeDTO struct {
	ID     domain.ID  `json:"id"`
	Name   string     `json:"name"`
	Image  string     `json:"image"`
	Review *reviewDTO `json:"review"`
}

type categoryDetailDTO struct {
	Stores []storeDTO `json:"stores"`
}

type departmentDTO struct {
	ID    domain.ID `json:"id"`
	Name  string    `json:"name"`
	Image string    `json:"image"`
}

type serviceDTO struct {
	ID            domain.ID    `json:"id"`
	Name          string       `json:"name"`
	Image         string       `json:"image"`
	Price         domain.Label `json:"price"`
	Duration      domain.Label `json:"duration"`
	DepartmentIDs []domain.ID  `json:"department_ids"`
}

type centerDetailDTO struct {
	Departments []departmentDTO `json:"departments"`
	Services    []serviceDTO    `json:"services"`
}

func (d categoryDTO) toDomain() domain.Category {
	return domain.Category{ID: d.ID, Name: d.Name}
}

func (d storeDTO) toDomain() domain.Store {
	store := domain.Store{ID: d.ID, Name: d.Name, Image: d.Image}
	if d.Review != nil {
		store.Rating = lo.FromPtrOr(d.Review.Rating, lo.FromPtr(d.Review.LegacyRating))
		store.ReviewCount = lo.FromPtr(d.Review.Count)
	}
	return store
}

func (d departmentDTO) toDomain() domain.Department {
	return domain.Department{ID: d.ID, Name: d.Name, Image: d.Image}
}

func (d serviceDTO) toDomain() domain.Service {
	return domain.Service{
		ID:            d.ID,
		Name:          d.Name,
		Image:         d.Image,
		Price:         d.Price,
		Duration:      d.Duration,
		DepartmentIDs: append([]domain.ID(nil), d.DepartmentIDs...),
	}
}

func (d categoryDetailDTO) toDomain() CategoryDetail {
	return CategoryDetail{Stores: lo.Map(d.Stores, func(s storeDTO, _ int) domain.Store { return s.toDomain() })}
}

func (d centerDetailDTO) toDomain() CenterDetail {
	return CenterDetail{
		Departments: lo.Map(d.Departments, func(dep departmentDTO, _ int) domain.Department { return dep.toDomain() }),
		Services:    lo.Map(d.Services, func(s serviceDTO, _ int) domain.Service { return s.toDomain() }),
	}
}
