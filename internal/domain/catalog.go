// Package domain holds the catalog entities shared by the state machine, the catalog client and the projectors.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EntityKind names the kind of catalog entity a choice list carries.
type EntityKind string

const (
	EntityCategory   EntityKind = "category"
	EntityStore      EntityKind = "store"
	EntityDepartment EntityKind = "department"
	EntityService    EntityKind = "service"
)

// Entity is anything the user can pick from a choice list.
type Entity interface {
	EntityID() ID
	DisplayName() string
}

// ID is an opaque catalog identifier. The catalog sends ids as numbers or strings.
type ID string

// UnmarshalJSON accepts JSON strings and numbers.
func (id *ID) UnmarshalJSON(data []byte) error {
	value, err := scalarString(data)
	if err != nil {
		return fmt.Errorf("domain: decode id: %w", err)
	}
	*id = ID(value)
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Label is a display value such as a price or a duration that may arrive as a number or a string.
type Label string

// UnmarshalJSON accepts JSON strings and numbers.
func (l *Label) UnmarshalJSON(data []byte) error {
	value, err := scalarString(data)
	if err != nil {
		return fmt.Errorf("domain: decode label: %w", err)
	}
	*l = Label(value)
	return nil
}

func (l Label) String() string {
	return string(l)
}

// Category is a top-level grouping of service centers.
type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

func (c Category) EntityID() ID        { return c.ID }
func (c Category) DisplayName() string { return c.Name }

// Store is a bookable center belonging to a category.
type Store struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	Image       string  `json:"image"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

func (s Store) EntityID() ID        { return s.ID }
func (s Store) DisplayName() string { return s.Name }

// Department groups services inside a center.
type Department struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

func (d Department) EntityID() ID        { return d.ID }
func (d Department) DisplayName() string { return d.Name }

// Service is the final bookable item.
type Service struct {
	ID            ID     `json:"id"`
	Name          string `json:"name"`
	Image         string `json:"image"`
	Price         Label  `json:"price"`
	Duration      Label  `json:"duration"`
	DepartmentIDs []ID   `json:"department_ids"`
}

func (s Service) EntityID() ID        { return s.ID }
func (s Service) DisplayName() string { return s.Name }

// InDepartment reports whether the service is listed under the department.
func (s Service) InDepartment(departmentID ID) bool {
	for _, id := range s.DepartmentIDs {
		if id == departmentID {
			return true
		}
	}
	return false
}

func scalarString(data []byte) (string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", fmt.Errorf("unsupported value %s", trimmed)
	}
	return n.String(), nil
}
