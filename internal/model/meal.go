package model

import "time"

// Meal is one recorded meal, always owned by exactly one user.
//
// JSON names follow the persisted column names (in_diet, user_id) because
// that is what API clients already consume.
type Meal struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"` // null when not provided
	Date        time.Time `json:"date"`
	InDiet      bool      `json:"in_diet"`
	UserID      string    `json:"user_id"`
}

// MealPatch carries a partial update. A nil field means "leave unchanged".
type MealPatch struct {
	Name        *string
	Description *string
	Date        *time.Time
	InDiet      *bool
}

// Empty reports whether the patch changes nothing.
func (p MealPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Date == nil && p.InDiet == nil
}

// Apply copies every provided field onto m.
func (p MealPatch) Apply(m *Meal) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Description != nil {
		m.Description = p.Description
	}
	if p.Date != nil {
		m.Date = *p.Date
	}
	if p.InDiet != nil {
		m.InDiet = *p.InDiet
	}
}
