// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage implements them.
package repository

import (
	"context"

	"github.com/dietlog/dietlog-api/internal/model"
)

// UserRepository persists accounts and their single active session.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserBySession(ctx context.Context, sessionID string) (*model.User, error)
	// SetSession overwrites the user's session token, invalidating the old one.
	SetSession(ctx context.Context, userID, sessionID string) error
}

// MealRepository persists meals. Every method is scoped to one owner:
// a meal that exists but belongs to another user is reported as not found.
type MealRepository interface {
	ListMeals(ctx context.Context, userID string) ([]model.Meal, error)
	// ListMealsChronological returns the user's meals ascending by date.
	ListMealsChronological(ctx context.Context, userID string) ([]model.Meal, error)
	CreateMeal(ctx context.Context, meal *model.Meal) error
	GetMeal(ctx context.Context, userID, mealID string) (*model.Meal, error)
	UpdateMeal(ctx context.Context, meal *model.Meal) error
	DeleteMeal(ctx context.Context, userID, mealID string) error
}
