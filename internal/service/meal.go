package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dietlog/dietlog-api/internal/apperror"
	"github.com/dietlog/dietlog-api/internal/model"
	"github.com/dietlog/dietlog-api/internal/repository"
)

// MealService handles meal CRUD for the authenticated user.
//
// OWNERSHIP:
// Every method takes the caller's userID and passes it down to the
// repository, which scopes its queries by it. Read-one, Update and Delete
// fetch the meal first, so a meal that is missing and a meal that belongs to
// someone else both come back as the same MealNotFound error.
type MealService struct {
	repo   repository.MealRepository
	logger *slog.Logger
}

// NewMealService creates a MealService.
func NewMealService(repo repository.MealRepository, logger *slog.Logger) *MealService {
	return &MealService{
		repo:   repo,
		logger: logger,
	}
}

// NewMeal is the input for Create.
type NewMeal struct {
	Name        string
	Description *string
	Date        time.Time
	InDiet      bool
}

// List returns all of the user's meals.
func (s *MealService) List(ctx context.Context, userID string) ([]model.Meal, error) {
	meals, err := s.repo.ListMeals(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list meals",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing meals: %w", err)
	}
	return meals, nil
}

// Create validates and stores a new meal owned by userID.
func (s *MealService) Create(ctx context.Context, userID string, in NewMeal) (*model.Meal, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if in.Date.IsZero() {
		return nil, apperror.ValidationFailed("date", "date is required")
	}

	meal := &model.Meal{
		Name:        name,
		Description: normalizeDescription(in.Description),
		Date:        in.Date,
		InDiet:      in.InDiet,
		UserID:      userID,
	}

	if err := s.repo.CreateMeal(ctx, meal); err != nil {
		s.logger.Error("failed to create meal",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating meal: %w", err)
	}

	s.logger.Info("meal created",
		slog.String("id", meal.ID),
		slog.String("user_id", userID),
	)
	return meal, nil
}

// Get returns one of the user's meals, or MealNotFound.
func (s *MealService) Get(ctx context.Context, userID, mealID string) (*model.Meal, error) {
	mealID = strings.TrimSpace(mealID)
	if mealID == "" {
		return nil, apperror.MealNotFound()
	}

	// NotFound is an expected outcome and is returned as-is, unlogged.
	return s.repo.GetMeal(ctx, userID, mealID)
}

// Update applies the fields present in patch to one of the user's meals and
// returns the result.
//
// STRATEGY: fetch, apply, save.
// The fetch is the ownership check. An empty patch stops after it and
// returns the stored meal untouched, so updating with {} is a pure read.
func (s *MealService) Update(ctx context.Context, userID, mealID string, patch model.MealPatch) (*model.Meal, error) {
	meal, err := s.Get(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}

	if patch.Empty() {
		return meal, nil
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "name cannot be empty")
		}
		patch.Name = &name
	}
	if patch.Date != nil && patch.Date.IsZero() {
		return nil, apperror.ValidationFailed("date", "date cannot be empty")
	}

	patch.Apply(meal)
	if patch.Description != nil {
		meal.Description = normalizeDescription(patch.Description)
	}

	if err := s.repo.UpdateMeal(ctx, meal); err != nil {
		// The meal can vanish between the fetch and the write; that is still
		// a plain NotFound for the caller.
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update meal",
			slog.String("id", meal.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating meal: %w", err)
	}

	s.logger.Info("meal updated",
		slog.String("id", meal.ID),
		slog.String("user_id", userID),
	)
	return meal, nil
}

// Delete removes one of the user's meals.
func (s *MealService) Delete(ctx context.Context, userID, mealID string) error {
	meal, err := s.Get(ctx, userID, mealID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteMeal(ctx, userID, meal.ID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete meal",
			slog.String("id", meal.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting meal: %w", err)
	}

	s.logger.Info("meal deleted",
		slog.String("id", meal.ID),
		slog.String("user_id", userID),
	)
	return nil
}

// normalizeDescription maps a blank description to nil, so the column is
// NULL rather than "".
func normalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*d)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
