package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dietlog/dietlog-api/internal/model"
	"github.com/dietlog/dietlog-api/internal/repository"
	"github.com/dietlog/dietlog-api/internal/streak"
)

// MetricsService summarises a user's meals.
type MetricsService struct {
	repo   repository.MealRepository
	calc   *streak.Calculator
	logger *slog.Logger
}

// NewMetricsService creates a MetricsService that computes streaks with calc.
func NewMetricsService(repo repository.MealRepository, calc *streak.Calculator, logger *slog.Logger) *MetricsService {
	return &MetricsService{
		repo:   repo,
		calc:   calc,
		logger: logger,
	}
}

// ForUser returns the counts and best in-diet streak for userID.
//
// The calculator requires chronological input, so the meals come from
// ListMealsChronological rather than ListMeals. A user with no meals gets
// all zeros and the calculator is never called.
func (s *MetricsService) ForUser(ctx context.Context, userID string) (*model.Metrics, error) {
	meals, err := s.repo.ListMealsChronological(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load meals for metrics",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("loading meals: %w", err)
	}

	m := &model.Metrics{TotalMeals: len(meals)}
	if len(meals) == 0 {
		return m, nil
	}

	entries := make([]streak.Entry, len(meals))
	for i, meal := range meals {
		if meal.InDiet {
			m.MealsInDiet++
		}
		entries[i] = streak.Entry{Date: meal.Date, InDiet: meal.InDiet}
	}
	m.MealsNotInDiet = m.TotalMeals - m.MealsInDiet

	best, err := s.calc.Best(entries)
	if err != nil {
		// Only reachable if the repository broke its ordering contract.
		s.logger.Error("streak calculation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("computing streak: %w", err)
	}
	m.BestSequenceOnDietInDays = best

	return m, nil
}
