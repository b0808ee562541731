package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/dietlog/dietlog-api/internal/apperror"
	"github.com/dietlog/dietlog-api/internal/model"
	"github.com/dietlog/dietlog-api/internal/repository"
)

var _ repository.MealRepository = (*DB)(nil)

const mealColumns = `id, name, description, date, in_diet, user_id`

// OWNERSHIP IN SQL:
// Every query below filters on user_id as well as id. A meal that exists but
// belongs to someone else simply doesn't match, so it is indistinguishable
// from a meal that doesn't exist. Callers get apperror.MealNotFound either way
// and learn nothing about other users' data.

// ListMeals returns all meals owned by userID.
func (db *DB) ListMeals(ctx context.Context, userID string) ([]model.Meal, error) {
	return db.listMeals(ctx, userID)
}

// ListMealsChronological returns the user's meals ascending by date.
//
// The streak calculation depends on this order. Dates are always stored in
// UTC, so the textual DATETIME values sort in time order; id breaks ties so
// the result is deterministic.
func (db *DB) ListMealsChronological(ctx context.Context, userID string) ([]model.Meal, error) {
	return db.listMeals(ctx, userID)
}

func (db *DB) listMeals(ctx context.Context, userID string) ([]model.Meal, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+mealColumns+`
		 FROM meals
		 WHERE user_id = ?
		 ORDER BY date ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing meals: %w", err)
	}
	defer rows.Close()

	meals := make([]model.Meal, 0)
	for rows.Next() {
		var m model.Meal
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Date, &m.InDiet, &m.UserID); err != nil {
			return nil, fmt.Errorf("sqlite: scanning meal row: %w", err)
		}
		m.Date = m.Date.UTC()
		meals = append(meals, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating meals: %w", err)
	}

	return meals, nil
}

// CreateMeal inserts a new meal, generating its ID.
// meal.UserID must reference an existing user; the foreign key enforces it.
func (db *DB) CreateMeal(ctx context.Context, meal *model.Meal) error {
	meal.ID = xid.New().String()
	meal.Date = meal.Date.UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO meals (id, name, description, date, in_diet, user_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		meal.ID,
		meal.Name,
		meal.Description,
		meal.Date,
		meal.InDiet,
		meal.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating meal: %w", err)
	}

	return nil
}

// GetMeal retrieves one meal owned by userID.
func (db *DB) GetMeal(ctx context.Context, userID, mealID string) (*model.Meal, error) {
	var m model.Meal

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+mealColumns+`
		 FROM meals
		 WHERE id = ? AND user_id = ?`,
		mealID, userID,
	).Scan(&m.ID, &m.Name, &m.Description, &m.Date, &m.InDiet, &m.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.MealNotFound()
		}
		return nil, fmt.Errorf("sqlite: getting meal %s: %w", mealID, err)
	}

	m.Date = m.Date.UTC()
	return &m, nil
}

// UpdateMeal writes every mutable column of meal. The caller applies the
// partial update to a freshly read copy first, so unchanged fields keep
// their stored values.
func (db *DB) UpdateMeal(ctx context.Context, meal *model.Meal) error {
	meal.Date = meal.Date.UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE meals
		 SET name = ?, description = ?, date = ?, in_diet = ?
		 WHERE id = ? AND user_id = ?`,
		meal.Name,
		meal.Description,
		meal.Date,
		meal.InDiet,
		meal.ID,
		meal.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating meal %s: %w", meal.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.MealNotFound()
	}

	return nil
}

// DeleteMeal removes one meal owned by userID.
func (db *DB) DeleteMeal(ctx context.Context, userID, mealID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM meals WHERE id = ? AND user_id = ?`,
		mealID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting meal %s: %w", mealID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.MealNotFound()
	}

	return nil
}
