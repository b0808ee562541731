package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"

	"github.com/dietlog/dietlog-api/internal/apperror"
	"github.com/dietlog/dietlog-api/internal/model"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// In-memory implementations of the repository interfaces. They store copies,
// never the caller's pointer, so a test can't accidentally mutate "the
// database" by editing a returned struct. failWith makes every call fail,
// for exercising the error paths.

type fakeUserRepo struct {
	users    map[string]*model.User // by ID
	nextID   int
	failWith error

	setSessionCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.UserAlreadyExists()
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) GetUserBySession(_ context.Context, sessionID string) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.SessionID != nil && *u.SessionID == sessionID {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("session", sessionID)
}

func (f *fakeUserRepo) SetSession(_ context.Context, userID, sessionID string) error {
	f.setSessionCalls++
	if f.failWith != nil {
		return f.failWith
	}
	u, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	u.SessionID = &sessionID
	return nil
}

type fakeMealRepo struct {
	meals    map[string]*model.Meal
	nextID   int
	failWith error

	updateCalls int
	// shuffle makes ListMeals return meals in reverse order, to prove
	// nothing relies on ListMeals being sorted.
	shuffle bool
}

func newFakeMealRepo() *fakeMealRepo {
	return &fakeMealRepo{meals: make(map[string]*model.Meal)}
}

func (f *fakeMealRepo) owned(userID string) []model.Meal {
	result := make([]model.Meal, 0)
	for _, m := range f.meals {
		if m.UserID == userID {
			result = append(result, *m)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].ID < result[j].ID
		}
		return result[i].Date.Before(result[j].Date)
	})
	return result
}

func (f *fakeMealRepo) ListMeals(_ context.Context, userID string) ([]model.Meal, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	result := f.owned(userID)
	if f.shuffle {
		for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
			result[i], result[j] = result[j], result[i]
		}
	}
	return result, nil
}

func (f *fakeMealRepo) ListMealsChronological(_ context.Context, userID string) ([]model.Meal, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.owned(userID), nil
}

func (f *fakeMealRepo) CreateMeal(_ context.Context, meal *model.Meal) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.nextID++
	meal.ID = fmt.Sprintf("meal-%03d", f.nextID)
	stored := *meal
	f.meals[meal.ID] = &stored
	return nil
}

func (f *fakeMealRepo) GetMeal(_ context.Context, userID, mealID string) (*model.Meal, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	m, ok := f.meals[mealID]
	if !ok || m.UserID != userID {
		return nil, apperror.MealNotFound()
	}
	result := *m
	return &result, nil
}

func (f *fakeMealRepo) UpdateMeal(_ context.Context, meal *model.Meal) error {
	f.updateCalls++
	if f.failWith != nil {
		return f.failWith
	}
	m, ok := f.meals[meal.ID]
	if !ok || m.UserID != meal.UserID {
		return apperror.MealNotFound()
	}
	stored := *meal
	f.meals[meal.ID] = &stored
	return nil
}

func (f *fakeMealRepo) DeleteMeal(_ context.Context, userID, mealID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	m, ok := f.meals[mealID]
	if !ok || m.UserID != userID {
		return apperror.MealNotFound()
	}
	delete(f.meals, mealID)
	return nil
}

var errDatabaseDown = errors.New("database is down")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want errors.Is(err, %v)", err, target)
	}
}
