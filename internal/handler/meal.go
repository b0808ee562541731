package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dietlog/dietlog-api/internal/apperror"
	"github.com/dietlog/dietlog-api/internal/auth"
	"github.com/dietlog/dietlog-api/internal/model"
	"github.com/dietlog/dietlog-api/internal/service"
)

// errNoSession is returned when a handler behind RequireSession finds no
// user in the context. That only happens if the route was wired without the
// middleware.
var errNoSession = apperror.Unauthorized()

// Meals is the slice of service.MealService the meal handler needs.
type Meals interface {
	List(ctx context.Context, userID string) ([]model.Meal, error)
	Create(ctx context.Context, userID string, in service.NewMeal) (*model.Meal, error)
	Get(ctx context.Context, userID, mealID string) (*model.Meal, error)
	Update(ctx context.Context, userID, mealID string, patch model.MealPatch) (*model.Meal, error)
	Delete(ctx context.Context, userID, mealID string) error
}

// MealHandler serves /meals. Every route requires a session; the user comes
// from the request context, never from the body or URL.
type MealHandler struct {
	meals  Meals
	logger *slog.Logger
}

// NewMealHandler creates a MealHandler.
func NewMealHandler(meals Meals, logger *slog.Logger) *MealHandler {
	return &MealHandler{meals: meals, logger: logger}
}

type mealsResponse struct {
	Meals []model.Meal `json:"meals"`
}

type mealResponse struct {
	Meal *model.Meal `json:"meal"`
}

// user returns the authenticated user or writes a 401.
func (h *MealHandler) user(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, errNoSession)
	}
	return user, ok
}

// HandleList returns the caller's meals.
//
// HTTP: GET /meals
// RESPONSE: {"meals": [...]}
func (h *MealHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	meals, err := h.meals.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, mealsResponse{Meals: meals})
}

// HandleCreate records a new meal.
//
// HTTP: POST /meals
// REQUEST BODY: {"name":"...","description":"..."|null,"date":"2024-05-01T12:30:00Z","in_diet":true}
// RESPONSE: 201, empty body
func (h *MealHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	in, err := parseCreateMeal(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	_, err = h.meals.Create(r.Context(), user.ID, service.NewMeal{
		Name:        in.Name,
		Description: in.Description,
		Date:        in.Date,
		InDiet:      in.InDiet,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// HandleGet returns one of the caller's meals.
//
// HTTP: GET /meals/{id}
// RESPONSE: {"meal": {...}}, or 400 not_found
func (h *MealHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	meal, err := h.meals.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, mealResponse{Meal: meal})
}

// HandleUpdate applies a partial update to one of the caller's meals.
//
// HTTP: PUT /meals/{id}
// REQUEST BODY: any subset of {"name","description","date","in_diet"}
// RESPONSE: {"meal": {...}} with the stored result
func (h *MealHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	patch, err := parseUpdateMeal(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	meal, err := h.meals.Update(r.Context(), user.ID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, mealResponse{Meal: meal})
}

// HandleDelete removes one of the caller's meals.
//
// HTTP: DELETE /meals/{id}
// RESPONSE: 204, or 400 not_found
func (h *MealHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	if err := h.meals.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
