package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dietlog/dietlog-api/internal/auth"
	"github.com/dietlog/dietlog-api/internal/model"
	"github.com/dietlog/dietlog-api/internal/service"
)

// Accounts is the slice of service.UserService the user handler needs.
// Tests substitute a fake.
type Accounts interface {
	Register(ctx context.Context, name, email, password string) (*service.Session, error)
	Authenticate(ctx context.Context, email, password string) (*service.Session, error)
}

// MetricsSource computes a user's metrics.
type MetricsSource interface {
	ForUser(ctx context.Context, userID string) (*model.Metrics, error)
}

// UserHandler serves /users: registration, login and metrics.
type UserHandler struct {
	accounts     Accounts
	metrics      MetricsSource
	cookieSecure bool
	logger       *slog.Logger
}

// NewUserHandler creates a UserHandler. cookieSecure sets the Secure flag on
// the session cookie.
func NewUserHandler(accounts Accounts, metrics MetricsSource, cookieSecure bool, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		accounts:     accounts,
		metrics:      metrics,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// HandleRegister creates an account and logs it in.
//
// HTTP: POST /users/register
// REQUEST BODY: {"name": "...", "email": "...", "password": "..."}
// RESPONSE: 201, empty body, Set-Cookie: sessionId=...
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	in, err := parseRegister(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	sess, err := h.accounts.Register(r.Context(), in.Name, in.Email, in.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	auth.SetSessionCookie(w, sess.Token, h.cookieSecure)
	w.WriteHeader(http.StatusCreated)
}

// HandleAuthenticate verifies credentials and issues a fresh session cookie.
//
// HTTP: POST /users/authenticate
// REQUEST BODY: {"email": "...", "password": "..."}
// RESPONSE: 200, empty body, Set-Cookie: sessionId=...
//
// On bad credentials no cookie is written at all, so a failed attempt never
// disturbs the session a browser already has.
func (h *UserHandler) HandleAuthenticate(w http.ResponseWriter, r *http.Request) {
	in, err := parseAuthenticate(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	sess, err := h.accounts.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	auth.SetSessionCookie(w, sess.Token, h.cookieSecure)
	w.WriteHeader(http.StatusOK)
}

// HandleMetrics returns the caller's meal statistics.
//
// HTTP: GET /users/metrics (session required)
// RESPONSE: {"totalMeals":4,"mealsInDiet":3,"mealsNotInDiet":1,"bestSequenceOnDietInDays":1}
func (h *UserHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, errNoSession)
		return
	}

	m, err := h.metrics.ForUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}
