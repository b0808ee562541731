// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, not *sqlite.DB. Tests inject in-memory
// fakes (see *_test.go) and production injects SQLite, without this package
// importing either.
//
// Services return apperror values and know nothing about HTTP. The handler
// package turns those errors into status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dietlog/dietlog-api/internal/apperror"
	"github.com/dietlog/dietlog-api/internal/auth"
	"github.com/dietlog/dietlog-api/internal/model"
	"github.com/dietlog/dietlog-api/internal/repository"
)

// UserService handles registration, login and session lookup.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewUserService creates a UserService with its dependencies.
func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Session is what a successful Register or Authenticate hands back: the
// account plus the token the handler puts in the cookie.
type Session struct {
	User  *model.User
	Token string
}

// Register creates an account and opens its first session.
//
// The email lookup catches the common duplicate case with a friendly error.
// Two concurrent registrations for the same address can both pass it; the
// UNIQUE index on users.email then rejects the second insert, and the
// repository reports that as the same UserAlreadyExists conflict.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.UserAlreadyExists()
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("checking existing email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	token := auth.NewSessionToken()
	user := &model.User{
		SessionID:    &token,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return &Session{User: user, Token: token}, nil
}

// Authenticate checks credentials and rotates the user's session token.
//
// Unknown email and wrong password both return the same InvalidCredentials
// error, so the response never tells a caller which addresses are registered.
// Writing the new token replaces the old one, which logs out any other
// browser still holding it.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected", slog.String("user_id", user.ID))
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("verifying password: %w", err)
	}

	token := auth.NewSessionToken()
	if err := s.users.SetSession(ctx, user.ID, token); err != nil {
		s.logger.Error("failed to rotate session",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("rotating session: %w", err)
	}
	user.SessionID = &token

	s.logger.Info("user authenticated", slog.String("user_id", user.ID))
	return &Session{User: user, Token: token}, nil
}

// ResolveSession returns the user currently holding token.
// An empty or unknown token is Unauthorized. It has no side effects.
func (s *UserService) ResolveSession(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperror.Unauthorized()
	}

	user, err := s.users.GetUserBySession(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized()
		}
		return nil, fmt.Errorf("resolving session: %w", err)
	}
	return user, nil
}
