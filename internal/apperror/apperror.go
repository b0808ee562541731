// Package apperror defines the domain error taxonomy shared by every layer.
//
// Services return these errors; the HTTP layer (handler.writeError) maps them
// to status codes. Callers match with errors.Is against the sentinels below,
// or errors.As into *AppError to read the human-readable message.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("Validation Error")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)

// Issue describes one problem found while parsing a request.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Err     error   // actual error
	Message string  // Human-readable error message
	Field   string  // Optional: field causing the error
	Issues  []Issue // Optional: every field problem found in one request
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// MealNotFound is the NotFound variant returned for meals. It deliberately
// does not say whether the meal is missing or belongs to somebody else.
func MealNotFound() *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: "Meal not found.",
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
		Issues:  []Issue{{Field: field, Message: message}},
	}
}

// ValidationIssues bundles several field problems into one error.
// The message of the first issue becomes the top-level message.
func ValidationIssues(issues []Issue) *AppError {
	if len(issues) == 0 {
		return &AppError{Err: ErrValidation, Message: "invalid request"}
	}
	return &AppError{
		Err:     ErrValidation,
		Message: issues[0].Message,
		Field:   issues[0].Field,
		Issues:  issues,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// UserAlreadyExists is returned when registering an email that is taken.
func UserAlreadyExists() *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: "E-mail already exists.",
	}
}

// Unauthorized is returned when a request carries no usable session.
// HTTP handlers map this to 401.
func Unauthorized() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "Unauthorized.",
	}
}

// InvalidCredentials never reveals which of email or password was wrong.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "Invalid credentials.",
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Err:     ErrInvalidInput,
		Message: message,
	}
}
