// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// WHY SessionID *string?
// A user has at most one active session. The column is NULL until the first
// login and is overwritten on every successful authentication, which is what
// invalidates the previous cookie. A nil pointer maps cleanly to SQL NULL.
//
// PasswordHash and SessionID carry `json:"-"` so they can never leak into a
// response body, even if a handler encodes the whole struct by accident.
type User struct {
	ID           string    `json:"id"`
	SessionID    *string   `json:"-"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
