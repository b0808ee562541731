package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dietlog/dietlog-api/internal/apperror"
	"github.com/dietlog/dietlog-api/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue accepts any key. A plain string like "user" could be
// read or shadowed by any package that happens to use the same string. Only
// this package can construct a contextKey, so only this package can set or
// read the value stored under it.
type contextKey string

const userKey contextKey = "user"

// SessionResolver maps a session token to the user holding it.
// It must return an error wrapping apperror.ErrUnauthorized when the token
// is empty or unknown.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*model.User, error)
}

// RequireSession is a middleware that enforces an authenticated session.
//
// It reads the sessionId cookie, resolves it to a user, and stores that user
// in the request context. If the cookie is missing or the token is unknown
// it responds 401 and the wrapped handler never runs.
//
// MIDDLEWARE PATTERN IN GO:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... before ...
//	        next.ServeHTTP(w, r)
//	        // ... after ...
//	    })
//	}
func RequireSession(resolver SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolver.ResolveSession(r.Context(), SessionToken(r))
			if err != nil {
				if errors.Is(err, apperror.ErrUnauthorized) {
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized.")
					return
				}
				logger.Error("resolving session", "error", err, "path", r.URL.Path)
				writeJSONError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// UserFromContext returns the user stored by RequireSession.
//
// Returns (nil, false) when the request did not pass through RequireSession.
//
//	user, ok := auth.UserFromContext(r.Context())
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// WithUser returns a copy of ctx carrying user. Handlers under test use it
// to skip the cookie round trip.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// writeJSONError writes the same {"error","message"} body the handler
// package uses. It lives here because handler imports auth, not the reverse.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `","message":"` + message + `"}`))
}
