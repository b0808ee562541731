package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dietlog/dietlog-api/internal/apperror"
	"github.com/dietlog/dietlog-api/internal/model"
)

// fakeResolver resolves exactly one token, or returns err for everything.
type fakeResolver struct {
	token string
	user  *model.User
	err   error
}

func (f *fakeResolver) ResolveSession(_ context.Context, token string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if token == "" || token != f.token {
		return nil, apperror.Unauthorized()
	}
	return f.user, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// protected records the user it saw so tests can assert on it.
func protected(seen **model.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := UserFromContext(r.Context())
		*seen = u
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestRequireSession_ValidCookie(t *testing.T) {
	alice := &model.User{ID: "u1", Name: "Alice"}
	var seen *model.User
	h := RequireSession(&fakeResolver{token: "tok", user: alice}, discardLogger())(protected(&seen))

	req := httptest.NewRequest(http.MethodGet, "/meals", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.ID)
}

func TestRequireSession_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"empty cookie", &http.Cookie{Name: SessionCookieName, Value: ""}},
		{"unknown token", &http.Cookie{Name: SessionCookieName, Value: "stale"}},
		{"wrong cookie name", &http.Cookie{Name: "token", Value: "tok"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *model.User
			h := RequireSession(&fakeResolver{token: "tok", user: &model.User{ID: "u1"}}, discardLogger())(protected(&seen))

			req := httptest.NewRequest(http.MethodGet, "/meals", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"unauthorized","message":"Unauthorized."}`, rec.Body.String())
			assert.Nil(t, seen, "protected handler must not run")
		})
	}
}

func TestRequireSession_StoreFailureIs500(t *testing.T) {
	var seen *model.User
	h := RequireSession(&fakeResolver{err: errors.New("disk on fire")}, discardLogger())(protected(&seen))

	req := httptest.NewRequest(http.MethodGet, "/meals", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Nil(t, seen)
}

func TestUserFromContext_Empty(t *testing.T) {
	u, ok := UserFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, u)
}

// =========================================================================
// SESSION COOKIE TESTS
// =========================================================================

func TestSetSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "abc", true)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]

	assert.Equal(t, SessionCookieName, c.Name)
	assert.Equal(t, "abc", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 7*24*60*60, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestNewSessionToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := NewSessionToken()
		require.NotEmpty(t, tok)
		require.False(t, seen[tok], "duplicate token %q", tok)
		seen[tok] = true
	}
}

func TestSessionToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", SessionToken(req))

	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "xyz"})
	assert.Equal(t, "xyz", SessionToken(req))
}
