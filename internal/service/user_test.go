package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/dietlog/dietlog-api/internal/apperror"
	"github.com/dietlog/dietlog-api/internal/auth"
)

func newTestUserService(t *testing.T) (*UserService, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	svc := NewUserService(repo, auth.NewPasswordService(bcrypt.MinCost), testLogger())
	return svc, repo
}

// =========================================================================
// REGISTER TESTS
// =========================================================================

func TestRegister_Success(t *testing.T) {
	svc, repo := newTestUserService(t)

	sess, err := svc.Register(context.Background(), "  Alice ", "a@x.com", "secret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if sess.Token == "" {
		t.Error("Register() returned an empty session token")
	}
	if sess.User.Name != "Alice" {
		t.Errorf("Name = %q, want trimmed %q", sess.User.Name, "Alice")
	}
	if sess.User.PasswordHash == "secret" || sess.User.PasswordHash == "" {
		t.Error("password was not hashed")
	}

	// The token issued is the one stored: it resolves immediately.
	stored, err := repo.GetUserBySession(context.Background(), sess.Token)
	if err != nil {
		t.Fatalf("stored session not found: %v", err)
	}
	if stored.ID != sess.User.ID {
		t.Errorf("session resolves to %q, want %q", stored.ID, sess.User.ID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "First", "a@x.com", "pw1"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(ctx, "Second", "a@x.com", "pw2")
	assertErrorIs(t, err, apperror.ErrConflict)

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Message != "E-mail already exists." {
		t.Errorf("error message = %v, want %q", err, "E-mail already exists.")
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name      string
		userName  string
		email     string
		password  string
		wantField string
	}{
		{"empty name", "", "a@x.com", "pw", "name"},
		{"whitespace name", "   ", "a@x.com", "pw", "name"},
		{"empty email", "A", "", "pw", "email"},
		{"empty password", "A", "a@x.com", "", "password"},
		{"password too long", "A", "a@x.com", strings.Repeat("p", 73), "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestUserService(t)

			_, err := svc.Register(context.Background(), tt.userName, tt.email, tt.password)
			assertErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
			}
			if len(repo.users) != 0 {
				t.Error("a user was stored despite the validation error")
			}
		})
	}
}

func TestRegister_RepoFailure(t *testing.T) {
	svc, repo := newTestUserService(t)
	repo.failWith = errDatabaseDown

	_, err := svc.Register(context.Background(), "A", "a@x.com", "pw")
	assertErrorIs(t, err, errDatabaseDown)
}

// =========================================================================
// AUTHENTICATE TESTS
// =========================================================================

func TestAuthenticate_RotatesSession(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "A", "a@x.com", "right")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	login, err := svc.Authenticate(ctx, "a@x.com", "right")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if login.Token == reg.Token {
		t.Fatal("Authenticate() reused the old token")
	}

	// Only the newest token resolves.
	if _, err := svc.ResolveSession(ctx, reg.Token); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("old token: error = %v, want ErrUnauthorized", err)
	}
	u, err := svc.ResolveSession(ctx, login.Token)
	if err != nil {
		t.Fatalf("new token: ResolveSession() error = %v", err)
	}
	if u.ID != reg.User.ID {
		t.Errorf("resolved user = %q, want %q", u.ID, reg.User.ID)
	}
}

func TestAuthenticate_InvalidCredentials(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "a@x.com", "wrong"},
		{"unknown email", "nobody@x.com", "right"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestUserService(t)
			ctx := context.Background()
			if _, err := svc.Register(ctx, "A", "a@x.com", "right"); err != nil {
				t.Fatalf("Register() error = %v", err)
			}

			sess, err := svc.Authenticate(ctx, tt.email, tt.password)
			assertErrorIs(t, err, apperror.ErrInvalidCredentials)
			if sess != nil {
				t.Error("Authenticate() returned a session on failure")
			}
			if repo.setSessionCalls != 0 {
				t.Error("session was rotated despite failed login")
			}
		})
	}
}

// Both failure modes must be indistinguishable to the caller.
func TestAuthenticate_SameMessageForBothFailures(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "A", "a@x.com", "right"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, errWrongPw := svc.Authenticate(ctx, "a@x.com", "wrong")
	_, errNoUser := svc.Authenticate(ctx, "ghost@x.com", "right")

	if errWrongPw.Error() != errNoUser.Error() {
		t.Errorf("messages differ: %q vs %q", errWrongPw, errNoUser)
	}
}

// =========================================================================
// RESOLVE SESSION TESTS
// =========================================================================

func TestResolveSession_Unauthorized(t *testing.T) {
	svc, _ := newTestUserService(t)

	for _, token := range []string{"", "no-such-token"} {
		_, err := svc.ResolveSession(context.Background(), token)
		assertErrorIs(t, err, apperror.ErrUnauthorized)
	}
}

func TestResolveSession_StoreFailureIsNotUnauthorized(t *testing.T) {
	svc, repo := newTestUserService(t)
	repo.failWith = errDatabaseDown

	_, err := svc.ResolveSession(context.Background(), "some-token")
	if errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatal("a storage failure must not look like a bad session")
	}
	assertErrorIs(t, err, errDatabaseDown)
}
