package auth

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// SessionCookieName is the cookie that carries the session token.
	SessionCookieName = "sessionId"

	// SessionTTL is how long the browser keeps the cookie.
	SessionTTL = 7 * 24 * time.Hour
)

// NewSessionToken returns a fresh opaque session token (a random UUIDv4).
//
// WHY NOT A JWT?
// A user has exactly one valid session: logging in again must kill the old
// cookie immediately. A self-contained signed token would stay valid until
// it expires. An opaque random token that only means something while it sits
// in users.session_id is revoked the moment that column is overwritten.
func NewSessionToken() string {
	return uuid.NewString()
}

// SetSessionCookie writes the session cookie to the response.
//
// HttpOnly keeps the token away from page JavaScript, so an XSS bug can't
// read it. SameSite=Lax stops it riding along on cross-site POSTs. secure
// should be true whenever the API is served over HTTPS.
func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionTTL / time.Second),
		Expires:  time.Now().Add(SessionTTL),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionToken reads the token from the request cookie.
// It returns "" when the cookie is absent.
func SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
