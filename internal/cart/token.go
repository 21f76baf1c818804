package cart

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// NewToken mints a fresh 128-bit cart identity from crypto/rand-backed UUIDs.
func NewToken() uuid.UUID {
	return uuid.New()
}

// TokenManager reads and issues the client-held cart identity cookie. The
// cookie is the only inbound source of identity; query parameters and
// headers are never consulted.
type TokenManager struct {
	cookieName string
	maxAge     time.Duration
	secure     bool
}

// NewTokenManager builds a manager for the named cookie.
func NewTokenManager(cookieName string, maxAge time.Duration, secure bool) *TokenManager {
	return &TokenManager{
		cookieName: cookieName,
		maxAge:     maxAge,
		secure:     secure,
	}
}

// Read extracts the identity token from the request cookie set. Missing or
// malformed cookies report absence rather than an error.
func (m *TokenManager) Read(r *http.Request) (uuid.UUID, bool) {
	if r == nil {
		return uuid.Nil, false
	}
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return uuid.Nil, false
	}
	token, err := uuid.Parse(cookie.Value)
	if err != nil || token == uuid.Nil {
		return uuid.Nil, false
	}
	return token, true
}

// Issue writes the identity cookie. Callers invoke it only after a cart was
// actually created and committed, never speculatively.
func (m *TokenManager) Issue(w http.ResponseWriter, token uuid.UUID) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token.String(),
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
