// Package auth implements the shared-secret login endpoints and the session
// guard gating every proxied route. The session is a static cookie token, not
// a per-user credential: whoever holds the cookie value is the user.
package auth

import "strings"

const (
	// CookieName is the session cookie name.
	CookieName = "sigboard-auth"
	// CookieValue is the static authenticated-state token.
	CookieValue = "authenticated"
)

// sessionToken is the exact name=value pair the guard looks for.
const sessionToken = CookieName + "=" + CookieValue

// Guard decides authentication state from a raw Cookie header. Pure,
// synchronous, no I/O.
type Guard struct{}

// NewGuard creates a session guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Authenticated reports whether the raw Cookie header carries the session
// token. Only the exact name=value pair counts; the empty header is always
// unauthenticated.
func (g *Guard) Authenticated(cookieHeader string) bool {
	return strings.Contains(cookieHeader, sessionToken)
}
