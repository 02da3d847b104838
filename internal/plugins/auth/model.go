// Package auth manages console sessions. The console never checks
// passwords itself: it forwards credentials to the REST backend, keeps the
// bearer token it gets back sealed in Redis, and hands the browser only a
// random session id cookie.
//
// This is a CORE plugin -- every other plugin's routes sit behind
// RequireAuth.
package auth

import (
	"time"

	"github.com/tourbench/console/internal/backend"
)

// Session is an authenticated console session. The backend token is held
// in memory only after ValidateSession unseals it; Redis stores the sealed
// form.
type Session struct {
	// ID is the random session id carried by the cookie.
	ID string `json:"-"`

	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is when the backend token stops being accepted. The
	// session never outlives it.
	ExpiresAt time.Time `json:"expires_at"`

	// SealedToken is the backend bearer token encrypted with the session key.
	SealedToken string `json:"sealed_token"`

	// Token is the unsealed backend bearer token.
	Token string `json:"-"`
}

// IsAdmin reports whether the session may use the admin console.
func (s *Session) IsAdmin() bool {
	return s.Role == backend.RoleAdmin
}

// --- Request DTOs (bound from HTTP requests) ---

// LoginRequest holds the data submitted by the login form.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// SetupRequest holds the data submitted by the account setup form.
type SetupRequest struct {
	Email     string `json:"email" form:"email"`
	SetupCode string `json:"setup_code" form:"setup_code"`
	Password  string `json:"password" form:"password"`
	Confirm   string `json:"confirm_password" form:"confirm_password"`
}

// --- Service Input DTOs ---

// LoginInput is the input for authenticating against the backend.
type LoginInput struct {
	Email    string
	Password string
}

// SetupInput is the validated input for completing an account setup.
type SetupInput struct {
	Email     string
	SetupCode string
	Password  string
}
