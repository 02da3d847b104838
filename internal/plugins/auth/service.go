package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tourbench/console/internal/apperror"
	"github.com/tourbench/console/internal/backend"
)

// codePasswordNotSet is the backend's error code for an account that was
// created by an administrator but never completed setup.
const codePasswordNotSet = "PASSWORD_NOT_SET"

// ErrPasswordNotSet marks a login refused because the account still needs
// its setup code. The login page links to /admin-setup when it sees it.
var ErrPasswordNotSet = errors.New("account setup not completed")

// Authenticator is the part of the backend client that issues tokens. It
// is satisfied by *backend.Client.
type Authenticator interface {
	Login(ctx context.Context, creds backend.Credentials) (*backend.AuthResponse, error)
	SetupAccount(ctx context.Context, req backend.SetupAccountRequest) (*backend.AuthResponse, error)
}

// AuthService defines the business logic contract for console sessions.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*Session, error)
	SetupAccount(ctx context.Context, input SetupInput) (*Session, error)
	ValidateSession(ctx context.Context, id string) (*Session, error)
	DestroySession(ctx context.Context, id string) error
}

// authService implements AuthService on the backend and a Redis session
// repository.
type authService struct {
	backend    Authenticator
	repo       SessionRepository
	sealer     *Sealer
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(b Authenticator, repo SessionRepository, sealer *Sealer, sessionTTL time.Duration) AuthService {
	return &authService{
		backend:    b,
		repo:       repo,
		sealer:     sealer,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Login forwards the credentials to the backend and opens a console
// session for the returned token. Only administrators may sign in.
func (s *authService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	resp, err := s.backend.Login(ctx, backend.Credentials{
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: input.Password,
	})
	if err != nil {
		return nil, loginError(err, "invalid email or password")
	}

	sess, err := s.createSession(ctx, resp)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in",
		slog.String("user_id", sess.UserID),
		slog.String("email", sess.Email),
	)
	return sess, nil
}

// SetupAccount completes an account with its one-time setup code and
// signs the user in.
func (s *authService) SetupAccount(ctx context.Context, input SetupInput) (*Session, error) {
	resp, err := s.backend.SetupAccount(ctx, backend.SetupAccountRequest{
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		SetupCode: input.SetupCode,
		Password:  input.Password,
	})
	if err != nil {
		return nil, loginError(err, "Failed to setup account. Please check your setup code and try again.")
	}

	sess, err := s.createSession(ctx, resp)
	if err != nil {
		return nil, err
	}

	slog.Info("account setup completed",
		slog.String("user_id", sess.UserID),
		slog.String("email", sess.Email),
	)
	return sess, nil
}

// ValidateSession loads a session and unseals its backend token.
func (s *authService) ValidateSession(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}

	sess, err := s.repo.Find(ctx, id)
	if errors.Is(err, errSessionNotFound) {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	if !sess.ExpiresAt.IsZero() && !s.now().Before(sess.ExpiresAt) {
		_ = s.repo.Delete(ctx, id)
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}

	token, err := s.sealer.Open(id, sess.SealedToken)
	if err != nil {
		// The secret key changed since the session was created.
		_ = s.repo.Delete(ctx, id)
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}
	sess.Token = token
	return sess, nil
}

// DestroySession removes a session, logging the user out.
func (s *authService) DestroySession(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.NewInternal(err)
	}
	return nil
}

// createSession builds the session for a backend auth response and stores
// it. The session's lifetime is the configured TTL, shortened to the
// token's own expiry when the token carries one.
func (s *authService) createSession(ctx context.Context, resp *backend.AuthResponse) (*Session, error) {
	if resp == nil || resp.Token == "" {
		return nil, apperror.NewBadGateway("the backend did not return a token", errors.New("empty auth response"))
	}

	now := s.now().UTC()
	claims := readClaims(resp.Token)

	role := resp.User.Role
	if role == "" {
		role = claims.role
	}
	// Older tokens carry the role in lower case.
	if !strings.EqualFold(role, backend.RoleAdmin) {
		return nil, apperror.NewForbidden("this console is for administrators only")
	}
	role = backend.RoleAdmin

	expires := now.Add(s.sessionTTL)
	if !claims.expires.IsZero() && claims.expires.Before(expires) {
		expires = claims.expires
	}
	ttl := expires.Sub(now)
	if ttl <= 0 {
		return nil, apperror.NewUnauthorized("the backend issued an expired token")
	}

	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    resp.User.ID,
		Email:     resp.User.Email,
		Name:      resp.User.FullName(),
		Role:      role,
		CreatedAt: now,
		ExpiresAt: expires,
		Token:     resp.Token,
	}
	sealed, err := s.sealer.Seal(sess.ID, resp.Token)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	sess.SealedToken = sealed

	if err := s.repo.Create(ctx, sess, ttl); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}
	return sess, nil
}

// tokenClaims are the backend token fields the console reads.
type tokenClaims struct {
	expires time.Time
	role    string
}

// readClaims parses the backend token without verifying it. The backend
// verifies its own tokens on every call; the console only uses the expiry
// to bound the session and the role as a fallback. A token that is not a
// JWT yields zero claims.
func readClaims(token string) tokenClaims {
	var out tokenClaims
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return out
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.expires = exp.Time
	}
	if role, ok := claims["role"].(string); ok {
		out.role = role
	}
	return out
}

// loginError maps a backend auth failure to what the login form shows.
func loginError(err error, fallback string) error {
	var bErr *backend.Error
	if !errors.As(err, &bErr) {
		return apperror.NewBadGateway("the backend could not be reached", err)
	}
	if bErr.Code == codePasswordNotSet {
		e := apperror.NewUnauthorized("Your account has not been set up yet. Please use your setup code to complete account setup.")
		e.Internal = ErrPasswordNotSet
		return e
	}
	if bErr.Status >= http.StatusInternalServerError {
		return apperror.NewBadGateway("the backend could not complete the request", err)
	}
	msg := bErr.Detail()
	if msg == "" {
		msg = fallback
	}
	return apperror.NewUnauthorized(msg)
}
