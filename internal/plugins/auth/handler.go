package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tourbench/console/internal/apperror"
	"github.com/tourbench/console/internal/middleware"
)

// sessionCookieName is the HTTP cookie that carries the session id.
const sessionCookieName = "console_session"

// homePath is where a signed-in operator lands.
const homePath = "/tours"

// Handler handles HTTP requests for authentication (login, setup, logout).
// Handlers are thin: they bind the request, call the service, and render the
// response.
type Handler struct {
	service AuthService
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service}
}

// LoginForm renders the login page (GET /login).
func (h *Handler) LoginForm(c echo.Context) error {
	if h.hasSession(c) {
		return c.Redirect(http.StatusSeeOther, homePath)
	}
	return middleware.Render(c, http.StatusOK, LoginPage(loginView{
		CSRFToken: middleware.GetCSRFToken(c),
	}))
}

// Login processes the login form submission (POST /login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	v := loginView{CSRFToken: middleware.GetCSRFToken(c), Email: req.Email}
	if req.Email == "" || req.Password == "" {
		v.Error = "Please enter your email and password"
		return h.renderLogin(c, v)
	}

	sess, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if apperror.SafeCode(err) == http.StatusInternalServerError {
			return err
		}
		v.Error = apperror.SafeMessage(err)
		v.NeedsSetup = errors.Is(err, ErrPasswordNotSet)
		return h.renderLogin(c, v)
	}

	setSessionCookie(c, sess)
	return redirect(c, homePath)
}

// SetupForm renders the account setup page (GET /admin-setup).
func (h *Handler) SetupForm(c echo.Context) error {
	return middleware.Render(c, http.StatusOK, SetupPage(setupView{
		CSRFToken: middleware.GetCSRFToken(c),
		Email:     c.QueryParam("email"),
		Strength:  PasswordStrength(""),
	}))
}

// Setup completes an account with its setup code (POST /admin-setup).
func (h *Handler) Setup(c echo.Context) error {
	var req SetupRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	req.SetupCode = NormalizeSetupCode(req.SetupCode)

	v := setupView{
		CSRFToken: middleware.GetCSRFToken(c),
		Email:     req.Email,
		SetupCode: req.SetupCode,
		Strength:  PasswordStrength(req.Password),
	}
	if msg := validateSetup(&req); msg != "" {
		v.Error = msg
		return middleware.Render(c, http.StatusOK, SetupPage(v))
	}

	sess, err := h.service.SetupAccount(c.Request().Context(), SetupInput{
		Email:     req.Email,
		SetupCode: req.SetupCode,
		Password:  req.Password,
	})
	if err != nil {
		if apperror.SafeCode(err) == http.StatusInternalServerError {
			return err
		}
		v.Error = apperror.SafeMessage(err)
		return middleware.Render(c, http.StatusOK, SetupPage(v))
	}

	setSessionCookie(c, sess)
	return redirect(c, homePath)
}

// Strength renders the strength meter for the password being typed
// (POST /auth/password-strength).
func (h *Handler) Strength(c echo.Context) error {
	s := PasswordStrength(c.FormValue("password"))
	if !middleware.IsHTMX(c) {
		return c.JSON(http.StatusOK, s)
	}
	return middleware.Render(c, http.StatusOK, StrengthMeter(s))
}

// Logout destroys the session and clears the cookie (POST /logout).
func (h *Handler) Logout(c echo.Context) error {
	if id := getSessionID(c); id != "" {
		// Ignore errors -- the cookie is cleared regardless.
		_ = h.service.DestroySession(c.Request().Context(), id)
	}
	clearSessionCookie(c)
	return redirect(c, "/login")
}

func (h *Handler) hasSession(c echo.Context) bool {
	id := getSessionID(c)
	if id == "" {
		return false
	}
	_, err := h.service.ValidateSession(c.Request().Context(), id)
	return err == nil
}

func (h *Handler) renderLogin(c echo.Context, v loginView) error {
	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, LoginFormFragment(v))
	}
	return middleware.Render(c, http.StatusOK, LoginPage(v))
}

// redirect sends HTMX clients an HX-Redirect and browsers a 303.
func redirect(c echo.Context, to string) error {
	if middleware.IsHTMX(c) {
		c.Response().Header().Set("HX-Redirect", to)
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, to)
}

// --- Cookie helpers ---

// getSessionID reads the session id from the cookie.
func getSessionID(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setSessionCookie sets the session cookie on the response. It expires
// with the session.
func setSessionCookie(c echo.Context, sess *Session) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
	})
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
