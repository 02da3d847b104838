package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	// csrfCookieName holds the token. It is not HttpOnly: the page copies
	// it into a meta tag and HTMX sends it back as a header.
	csrfCookieName = "console_csrf"

	// csrfHeaderName carries the token on HTMX and fetch requests.
	csrfHeaderName = "X-CSRF-Token"

	// csrfFormField carries the token on plain form posts.
	csrfFormField = "csrf_token"

	csrfContextKey = "csrf_token"
	csrfTokenBytes = 32
)

// CSRF returns middleware implementing the double-submit cookie pattern.
// Every response makes sure the browser holds a token cookie; every
// POST, PUT, PATCH and DELETE must echo the cookie's value in the
// X-CSRF-Token header or the csrf_token form field, or it is refused with
// 403.
func CSRF() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := ensureCSRFCookie(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate CSRF token")
			}
			c.Set(csrfContextKey, token)

			req := c.Request()
			if isSafeMethod(req.Method) {
				return next(c)
			}

			submitted := req.Header.Get(csrfHeaderName)
			if submitted == "" {
				submitted = req.FormValue(csrfFormField)
			}
			if submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid or missing CSRF token")
			}
			return next(c)
		}
	}
}

// ensureCSRFCookie returns the browser's token, issuing a new cookie when
// it has none.
func ensureCSRFCookie(c echo.Context) (string, error) {
	req := c.Request()
	if cookie, err := req.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	c.SetCookie(&http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// isSafeMethod returns true for HTTP methods that should not change state.
func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}

// GetCSRFToken retrieves the CSRF token from the Echo context for forms
// and the page's meta tag.
func GetCSRFToken(c echo.Context) string {
	if token, ok := c.Get(csrfContextKey).(string); ok {
		return token
	}
	return ""
}
