package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourbench/console/internal/apperror"
)

func ok(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestFixedWindow(t *testing.T) {
	w := newFixedWindow(2, time.Minute)
	t0 := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	allowed, _ := w.allow("1.2.3.4", t0)
	assert.True(t, allowed)
	allowed, _ = w.allow("1.2.3.4", t0.Add(time.Second))
	assert.True(t, allowed)

	allowed, wait := w.allow("1.2.3.4", t0.Add(20*time.Second))
	assert.False(t, allowed)
	assert.Equal(t, 40*time.Second, wait)

	allowed, _ = w.allow("5.6.7.8", t0.Add(20*time.Second))
	assert.True(t, allowed, "limits are per key")

	allowed, _ = w.allow("1.2.3.4", t0.Add(61*time.Second))
	assert.True(t, allowed, "a new window starts after expiry")
}

func TestRateLimit_RetryAfter(t *testing.T) {
	e := echo.New()
	h := RateLimit(1, time.Minute)(ok)

	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), rec)))

	rec = httptest.NewRecorder()
	err := h(e.NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), rec))
	assert.Equal(t, http.StatusTooManyRequests, apperror.SafeCode(err))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestCSRF(t *testing.T) {
	e := echo.New()
	h := CSRF()(ok)

	t.Run("issues cookie on GET", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/tours", nil), rec)
		require.NoError(t, h(c))
		assert.Contains(t, rec.Header().Get("Set-Cookie"), csrfCookieName+"=")
		assert.Len(t, GetCSRFToken(c), 2*csrfTokenBytes)
	})

	t.Run("rejects POST without token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "abc"})
		err := h(e.NewContext(req, httptest.NewRecorder()))
		var he *echo.HTTPError
		require.True(t, errors.As(err, &he))
		assert.Equal(t, http.StatusForbidden, he.Code)
	})

	t.Run("accepts header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/tours/5/itinerary/select", nil)
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "abc"})
		req.Header.Set(csrfHeaderName, "abc")
		rec := httptest.NewRecorder()
		require.NoError(t, h(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("accepts form field", func(t *testing.T) {
		form := url.Values{csrfFormField: {"abc"}}
		req := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "abc"})
		rec := httptest.NewRecorder()
		require.NoError(t, h(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	require.NoError(t, SecurityHeaders(false)(ok)(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	require.NoError(t, SecurityHeaders(true)(ok)(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRecovery(t *testing.T) {
	e := echo.New()
	err := Recovery()(func(echo.Context) error { panic("boom") })(
		e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder()))
	assert.Equal(t, http.StatusInternalServerError, apperror.SafeCode(err))
}

func TestRequestLogger_RequestID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/tours", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	rec := httptest.NewRecorder()
	require.NoError(t, RequestLogger()(ok)(e.NewContext(req, rec)))
	assert.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))

	rec = httptest.NewRecorder()
	require.NoError(t, RequestLogger()(ok)(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)))
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}

func TestTrustedProxies(t *testing.T) {
	e := echo.New()
	require.NoError(t, TrustedProxies(e, []string{"10.0.0.0/8"}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set(echo.HeaderXForwardedFor, "203.0.113.9")
	assert.Equal(t, "203.0.113.9", e.IPExtractor(req))

	req.RemoteAddr = "198.51.100.7:5555"
	assert.Equal(t, "198.51.100.7", e.IPExtractor(req), "untrusted peers cannot spoof")

	assert.Error(t, TrustedProxies(e, []string{"not-a-cidr"}))
}
