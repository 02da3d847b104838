package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tourbench/console/internal/middleware"
)

// RegisterRoutes sets up all auth-related routes on the given Echo instance.
// Auth routes are public (no session required) -- the middleware is exported
// separately for other plugins to use on their route groups.
//
// Login and setup are rate-limited per IP to slow down credential guessing
// against the backend.
func RegisterRoutes(e *echo.Echo, h *Handler, loginPerMinute int) {
	e.GET("/login", h.LoginForm)
	e.POST("/login", h.Login, middleware.RateLimit(loginPerMinute, time.Minute))
	e.GET("/admin-setup", h.SetupForm)
	e.POST("/admin-setup", h.Setup, middleware.RateLimit(loginPerMinute, time.Minute))
	e.POST("/auth/password-strength", h.Strength)

	e.POST("/logout", h.Logout)
}
