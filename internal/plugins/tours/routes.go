package tours

import (
	"github.com/labstack/echo/v4"

	"github.com/tourbench/console/internal/plugins/auth"
)

// RegisterRoutes sets up the tour routes. All of them need an admin session.
func RegisterRoutes(e *echo.Echo, h *Handler, authSvc auth.AuthService) {
	g := e.Group("/tours", auth.RequireAuth(authSvc), auth.RequireAdmin())
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/new", h.NewForm)
	g.GET("/:tid/edit", h.EditForm)
	g.POST("/:tid", h.Update)
	g.POST("/:tid/delete", h.Delete)
	g.GET("/:tid/participants.csv", h.ParticipantsCSV)
}
