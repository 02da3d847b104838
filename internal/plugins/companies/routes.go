package companies

import (
	"github.com/labstack/echo/v4"

	"github.com/tourbench/console/internal/plugins/auth"
)

// RegisterRoutes sets up the company routes. All of them need an admin
// session.
func RegisterRoutes(e *echo.Echo, h *Handler, authSvc auth.AuthService) {
	g := e.Group("/companies", auth.RequireAuth(authSvc), auth.RequireAdmin())
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/new", h.NewForm)
	g.GET("/:cid/edit", h.EditForm)
	g.POST("/:cid", h.Update)
	g.POST("/:cid/delete", h.Delete)
}
