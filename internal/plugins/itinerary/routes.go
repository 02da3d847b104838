package itinerary

import (
	"github.com/labstack/echo/v4"

	"github.com/tourbench/console/internal/plugins/auth"
)

// RegisterRoutes sets up the itinerary scheduling routes. Every route is
// scoped to one tour and needs an admin session.
func RegisterRoutes(e *echo.Echo, h *Handler, authSvc auth.AuthService) {
	g := e.Group("/tours/:tid/itinerary",
		auth.RequireAuth(authSvc),
		auth.RequireAdmin(),
	)

	g.GET("", h.Show)
	g.GET("/events", h.Events)
	g.GET("/export.ics", h.ExportICS)
	g.GET("/export.csv", h.ExportCSV)

	// Dialog lifecycle. Each call loads the session's draft, applies one
	// transition and stores the result.
	g.POST("/select", h.Select)
	g.POST("/activities/:aid/open", h.OpenActivity)
	g.POST("/draft", h.UpdateDraft)
	g.POST("/draft/submit", h.SubmitDraft)
	g.POST("/draft/delete", h.DeleteDraft)
	g.POST("/draft/cancel", h.CancelDraft)

	// Drag and resize on the grid.
	g.POST("/activities/:aid/move", h.MoveActivity)
}
