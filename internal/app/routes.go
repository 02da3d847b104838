package app

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tourbench/console/internal/plugins/auth"
	"github.com/tourbench/console/internal/plugins/companies"
	"github.com/tourbench/console/internal/plugins/itinerary"
	"github.com/tourbench/console/internal/plugins/tours"
)

// RegisterRoutes builds every plugin from the shared infrastructure and
// registers its routes. This is the single place where routes are
// aggregated.
func (a *App) RegisterRoutes() error {
	e := a.Echo

	// --- Public Routes (no auth required) ---

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/tours")
	})

	// Health check for the container orchestrator. Redis holds every
	// session, so the console is useless without it.
	e.GET("/healthz", func(c echo.Context) error {
		if err := a.Redis.Ping(c.Request().Context()).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "redis unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// --- Auth ---

	sealer, err := auth.NewSealer(a.Config.Auth.SecretKey)
	if err != nil {
		return fmt.Errorf("session sealer: %w", err)
	}
	authSvc := auth.NewAuthService(a.Backend, auth.NewSessionRepository(a.Redis), sealer, a.Config.Auth.SessionTTL)
	auth.RegisterRoutes(e, auth.NewHandler(authSvc), a.Config.Auth.LoginRateLimit)

	// --- Tours ---

	tourSvc := tours.NewTourService(func(token string) tours.TourAPI {
		return a.Backend.WithToken(token)
	})
	tours.RegisterRoutes(e, tours.NewHandler(tourSvc), authSvc)

	// --- Companies ---

	companySvc := companies.NewCompanyService(func(token string) companies.CompanyAPI {
		return a.Backend.WithToken(token)
	})
	companies.RegisterRoutes(e, companies.NewHandler(companySvc), authSvc)

	// --- Itinerary ---

	itinSvc := itinerary.NewItineraryService(
		func(token string) itinerary.TourAPI { return a.Backend.WithToken(token) },
		itinerary.NewDraftStore(a.Redis, a.Config.Itinerary.DraftTTL,
			itinerary.LockTTL(a.Config.Backend.Timeout)),
	)
	itinerary.RegisterRoutes(e, itinerary.NewHandler(itinSvc), authSvc)

	return nil
}
