package tours

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tourbench/console/internal/apperror"
	"github.com/tourbench/console/internal/backend"
	"github.com/tourbench/console/internal/middleware"
	"github.com/tourbench/console/internal/plugins/auth"
)

// Handler serves the tour pages and participant export.
type Handler struct {
	svc TourService
	now func() time.Time
}

// NewHandler creates a new tours Handler.
func NewHandler(svc TourService) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// List renders all tours.
// GET /tours
func (h *Handler) List(c echo.Context) error {
	sess := auth.GetSession(c)
	if sess == nil {
		return apperror.NewMissingContext()
	}
	tours, err := h.svc.List(c.Request().Context(), sess.Token)
	if err != nil {
		return err
	}
	if middleware.WantsJSON(c) {
		return c.JSON(http.StatusOK, tours)
	}
	return middleware.Render(c, http.StatusOK, TourListPage(tours))
}

// NewForm renders the empty tour editor.
// GET /tours/new
func (h *Handler) NewForm(c echo.Context) error {
	return middleware.Render(c, http.StatusOK,
		TourFormPage(newFormView(middleware.GetCSRFToken(c), NewTourForm(), nil)))
}

// Create adds a tour from the editor.
// POST /tours
func (h *Handler) Create(c echo.Context) error {
	sess := auth.GetSession(c)
	if sess == nil {
		return apperror.NewMissingContext()
	}
	var form TourForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	in, problems := form.Input()
	if len(problems) > 0 {
		return h.invalid(c, newFormView(middleware.GetCSRFToken(c), form, problems))
	}
	tour, err := h.svc.Create(c.Request().Context(), sess.Token, in)
	if err != nil {
		return err
	}
	if middleware.WantsJSON(c) {
		return c.JSON(http.StatusCreated, tour)
	}
	return redirect(c, "/tours")
}

// EditForm renders the editor for an existing tour.
// GET /tours/:tid/edit
func (h *Handler) EditForm(c echo.Context) error {
	sess := auth.GetSession(c)
	if sess == nil {
		return apperror.NewMissingContext()
	}
	tid, err := tourID(c)
	if err != nil {
		return err
	}
	tour, err := h.svc.Get(c.Request().Context(), sess.Token, tid)
	if err != nil {
		return err
	}
	v := newFormView(middleware.GetCSRFToken(c), TourFormFromTour(*tour), nil).editing(*tour)
	return middleware.Render(c, http.StatusOK, TourFormPage(v))
}

// Update saves the editor over an existing tour.
// POST /tours/:tid
func (h *Handler) Update(c echo.Context) error {
	sess := auth.GetSession(c)
	if sess == nil {
		return apperror.NewMissingContext()
	}
	tid, err := tourID(c)
	if err != nil {
		return err
	}
	var form TourForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	in, problems := form.Input()
	if len(problems) > 0 {
		return h.invalid(c, newFormView(middleware.GetCSRFToken(c), form, problems).editing(backend.Tour{ID: tid}))
	}
	tour, err := h.svc.Update(c.Request().Context(), sess.Token, tid, in)
	if err != nil {
		return err
	}
	if middleware.WantsJSON(c) {
		return c.JSON(http.StatusOK, tour)
	}
	return redirect(c, "/tours")
}

// Delete removes a tour.
// POST /tours/:tid/delete
func (h *Handler) Delete(c echo.Context) error {
	sess := auth.GetSession(c)
	if sess == nil {
		return apperror.NewMissingContext()
	}
	tid, err := tourID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), sess.Token, tid); err != nil {
		return err
	}
	if middleware.WantsJSON(c) {
		return c.NoContent(http.StatusNoContent)
	}
	return redirect(c, "/tours")
}

// invalid answers a form that failed validation: the problems as JSON for
// API clients, the editor with inline messages for browsers.
func (h *Handler) invalid(c echo.Context, v formView) error {
	if middleware.WantsJSON(c) {
		return apperror.NewValidation("the tour is invalid").WithFields(v.problems...)
	}
	return middleware.Render(c, http.StatusUnprocessableEntity, TourFormPage(v))
}

// ParticipantsCSV downloads the tour's participant roster.
// GET /tours/:tid/participants.csv
func (h *Handler) ParticipantsCSV(c echo.Context) error {
	sess := auth.GetSession(c)
	if sess == nil {
		return apperror.NewMissingContext()
	}
	tid, err := tourID(c)
	if err != nil {
		return err
	}

	tour, participants, err := h.svc.Roster(c.Request().Context(), sess.Token, tid)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := WriteParticipantsCSV(&buf, *tour, participants); err != nil {
		return apperror.NewBadGateway("the participant list could not be exported", err)
	}
	name := ParticipantsFilename(tour.Name, h.now())
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", "participants.csv", url.PathEscape(name)))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func tourID(c echo.Context) (int64, error) {
	tid, err := strconv.ParseInt(c.Param("tid"), 10, 64)
	if err != nil || tid <= 0 {
		return 0, apperror.NewBadRequest("invalid tour ID")
	}
	return tid, nil
}

// redirect sends the browser to another page. HTMX requests get the
// HX-Redirect header instead of a 303 it would follow in the background.
func redirect(c echo.Context, to string) error {
	if middleware.IsHTMX(c) {
		c.Response().Header().Set("HX-Redirect", to)
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, to)
}
