package itinerary

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tourbench/console/internal/apperror"
	"github.com/tourbench/console/internal/backend"
	"github.com/tourbench/console/internal/jst"
	"github.com/tourbench/console/internal/middleware"
	"github.com/tourbench/console/internal/plugins/auth"
)

// Client-side events announced through the HX-Trigger header.
const (
	triggerChanged  = "itinerary:changed"
	triggerUnselect = "itinerary:unselect"
)

// Handler processes HTTP requests for the itinerary scheduling view.
type Handler struct {
	svc ItineraryService
	now func() time.Time
}

// NewHandler creates a new itinerary Handler.
func NewHandler(svc ItineraryService) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// Show renders the scheduling page. An open dialog survives a reload.
// GET /tours/:tid/itinerary
func (h *Handler) Show(c echo.Context) error {
	return h.read(c, func(ws *Workspace) error {
		v, err := newPageView(ws)
		if err != nil {
			return apperror.NewBadGateway("the backend sent a malformed activity time", err)
		}
		return middleware.Render(c, http.StatusOK, ItineraryPage(v))
	})
}

// Events returns the calendar feed as JSON.
// GET /tours/:tid/itinerary/events
func (h *Handler) Events(c echo.Context) error {
	return h.read(c, func(ws *Workspace) error {
		events, err := ws.Controller.Events()
		if err != nil {
			return apperror.NewBadGateway("the backend sent a malformed activity time", err)
		}
		return c.JSON(http.StatusOK, events)
	})
}

// Select opens a new-activity dialog for a range dragged on the grid.
// POST /tours/:tid/itinerary/select
func (h *Handler) Select(c echo.Context) error {
	start, err := jst.ParseLocal(c.FormValue("start"))
	if err != nil {
		return apperror.NewBadRequest("invalid selection start")
	}
	end, err := jst.ParseLocal(c.FormValue("end"))
	if err != nil {
		return apperror.NewBadRequest("invalid selection end")
	}

	return h.write(c, func(ws *Workspace) error {
		cleared, err := ws.Controller.SelectRange(start, end)
		if cleared {
			c.Response().Header().Set("HX-Trigger", triggerUnselect)
		}
		if err != nil {
			return controllerError(err)
		}
		return nil
	}, h.renderDialog)
}

// OpenActivity opens the dialog for a saved activity.
// POST /tours/:tid/itinerary/activities/:aid/open
func (h *Handler) OpenActivity(c echo.Context) error {
	id, err := activityID(c)
	if err != nil {
		return err
	}
	return h.write(c, func(ws *Workspace) error {
		return controllerError(ws.Controller.OpenActivity(id))
	}, h.renderDialog)
}

// UpdateDraft stores the dialog's fields without submitting. The dialog
// posts here when the category changes so category-specific fields can be
// swapped in.
// POST /tours/:tid/itinerary/draft
func (h *Handler) UpdateDraft(c echo.Context) error {
	return h.write(c, func(ws *Workspace) error {
		return controllerError(bindDraft(c, ws.Controller))
	}, h.renderDialog)
}

// SubmitDraft creates or updates the activity behind the dialog. Local
// validation problems and backend failures re-render the dialog with the
// draft intact.
// POST /tours/:tid/itinerary/draft/submit
func (h *Handler) SubmitDraft(c echo.Context) error {
	return h.write(c, func(ws *Workspace) error {
		if err := bindDraft(c, ws.Controller); err != nil {
			return controllerError(err)
		}
		return h.settle(c, ws, ws.Controller.Submit(c.Request().Context()))
	}, h.renderDialog)
}

// DeleteDraft deletes the activity behind the dialog. The dialog asks for
// confirmation and sends confirmed=true.
// POST /tours/:tid/itinerary/draft/delete
func (h *Handler) DeleteDraft(c echo.Context) error {
	confirmed, _ := strconv.ParseBool(c.FormValue("confirmed"))
	return h.write(c, func(ws *Workspace) error {
		return h.settle(c, ws, ws.Controller.Delete(c.Request().Context(), confirmed))
	}, h.renderDialog)
}

// CancelDraft closes the dialog and discards the draft.
// POST /tours/:tid/itinerary/draft/cancel
func (h *Handler) CancelDraft(c echo.Context) error {
	return h.write(c, func(ws *Workspace) error {
		return controllerError(ws.Controller.Cancel())
	}, h.renderDialog)
}

// moveRequest is posted by the calendar after a drag or resize. Times are
// the grid's JST wall clock.
type moveRequest struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Resize bool   `json:"resize"`
}

// moveResponse tells the calendar where to draw the activity. On failure
// it is the pre-drag position.
type moveResponse struct {
	Start   string                  `json:"start"`
	End     string                  `json:"end"`
	Saved   bool                    `json:"saved"`
	Message string                  `json:"message,omitempty"`
	Fields  []apperror.FieldProblem `json:"fields,omitempty"`
}

// MoveActivity reschedules an activity dragged or resized on the grid.
// POST /tours/:tid/itinerary/activities/:aid/move
func (h *Handler) MoveActivity(c echo.Context) error {
	id, err := activityID(c)
	if err != nil {
		return err
	}
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid move request")
	}
	end, err := jst.ParseLocal(req.End)
	if err != nil {
		return apperror.NewBadRequest("invalid end time")
	}
	var start time.Time
	if !req.Resize {
		if start, err = jst.ParseLocal(req.Start); err != nil {
			return apperror.NewBadRequest("invalid start time")
		}
	}

	var (
		status = http.StatusOK
		resp   moveResponse
	)
	return h.write(c, func(ws *Workspace) error {
		ctx := c.Request().Context()
		var (
			span  Span
			opErr error
		)
		if req.Resize {
			span, opErr = ws.Controller.Resize(ctx, id, end)
		} else {
			span, opErr = ws.Controller.Move(ctx, id, start, end)
		}

		var (
			verr *ValidationError
			perr *PersistenceError
		)
		switch {
		case opErr == nil:
			resp.Saved = true
		case errors.As(opErr, &verr):
			status = http.StatusUnprocessableEntity
			resp.Message = "The activity cannot be moved there."
			resp.Fields = verr.Problems
		case errors.As(opErr, &perr) && perr.Op == "refresh":
			resp.Saved = true
			resp.Message = "Saved, but the itinerary could not be reloaded."
		case errors.As(opErr, &perr):
			status = http.StatusBadGateway
			resp.Message = failureMessage("move", perr.Err)
			slog.Warn("activity move failed",
				slog.Int64("tour_id", ws.Tour.ID),
				slog.Int64("activity_id", id),
				slog.Any("error", perr.Err),
			)
		default:
			return controllerError(opErr)
		}

		var convErr error
		if resp.Start, convErr = jst.UTCToJSTString(span.Start); convErr != nil {
			return apperror.NewBadGateway("the backend sent a malformed activity time", convErr)
		}
		if resp.End, convErr = jst.UTCToJSTString(span.End); convErr != nil {
			return apperror.NewBadGateway("the backend sent a malformed activity time", convErr)
		}
		return nil
	}, func(c echo.Context, _ *Workspace) error {
		return c.JSON(status, resp)
	})
}

// ExportICS downloads the itinerary as an iCalendar file.
// GET /tours/:tid/itinerary/export.ics
func (h *Handler) ExportICS(c echo.Context) error {
	tour, activities, err := h.itinerary(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WriteICS(&buf, *tour, activities, h.now()); err != nil {
		return apperror.NewBadGateway("the itinerary could not be exported", err)
	}
	setAttachment(c, fmt.Sprintf("tour-%d-itinerary.ics", tour.ID))
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

// ExportCSV downloads the itinerary as CSV.
// GET /tours/:tid/itinerary/export.csv
func (h *Handler) ExportCSV(c echo.Context) error {
	tour, activities, err := h.itinerary(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, activities); err != nil {
		return apperror.NewBadGateway("the itinerary could not be exported", err)
	}
	setAttachment(c, fmt.Sprintf("tour-%d-itinerary.csv", tour.ID))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// --- Helpers ---

// read opens the workspace without claiming the session's save slot.
func (h *Handler) read(c echo.Context, fn func(*Workspace) error) error {
	sess := auth.GetSession(c)
	if sess == nil {
		return apperror.NewMissingContext()
	}
	tid, err := tourID(c)
	if err != nil {
		return err
	}
	ws, err := h.svc.Open(c.Request().Context(), sess.Token, sess.ID, tid)
	if err != nil {
		return err
	}
	return fn(ws)
}

// write runs a state-changing operation: it claims the session's save
// slot, applies op, persists the resulting state, and then renders. The
// state is saved even when op fails so a failed save keeps its draft.
func (h *Handler) write(c echo.Context, op func(*Workspace) error, render func(echo.Context, *Workspace) error) error {
	sess := auth.GetSession(c)
	if sess == nil {
		return apperror.NewMissingContext()
	}
	tid, err := tourID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	release, err := h.svc.Lock(ctx, sess.ID, tid)
	if err != nil {
		return err
	}
	defer release()

	ws, err := h.svc.Open(ctx, sess.Token, sess.ID, tid)
	if err != nil {
		return err
	}
	opErr := op(ws)
	if err := h.svc.Save(ctx, ws); err != nil {
		return err
	}
	if opErr != nil {
		return opErr
	}
	return render(c, ws)
}

// settle turns the outcome of a submit or delete into the response. Field
// problems and backend failures are shown in the dialog; success closes it
// and tells the calendar to refetch.
func (h *Handler) settle(c echo.Context, ws *Workspace, err error) error {
	var (
		verr *ValidationError
		perr *PersistenceError
	)
	switch {
	case err == nil:
		c.Response().Header().Set("HX-Trigger", triggerChanged)
		return nil
	case errors.As(err, &verr):
		return nil
	case errors.As(err, &perr) && perr.Op == "refresh":
		slog.Warn("itinerary reload failed after save",
			slog.Int64("tour_id", ws.Tour.ID),
			slog.Any("error", perr.Err),
		)
		c.Response().Header().Set("HX-Trigger", triggerChanged)
		return nil
	case errors.As(err, &perr):
		if code := backend.StatusOf(perr.Err); code == http.StatusUnauthorized {
			return backendError(perr.Err, perr.Op)
		}
		slog.Warn("activity save failed",
			slog.Int64("tour_id", ws.Tour.ID),
			slog.String("op", perr.Op),
			slog.Int64("activity_id", perr.ActivityID),
			slog.Any("error", perr.Err),
		)
		return nil
	}
	return controllerError(err)
}

func (h *Handler) renderDialog(c echo.Context, ws *Workspace) error {
	return middleware.Render(c, http.StatusOK, DialogFragment(newDialogView(ws)))
}

func (h *Handler) itinerary(c echo.Context) (*backend.Tour, []Activity, error) {
	sess := auth.GetSession(c)
	if sess == nil {
		return nil, nil, apperror.NewMissingContext()
	}
	tid, err := tourID(c)
	if err != nil {
		return nil, nil, err
	}
	return h.svc.Itinerary(c.Request().Context(), sess.Token, tid)
}

// bindDraft copies the posted dialog fields into the open draft. Times
// arrive as JST datetime-local values and are stored as wire instants;
// a value that does not parse is kept as typed and reported on submit.
func bindDraft(c echo.Context, ctrl *Controller) error {
	var posted Form
	if err := c.Bind(&posted); err != nil {
		return apperror.NewBadRequest("invalid activity form")
	}
	return ctrl.EditDraft(func(f *Form) {
		*f = Form{
			Title:            posted.Title,
			Description:      posted.Description,
			StartTime:        wireValue(posted.StartTime),
			EndTime:          wireValue(posted.EndTime),
			LocationDetails:  posted.LocationDetails,
			CompanyID:        posted.CompanyID,
			SurveyURL:        posted.SurveyURL,
			LinkedActivityID: posted.LinkedActivityID,
		}
		f.SetType(backend.ActivityType(posted.Type))
	})
}

func wireValue(local string) string {
	v, err := jst.FromDateTimeLocalValue(local)
	if err != nil {
		return local
	}
	return v
}

func setAttachment(c echo.Context, filename string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
}

func tourID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("tid"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewBadRequest("invalid tour ID")
	}
	return id, nil
}

func activityID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("aid"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewBadRequest("invalid activity ID")
	}
	return id, nil
}

// controllerError maps a controller failure to the client-facing error.
func controllerError(err error) error {
	if err == nil {
		return nil
	}
	var (
		appErr *apperror.AppError
		verr   *ValidationError
		perr   *PersistenceError
		merr   *jst.MalformedTimeError
	)
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrSubmitInFlight):
		return apperror.NewConflict("a save is already in progress for this itinerary")
	case errors.Is(err, ErrInvalidTransition):
		return apperror.NewConflict("the itinerary dialog was changed in another tab, reload the page")
	case errors.Is(err, ErrActivityNotFound):
		return apperror.NewNotFound("activity not found")
	case errors.Is(err, ErrNothingToDelete):
		return apperror.NewBadRequest("only saved activities can be deleted")
	case errors.Is(err, ErrNotConfirmed):
		return apperror.NewBadRequest("deleting an activity must be confirmed")
	case errors.As(err, &verr):
		return apperror.NewValidation("the activity has invalid fields").WithFields(verr.Problems...)
	case errors.As(err, &perr):
		return backendError(perr.Err, perr.Op+" activity")
	case errors.As(err, &merr):
		return apperror.NewBadGateway("the backend sent a malformed activity time", err)
	}
	return apperror.NewInternal(err)
}
