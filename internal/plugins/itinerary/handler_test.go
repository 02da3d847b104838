package itinerary

import (
	"context"
	"encoding/json"
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
	"github.com/tourbench/console/internal/backend"
	"github.com/tourbench/console/internal/plugins/auth"
)

// --- Fake backend ---

// fakeTourAPI serves tour 5 from memory and records writes.
type fakeTourAPI struct {
	activities []Activity
	created    []any
	updated    []any
	deleted    []int64
	updateErr  error
	nextID     int64
}

func newFakeTourAPI() *fakeTourAPI {
	return &fakeTourAPI{activities: sampleActivities(), nextID: 100}
}

func (f *fakeTourAPI) GetTour(_ context.Context, tourID int64) (*backend.Tour, error) {
	if tourID != 5 {
		return nil, &backend.Error{Status: http.StatusNotFound}
	}
	return &backend.Tour{ID: 5, Name: "Osaka Benchmark", StartDate: "2025-04-01", EndDate: "2025-04-10"}, nil
}

func (f *fakeTourAPI) ListActivities(context.Context, int64) ([]Activity, error) {
	return append([]Activity(nil), f.activities...), nil
}

func (f *fakeTourAPI) CreateActivity(_ context.Context, _ int64, body any) (*backend.Activity, error) {
	f.created = append(f.created, body)
	p := body.(Payload)
	f.nextID++
	a := Activity{ID: f.nextID, TourID: 5, Type: p.Type(), Title: p.Title, StartTime: p.StartTime, EndTime: p.EndTime}
	f.activities = append(f.activities, a)
	return &a, nil
}

func (f *fakeTourAPI) UpdateActivity(_ context.Context, _, activityID int64, body any) (*backend.Activity, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated = append(f.updated, body)
	for i, a := range f.activities {
		if a.ID != activityID {
			continue
		}
		p := body.(Patch)
		if p.StartTime != nil {
			a.StartTime = *p.StartTime
		}
		if p.EndTime != nil {
			a.EndTime = *p.EndTime
		}
		f.activities[i] = a
		return &a, nil
	}
	return nil, &backend.Error{Status: http.StatusNotFound}
}

func (f *fakeTourAPI) DeleteActivity(_ context.Context, _, activityID int64) error {
	f.deleted = append(f.deleted, activityID)
	return nil
}

func (f *fakeTourAPI) ListCompanies(context.Context) ([]backend.Company, error) {
	return []backend.Company{{ID: 7, Name: "Acme Robotics"}}, nil
}

// --- Harness ---

type harness struct {
	t     *testing.T
	api   *fakeTourAPI
	store DraftStore
	h     *Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	_, store := newTestStore(t)
	api := newFakeTourAPI()
	h := NewHandler(NewItineraryService(func(string) TourAPI { return api }, store))
	h.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	return &harness{t: t, api: api, store: store, h: h}
}

// call runs handler fn for an admin session against tour 5.
func (hs *harness) call(fn echo.HandlerFunc, req *http.Request, params ...string) (*httptest.ResponseRecorder, error) {
	hs.t.Helper()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	auth.SetSession(c, &auth.Session{ID: "sess", UserID: "u1", Role: backend.RoleAdmin, Token: "tok"})

	names := []string{"tid"}
	values := []string{"5"}
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return rec, fn(c)
}

func formRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("HX-Request", "true")
	return req
}

func jsonRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	return req
}

func (hs *harness) state() State {
	hs.t.Helper()
	snap, err := hs.store.Load(context.Background(), "sess", 5)
	require.NoError(hs.t, err)
	return snap.State
}

// --- Read endpoints ---

func TestHandler_Show(t *testing.T) {
	hs := newHarness(t)
	rec, err := hs.call(hs.h.Show, httptest.NewRequest(http.MethodGet, "/tours/5/itinerary", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Osaka Benchmark")
	assert.Contains(t, body, "Plant tour")
	assert.Contains(t, body, "/tours/5/itinerary/events")
}

func TestHandler_Show_UnknownTour(t *testing.T) {
	hs := newHarness(t)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/tours/9/itinerary", nil), rec)
	auth.SetSession(c, &auth.Session{ID: "sess", Role: backend.RoleAdmin})
	c.SetParamNames("tid")
	c.SetParamValues("9")
	assert.Equal(t, http.StatusNotFound, apperror.SafeCode(hs.h.Show(c)))
}

func TestHandler_Events(t *testing.T) {
	hs := newHarness(t)
	rec, err := hs.call(hs.h.Events, httptest.NewRequest(http.MethodGet, "/tours/5/itinerary/events", nil))
	require.NoError(t, err)

	var events []Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 3)
	assert.Equal(t, "2025-04-02T09:00:00", events[0].Start)
}

// --- Dialog lifecycle ---

func TestHandler_SelectThenSubmit(t *testing.T) {
	hs := newHarness(t)

	rec, err := hs.call(hs.h.Select, formRequest("/tours/5/itinerary/select", url.Values{
		"start": {"2025-04-03T09:00:00"},
		"end":   {"2025-04-03T10:00:00"},
	}))
	require.NoError(t, err)
	assert.Equal(t, triggerUnselect, rec.Header().Get("HX-Trigger"))
	assert.Contains(t, rec.Body.String(), `value="2025-04-03T09:00"`)
	assert.Equal(t, EditingDraft, hs.state())

	rec, err = hs.call(hs.h.SubmitDraft, formRequest("/tours/5/itinerary/draft/submit", url.Values{
		"type":       {"Hotel"},
		"title":      {"Late check-in"},
		"start_time": {"2025-04-03T09:00"},
		"end_time":   {"2025-04-03T10:00"},
	}))
	require.NoError(t, err)
	assert.Equal(t, triggerChanged, rec.Header().Get("HX-Trigger"))
	require.Len(t, hs.api.created, 1)
	p := hs.api.created[0].(Payload)
	assert.Equal(t, "2025-04-03T00:00:00Z", p.StartTime)
	assert.Equal(t, Idle, hs.state())
}

func TestHandler_SubmitInvalidKeepsDialog(t *testing.T) {
	hs := newHarness(t)
	_, err := hs.call(hs.h.Select, formRequest("/", url.Values{
		"start": {"2025-04-03T09:00"},
		"end":   {"2025-04-03T10:00"},
	}))
	require.NoError(t, err)

	rec, err := hs.call(hs.h.SubmitDraft, formRequest("/", url.Values{
		"type":       {"Hotel"},
		"title":      {"  "},
		"start_time": {"2025-04-03T09:00"},
		"end_time":   {"2025-04-03T10:00"},
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Title is required")
	assert.Empty(t, rec.Header().Get("HX-Trigger"))
	assert.Empty(t, hs.api.created, "invalid drafts never reach the backend")
	assert.Equal(t, EditingDraft, hs.state())
}

func TestHandler_OpenAndDelete(t *testing.T) {
	hs := newHarness(t)

	rec, err := hs.call(hs.h.OpenActivity, formRequest("/", nil), "aid", "3")
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), "Check-in")

	_, err = hs.call(hs.h.DeleteDraft, formRequest("/", url.Values{}))
	assert.Equal(t, http.StatusBadRequest, apperror.SafeCode(err), "unconfirmed delete")
	assert.Empty(t, hs.api.deleted)

	rec, err = hs.call(hs.h.DeleteDraft, formRequest("/", url.Values{"confirmed": {"true"}}))
	require.NoError(t, err)
	assert.Equal(t, triggerChanged, rec.Header().Get("HX-Trigger"))
	assert.Equal(t, []int64{3}, hs.api.deleted)
	assert.Equal(t, Idle, hs.state())
}

func TestHandler_OpenUnknownActivity(t *testing.T) {
	hs := newHarness(t)
	_, err := hs.call(hs.h.OpenActivity, formRequest("/", nil), "aid", "42")
	assert.Equal(t, http.StatusNotFound, apperror.SafeCode(err))
}

func TestHandler_Cancel(t *testing.T) {
	hs := newHarness(t)
	_, err := hs.call(hs.h.OpenActivity, formRequest("/", nil), "aid", "1")
	require.NoError(t, err)

	_, err = hs.call(hs.h.CancelDraft, formRequest("/", nil))
	require.NoError(t, err)
	assert.Equal(t, Idle, hs.state())
}

func TestHandler_SecondSubmitWhileLocked(t *testing.T) {
	hs := newHarness(t)
	release, err := hs.store.Lock(context.Background(), "sess", 5)
	require.NoError(t, err)
	defer release()

	_, err = hs.call(hs.h.SubmitDraft, formRequest("/", url.Values{"title": {"x"}}))
	assert.Equal(t, http.StatusConflict, apperror.SafeCode(err))
}

// --- Drag and resize ---

func TestHandler_Move(t *testing.T) {
	hs := newHarness(t)

	rec, err := hs.call(hs.h.MoveActivity,
		jsonRequest("/", `{"start":"2025-04-02T13:00:00","end":"2025-04-02T15:00:00"}`), "aid", "1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp moveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Saved)
	assert.Equal(t, "2025-04-02T13:00:00", resp.Start)
	assert.Equal(t, "2025-04-02T15:00:00", resp.End)
	require.Len(t, hs.api.updated, 1)
}

func TestHandler_MoveOutsideTour(t *testing.T) {
	hs := newHarness(t)

	rec, err := hs.call(hs.h.MoveActivity,
		jsonRequest("/", `{"start":"2025-04-20T09:00:00","end":"2025-04-20T11:00:00"}`), "aid", "1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp moveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Saved)
	assert.Equal(t, "2025-04-02T09:00:00", resp.Start, "calendar is told to put it back")
	assert.NotEmpty(t, resp.Fields)
	assert.Empty(t, hs.api.updated)
}

func TestHandler_MoveBackendFailure(t *testing.T) {
	hs := newHarness(t)
	hs.api.updateErr = errors.New("connection reset")

	rec, err := hs.call(hs.h.MoveActivity,
		jsonRequest("/", `{"end":"2025-04-02T12:00:00","resize":true}`), "aid", "1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp moveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Saved)
	assert.Equal(t, "2025-04-02T11:00:00", resp.End)
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, Idle, hs.state())
}

func TestHandler_MoveBadInput(t *testing.T) {
	hs := newHarness(t)
	_, err := hs.call(hs.h.MoveActivity, jsonRequest("/", `{"start":"yesterday","end":"2025-04-02T12:00:00"}`), "aid", "1")
	assert.Equal(t, http.StatusBadRequest, apperror.SafeCode(err))

	_, err = hs.call(hs.h.MoveActivity, jsonRequest("/", `{}`), "aid", "x")
	assert.Equal(t, http.StatusBadRequest, apperror.SafeCode(err))
}

// --- Exports ---

func TestHandler_Exports(t *testing.T) {
	hs := newHarness(t)

	rec, err := hs.call(hs.h.ExportICS, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "tour-5-itinerary.ics")
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")

	rec, err = hs.call(hs.h.ExportCSV, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "tour-5-itinerary.csv")
	assert.Contains(t, rec.Body.String(), "Plant tour")
}

func TestHandler_NoSession(t *testing.T) {
	hs := newHarness(t)
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, http.StatusInternalServerError, apperror.SafeCode(hs.h.Show(c)))
}
