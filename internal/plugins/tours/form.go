package tours

import (
	"net/url"
	"slices"
	"strings"

	"github.com/tourbench/console/internal/apperror"
	"github.com/tourbench/console/internal/backend"
	"github.com/tourbench/console/internal/jst"
)

// Statuses lists the tour statuses in lifecycle order.
var Statuses = []backend.TourStatus{backend.TourDraft, backend.TourPending, backend.TourCompleted}

// TourForm is the tour editor's field set. StartDate and EndDate hold JST
// calendar dates as an <input type="date"> sends them.
type TourForm struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	StartDate   string `json:"start_date" form:"start_date"`
	EndDate     string `json:"end_date" form:"end_date"`
	Status      string `json:"status" form:"status"`
	SurveyURL   string `json:"survey_url" form:"survey_url"`
}

// NewTourForm is the empty form for a new tour.
func NewTourForm() TourForm {
	return TourForm{Status: string(backend.TourDraft)}
}

// TourFormFromTour fills the form from a saved tour, converting its UTC
// dates to the JST days the date inputs show.
func TourFormFromTour(t backend.Tour) TourForm {
	return TourForm{
		Name:        t.Name,
		Description: t.Description,
		StartDate:   dateInputValue(t.StartDate),
		EndDate:     dateInputValue(t.EndDate),
		Status:      string(t.Status),
		SurveyURL:   t.SurveyURL,
	}
}

// dateInputValue accepts both shapes the backend uses for tour dates. An
// unreadable value leaves the input empty so the operator re-enters it.
func dateInputValue(s string) string {
	if v, err := jst.ToDateValue(s); err == nil {
		return v
	}
	if d, err := jst.CalendarDate(s); err == nil {
		return d
	}
	return ""
}

// Input validates the form and builds the request body, reporting every
// problem at once.
func (f TourForm) Input() (backend.TourInput, []apperror.FieldProblem) {
	var problems []apperror.FieldProblem
	add := func(field, msg string) {
		problems = append(problems, apperror.FieldProblem{Field: field, Message: msg})
	}

	name := strings.TrimSpace(f.Name)
	if name == "" {
		add("name", "Tour name is required")
	}

	start, startOK := formDate(f.StartDate, "start_date", "Start date", add)
	end, endOK := formDate(f.EndDate, "end_date", "End date", add)
	// Dates are zero-padded YYYY-MM-DD, so text order is day order.
	if startOK && endOK && f.EndDate < f.StartDate {
		add("end_date", "End date must be on or after the start date")
	}

	status := backend.TourStatus(f.Status)
	if f.Status == "" {
		status = backend.TourDraft
	} else if !slices.Contains(Statuses, status) {
		add("status", "Unknown status")
	}

	if f.SurveyURL != "" {
		u, err := url.Parse(f.SurveyURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("survey_url", "Survey URL must be an http or https link")
		}
	}

	return backend.TourInput{
		Name:        name,
		Description: strings.TrimSpace(f.Description),
		StartDate:   start,
		EndDate:     end,
		Status:      status,
		SurveyURL:   f.SurveyURL,
	}, problems
}

// formDate converts a required date input to the UTC instant of its JST
// midnight.
func formDate(v, field, label string, add func(field, msg string)) (string, bool) {
	if v == "" {
		add(field, label+" is required")
		return "", false
	}
	utc, err := jst.FromDateValue(v)
	if err != nil {
		add(field, label+" is not a valid date")
		return "", false
	}
	return utc, true
}
