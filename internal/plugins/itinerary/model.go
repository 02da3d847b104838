// Package itinerary is the tour itinerary scheduling view: a calendar-backed
// editor that creates activities from a selected time range, edits them
// from a dialog, and reschedules them by drag and resize. All times are
// shown in JST and sent to the backend as UTC.
package itinerary

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tourbench/console/internal/apperror"
	"github.com/tourbench/console/internal/backend"
	"github.com/tourbench/console/internal/jst"
)

// Activity is a persisted itinerary item as the backend returns it.
type Activity = backend.Activity

// Details carries the fields that only exist for one activity category.
// It is a closed union: CompanyVisit, Discussion, Hotel, Restaurant and
// Travel are its only implementations, so a company or linked activity can
// only reach a request body through the matching variant.
type Details interface {
	Type() backend.ActivityType
	refs() (companyID, linkedActivityID *int64)
}

// CompanyVisit is a visit to a company. The company is mandatory.
type CompanyVisit struct {
	CompanyID int64
}

// Discussion is a group discussion, optionally tied to a company visit.
// A nil LinkedActivityID is a standalone session such as an orientation.
type Discussion struct {
	LinkedActivityID *int64
}

type Hotel struct{}

type Restaurant struct{}

type Travel struct{}

func (CompanyVisit) Type() backend.ActivityType { return backend.ActivityCompanyVisit }
func (Discussion) Type() backend.ActivityType   { return backend.ActivityDiscussion }
func (Hotel) Type() backend.ActivityType        { return backend.ActivityHotel }
func (Restaurant) Type() backend.ActivityType   { return backend.ActivityRestaurant }
func (Travel) Type() backend.ActivityType       { return backend.ActivityTravel }

func (d CompanyVisit) refs() (*int64, *int64) {
	id := d.CompanyID
	return &id, nil
}

func (d Discussion) refs() (*int64, *int64) {
	if d.LinkedActivityID == nil {
		return nil, nil
	}
	id := *d.LinkedActivityID
	return nil, &id
}

func (Hotel) refs() (*int64, *int64)      { return nil, nil }
func (Restaurant) refs() (*int64, *int64) { return nil, nil }
func (Travel) refs() (*int64, *int64)     { return nil, nil }

// Payload is a validated activity ready to be created.
type Payload struct {
	Details         Details
	Title           string
	Description     string
	StartTime       string
	EndTime         string
	LocationDetails string
	SurveyURL       string
}

// Type returns the category selected by Details.
func (p Payload) Type() backend.ActivityType {
	return p.Details.Type()
}

// MarshalJSON writes the backend's create body. company_id and
// linked_activity_id are present only when Details supplies them.
func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Patch())
}

// Patch converts the payload into a full update body for an existing
// activity.
func (p Payload) Patch() Patch {
	typ := p.Type()
	company, linked := p.Details.refs()
	return Patch{
		Type:             &typ,
		Title:            &p.Title,
		Description:      &p.Description,
		StartTime:        &p.StartTime,
		EndTime:          &p.EndTime,
		LocationDetails:  &p.LocationDetails,
		SurveyURL:        &p.SurveyURL,
		CompanyID:        company,
		LinkedActivityID: linked,
	}
}

// Patch is a partial update. Nil fields are omitted from the request body
// and left unchanged by the backend.
type Patch struct {
	Type             *backend.ActivityType `json:"type,omitempty"`
	Title            *string               `json:"title,omitempty"`
	Description      *string               `json:"description,omitempty"`
	StartTime        *string               `json:"start_time,omitempty"`
	EndTime          *string               `json:"end_time,omitempty"`
	LocationDetails  *string               `json:"location_details,omitempty"`
	SurveyURL        *string               `json:"survey_url,omitempty"`
	CompanyID        *int64                `json:"company_id,omitempty"`
	LinkedActivityID *int64                `json:"linked_activity_id,omitempty"`
}

// Keys lists the JSON keys the patch will send, in field order.
func (p Patch) Keys() []string {
	var keys []string
	add := func(set bool, key string) {
		if set {
			keys = append(keys, key)
		}
	}
	add(p.Type != nil, "type")
	add(p.Title != nil, "title")
	add(p.Description != nil, "description")
	add(p.StartTime != nil, "start_time")
	add(p.EndTime != nil, "end_time")
	add(p.LocationDetails != nil, "location_details")
	add(p.SurveyURL != nil, "survey_url")
	add(p.CompanyID != nil, "company_id")
	add(p.LinkedActivityID != nil, "linked_activity_id")
	return keys
}

// Bounds is the window a tour's activities must fall in: from midnight JST
// of the first tour day up to midnight JST after the last one.
type Bounds struct {
	Start time.Time
	End   time.Time
}

// BoundsForTour builds the bounds from a tour's start and end dates, which
// may be plain dates or instants.
func BoundsForTour(startDate, endDate string) (Bounds, error) {
	first, err := jst.CalendarDate(startDate)
	if err != nil {
		return Bounds{}, fmt.Errorf("tour start date: %w", err)
	}
	last, err := jst.CalendarDate(endDate)
	if err != nil {
		return Bounds{}, fmt.Errorf("tour end date: %w", err)
	}
	lo, err := jst.StartOfDay(first)
	if err != nil {
		return Bounds{}, err
	}
	hi, err := jst.StartOfDay(last)
	if err != nil {
		return Bounds{}, err
	}
	hi = hi.AddDate(0, 0, 1)
	if !lo.Before(hi) {
		return Bounds{}, fmt.Errorf("tour ends (%s) before it starts (%s)", last, first)
	}
	return Bounds{Start: lo, End: hi}, nil
}

// IsZero reports whether no bounds were set, in which case any time is
// accepted.
func (b Bounds) IsZero() bool {
	return b.Start.IsZero() && b.End.IsZero()
}

// Admits reports whether the span [start, end] lies inside the bounds.
func (b Bounds) Admits(start, end time.Time) bool {
	if b.IsZero() {
		return true
	}
	return !start.Before(b.Start) && start.Before(b.End) &&
		end.After(b.Start) && !end.After(b.End)
}

// String renders the bounds as the inclusive JST date range.
func (b Bounds) String() string {
	last := b.End.AddDate(0, 0, -1)
	return b.Start.In(jst.Location).Format("Jan 2, 2006") + " to " + last.In(jst.Location).Format("Jan 2, 2006")
}

// Span is an activity's position on the calendar in wire format.
type Span struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SpanOf returns the activity's stored position.
func SpanOf(a Activity) Span {
	return Span{Start: a.StartTime, End: a.EndTime}
}

// --- Errors ---

// ValidationError lists the local problems that blocked a submit. The
// network is never contacted when one is returned.
type ValidationError struct {
	Problems []apperror.FieldProblem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Field + ": " + p.Message
	}
	return "invalid activity: " + strings.Join(msgs, "; ")
}

// Has reports whether field has a problem.
func (e *ValidationError) Has(field string) bool {
	for _, p := range e.Problems {
		if p.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field, message string) {
	e.Problems = append(e.Problems, apperror.FieldProblem{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// PersistenceError is a failed call to the activity backend.
type PersistenceError struct {
	Op         string
	ActivityID int64
	Err        error
}

func (e *PersistenceError) Error() string {
	if e.ActivityID != 0 {
		return fmt.Sprintf("%s activity %d: %v", e.Op, e.ActivityID, e.Err)
	}
	return fmt.Sprintf("%s activity: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Controller transition errors.
var (
	ErrSubmitInFlight    = errors.New("a save is already in progress")
	ErrInvalidTransition = errors.New("action not allowed in the current state")
	ErrActivityNotFound  = errors.New("activity not found in this tour")
	ErrNothingToDelete   = errors.New("only saved activities can be deleted")
	ErrNotConfirmed      = errors.New("deletion was not confirmed")
)
