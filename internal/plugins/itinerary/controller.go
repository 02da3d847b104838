package itinerary

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tourbench/console/internal/apperror"
	"github.com/tourbench/console/internal/backend"
	"github.com/tourbench/console/internal/jst"
)

// Collaborator persists activities of one tour. The controller never talks
// to the network itself and never assumes a call succeeded before it
// returns.
type Collaborator interface {
	List(ctx context.Context) ([]Activity, error)
	Create(ctx context.Context, p Payload) (*Activity, error)
	Update(ctx context.Context, id int64, p Patch) (*Activity, error)
	Delete(ctx context.Context, id int64) error
}

// State is the editing session's position in the controller state machine.
type State string

const (
	Idle         State = "idle"
	Selecting    State = "selecting"
	EditingDraft State = "editing"
	Submitting   State = "submitting"
	Reverting    State = "reverting"
)

// Draft is the dialog's working copy. It is created by a range selection or
// an event click and destroyed by a successful submit, a delete, or cancel.
type Draft struct {
	// ActivityID is the activity being edited; 0 means a new activity.
	ActivityID int64 `json:"activity_id,omitempty"`
	Form       Form  `json:"form"`

	// Problems are the field errors of the last rejected submit.
	Problems []apperror.FieldProblem `json:"problems,omitempty"`

	// Error is the dialog-level message of the last failed save.
	Error string `json:"error,omitempty"`
}

// IsNew reports whether the draft has no saved activity behind it.
func (d Draft) IsNew() bool {
	return d.ActivityID == 0
}

// ProblemFor returns the message for field, if any.
func (d Draft) ProblemFor(field string) string {
	for _, p := range d.Problems {
		if p.Field == field {
			return p.Message
		}
	}
	return ""
}

// Options is what the page supplies: the tour's window, its companies, and
// the activity list as last fetched from the backend.
type Options struct {
	TourID     int64
	Bounds     Bounds
	Companies  []backend.Company
	Activities []Activity
}

// Controller runs one editing session of one tour's itinerary. It is owned
// by a single session and is not safe for concurrent use.
//
// The activity list is never edited locally. It is replaced wholesale from
// the collaborator after every successful write; until then drag and resize
// are shown through provisional placements that are reverted if the
// backend rejects them.
type Controller struct {
	collab     Collaborator
	opts       Options
	state      State
	draft      *Draft
	placements placements
}

// NewController starts an idle session.
func NewController(collab Collaborator, opts Options) *Controller {
	return &Controller{
		collab:     collab,
		opts:       opts,
		state:      Idle,
		placements: placements{},
	}
}

func (c *Controller) State() State {
	return c.state
}

// Draft returns the current draft, if the dialog is open.
func (c *Controller) Draft() (Draft, bool) {
	if c.draft == nil {
		return Draft{}, false
	}
	return *c.draft, true
}

// Activities returns the list as last fetched.
func (c *Controller) Activities() []Activity {
	return c.opts.Activities
}

// Scope returns what the current draft is validated against.
func (c *Controller) Scope() Scope {
	s := Scope{
		Bounds:     c.opts.Bounds,
		Companies:  c.opts.Companies,
		Activities: c.opts.Activities,
	}
	if c.draft != nil {
		s.EditingID = c.draft.ActivityID
	}
	return s
}

// BeginSelection marks the start of a drag-to-select on the grid.
func (c *Controller) BeginSelection() error {
	if c.state != Idle {
		return c.transitionError()
	}
	c.state = Selecting
	return nil
}

// SelectRange opens a new draft for a range picked on the grid. start and
// end are the calendar's naive wall-clock times, read as JST. The returned
// clearSelection is always true: the grid's highlight is transient and is
// removed whatever happens to the draft.
func (c *Controller) SelectRange(start, end time.Time) (clearSelection bool, err error) {
	if c.state != Idle && c.state != Selecting {
		return true, c.transitionError()
	}
	c.draft = &Draft{Form: NewForm(jst.JSTDateToUTC(start), jst.JSTDateToUTC(end))}
	c.state = EditingDraft
	return true, nil
}

// OpenActivity opens the dialog for an existing activity.
func (c *Controller) OpenActivity(id int64) error {
	if c.state != Idle {
		return c.transitionError()
	}
	a, ok := c.find(id)
	if !ok {
		return ErrActivityNotFound
	}
	c.draft = &Draft{ActivityID: a.ID, Form: FormFromActivity(a)}
	c.state = EditingDraft
	return nil
}

// EditDraft applies fn to the open draft's form.
func (c *Controller) EditDraft(fn func(*Form)) error {
	if err := c.requireEditing(); err != nil {
		return err
	}
	fn(&c.draft.Form)
	return nil
}

// Submit validates the draft and creates or updates the activity. A
// validation failure leaves the dialog open without contacting the backend;
// a backend failure leaves it open with the draft intact. On success the
// draft is discarded and the activity list refetched.
func (c *Controller) Submit(ctx context.Context) error {
	if err := c.requireEditing(); err != nil {
		return err
	}
	d := c.draft

	payload, err := d.Form.Payload(c.Scope())
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			d.Problems = verr.Problems
			d.Error = ""
		}
		return err
	}
	d.Problems = nil

	c.state = Submitting
	op := "create"
	if d.IsNew() {
		_, err = c.collab.Create(ctx, payload)
	} else {
		op = "update"
		_, err = c.collab.Update(ctx, d.ActivityID, payload.Patch())
	}
	if err != nil {
		c.state = EditingDraft
		d.Error = failureMessage("save", err)
		return &PersistenceError{Op: op, ActivityID: d.ActivityID, Err: err}
	}

	c.draft = nil
	c.state = Idle
	return c.refresh(ctx)
}

// Delete removes the activity behind the open draft. It is only offered
// for saved activities and needs the operator's confirmation.
func (c *Controller) Delete(ctx context.Context, confirmed bool) error {
	if err := c.requireEditing(); err != nil {
		return err
	}
	d := c.draft
	if d.IsNew() {
		return ErrNothingToDelete
	}
	if !confirmed {
		return ErrNotConfirmed
	}

	c.state = Submitting
	if err := c.collab.Delete(ctx, d.ActivityID); err != nil {
		c.state = EditingDraft
		d.Error = failureMessage("delete", err)
		return &PersistenceError{Op: "delete", ActivityID: d.ActivityID, Err: err}
	}

	c.draft = nil
	c.state = Idle
	return c.refresh(ctx)
}

// Cancel closes the dialog and throws the draft away. Cancelling an
// in-progress selection returns to idle as well.
func (c *Controller) Cancel() error {
	switch c.state {
	case Submitting, Reverting:
		return ErrSubmitInFlight
	case EditingDraft, Selecting:
		c.draft = nil
		c.state = Idle
	}
	return nil
}

// Move reschedules an activity dragged to a new slot. start and end are
// the calendar's wall-clock times, read as JST. The returned span is where
// the calendar must draw the activity: the backend's position on success,
// the pre-drag position on any failure.
func (c *Controller) Move(ctx context.Context, id int64, start, end time.Time) (Span, error) {
	return c.reschedule(ctx, id, &start, end)
}

// Resize changes only the end of an activity.
func (c *Controller) Resize(ctx context.Context, id int64, end time.Time) (Span, error) {
	return c.reschedule(ctx, id, nil, end)
}

func (c *Controller) reschedule(ctx context.Context, id int64, start *time.Time, end time.Time) (Span, error) {
	switch c.state {
	case Idle:
	case Submitting, Reverting:
		return Span{}, ErrSubmitInFlight
	default:
		return Span{}, c.transitionError()
	}

	a, ok := c.find(id)
	if !ok {
		return Span{}, ErrActivityNotFound
	}
	prior, _ := c.placements.position(a)
	priorStart, err := jst.ParseUTC(prior.Start)
	if err != nil {
		return prior, err
	}
	priorEnd, err := jst.ParseUTC(prior.End)
	if err != nil {
		return prior, err
	}

	// Only fields that actually changed go into the update.
	var patch Patch
	next, newStart, newEnd := prior, priorStart, priorEnd
	if start != nil {
		s := jst.JSTDateToUTC(*start)
		if t, _ := jst.ParseUTC(s); !t.Equal(priorStart) {
			next.Start, newStart, patch.StartTime = s, t, &s
		}
	}
	e := jst.JSTDateToUTC(end)
	if t, _ := jst.ParseUTC(e); !t.Equal(priorEnd) {
		next.End, newEnd, patch.EndTime = e, t, &e
	}
	if patch.StartTime == nil && patch.EndTime == nil {
		return prior, nil
	}

	verr := &ValidationError{}
	if !newStart.Before(newEnd) {
		verr.add(FieldEndTime, "End time must be after start time")
	} else if !c.opts.Bounds.Admits(newStart, newEnd) {
		verr.add(FieldStartTime, "Must fall within the tour dates ("+c.opts.Bounds.String()+")")
	}
	if err := verr.orNil(); err != nil {
		return prior, err
	}

	c.placements.put(Apply(id, prior, next))
	c.state = Submitting

	updated, err := c.collab.Update(ctx, id, patch)
	if err != nil {
		c.state = Reverting
		reverted := c.placements[id].Reject()
		if reverted.Settled() {
			delete(c.placements, id)
		}
		c.state = Idle
		return prior, &PersistenceError{Op: "update", ActivityID: id, Err: err}
	}

	authoritative := next
	if updated != nil && updated.StartTime != "" && updated.EndTime != "" {
		authoritative = SpanOf(*updated)
	}
	c.placements.put(c.placements[id].Confirm(authoritative))
	c.state = Idle

	return authoritative, c.refresh(ctx)
}

// Event is one calendar entry, with times as JST wall clock.
type Event struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Start           string     `json:"start"`
	End             string     `json:"end"`
	BackgroundColor string     `json:"backgroundColor"`
	BorderColor     string     `json:"borderColor"`
	ExtendedProps   EventProps `json:"extendedProps"`
}

// EventProps carries what the event renderer needs beyond position.
type EventProps struct {
	Type            backend.ActivityType `json:"type"`
	Icon            string               `json:"icon"`
	Label           string               `json:"label"`
	CompanyName     string               `json:"company_name,omitempty"`
	LocationDetails string               `json:"location_details,omitempty"`
	Provisional     bool                 `json:"provisional,omitempty"`
}

// Events renders the activity list for the calendar, with any in-flight
// placements applied. A malformed timestamp fails the whole feed.
func (c *Controller) Events() ([]Event, error) {
	events := make([]Event, 0, len(c.opts.Activities))
	for _, a := range c.opts.Activities {
		span, provisional := c.placements.position(a)
		start, err := jst.UTCToJSTString(span.Start)
		if err != nil {
			return nil, fmt.Errorf("activity %d start: %w", a.ID, err)
		}
		end, err := jst.UTCToJSTString(span.End)
		if err != nil {
			return nil, fmt.Errorf("activity %d end: %w", a.ID, err)
		}
		look := AppearanceOf(a.Type)
		events = append(events, Event{
			ID:              strconv.FormatInt(a.ID, 10),
			Title:           a.Title,
			Start:           start,
			End:             end,
			BackgroundColor: look.Color,
			BorderColor:     look.Color,
			ExtendedProps: EventProps{
				Type:            a.Type,
				Icon:            look.Icon,
				Label:           look.Label,
				CompanyName:     a.CompanyName,
				LocationDetails: a.LocationDetails,
				Provisional:     provisional,
			},
		})
	}
	return events, nil
}

// Snapshot is the part of a session that outlives one request. The
// activity list is not included; it is refetched on restore.
type Snapshot struct {
	State State  `json:"state"`
	Draft *Draft `json:"draft,omitempty"`
}

// Snapshot captures the session.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{State: c.state}
	if c.draft != nil {
		d := *c.draft
		s.Draft = &d
	}
	return s
}

// Restore rebuilds a session from a snapshot and a freshly fetched list.
// A snapshot taken mid-save, which only a crashed request leaves behind,
// resumes as if the save had failed.
func Restore(collab Collaborator, opts Options, snap Snapshot) *Controller {
	c := NewController(collab, opts)
	c.draft = snap.Draft
	switch snap.State {
	case Selecting:
		c.state = Selecting
	case EditingDraft, Submitting:
		if c.draft != nil {
			c.state = EditingDraft
		}
	}
	if c.state != EditingDraft {
		c.draft = nil
	}
	return c
}

func (c *Controller) refresh(ctx context.Context) error {
	list, err := c.collab.List(ctx)
	if err != nil {
		return &PersistenceError{Op: "refresh", Err: err}
	}
	c.opts.Activities = list
	c.placements.settle()
	return nil
}

func (c *Controller) find(id int64) (Activity, bool) {
	for _, a := range c.opts.Activities {
		if a.ID == id {
			return a, true
		}
	}
	return Activity{}, false
}

func (c *Controller) requireEditing() error {
	switch c.state {
	case EditingDraft:
		return nil
	case Submitting, Reverting:
		return ErrSubmitInFlight
	}
	return c.transitionError()
}

func (c *Controller) transitionError() error {
	return fmt.Errorf("%w (state %s)", ErrInvalidTransition, c.state)
}

// failureMessage turns a collaborator error into the dialog's message,
// preferring the backend's own explanation when it sent one.
func failureMessage(action string, err error) string {
	var bErr *backend.Error
	if errors.As(err, &bErr) && bErr.Detail() != "" {
		return fmt.Sprintf("Failed to %s activity: %s", action, bErr.Detail())
	}
	return fmt.Sprintf("Failed to %s activity. Please try again.", action)
}
