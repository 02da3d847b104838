package itinerary

// PlacementState tracks a drag or resize from the moment the calendar shows
// it until the backend has answered.
type PlacementState string

const (
	// PlacementApplied: moved on the calendar, update not yet answered.
	PlacementApplied PlacementState = "applied"
	// PlacementConfirmed: the backend accepted the move; Shown holds the
	// position it returned.
	PlacementConfirmed PlacementState = "confirmed"
	// PlacementReverting: the backend rejected the move; Shown is back at
	// Prior and the entry is dropped once settled.
	PlacementReverting PlacementState = "reverting"
)

// Placement is a provisional calendar position for one activity. The
// backend stays authoritative: a placement only overrides what the calendar
// draws until the activity list is refreshed.
type Placement struct {
	ActivityID int64          `json:"activity_id"`
	State      PlacementState `json:"state"`
	Prior      Span           `json:"prior"`
	Shown      Span           `json:"shown"`
}

// Apply starts a placement: the activity is drawn at next immediately.
func Apply(id int64, prior, next Span) Placement {
	return Placement{ActivityID: id, State: PlacementApplied, Prior: prior, Shown: next}
}

// Confirm records the backend's accepted position. Only an applied
// placement can be confirmed.
func (p Placement) Confirm(authoritative Span) Placement {
	if p.State != PlacementApplied {
		return p
	}
	p.State = PlacementConfirmed
	p.Shown = authoritative
	return p
}

// Reject puts the activity back where it was before the drag.
func (p Placement) Reject() Placement {
	if p.State != PlacementApplied {
		return p
	}
	p.State = PlacementReverting
	p.Shown = p.Prior
	return p
}

// Settled reports whether the placement no longer needs to override the
// activity list: a reverted move leaves nothing behind, and a confirmed one
// is superseded by the refreshed list.
func (p Placement) Settled() bool {
	return p.State == PlacementReverting || p.State == PlacementConfirmed
}

// placements holds at most one placement per activity.
type placements map[int64]Placement

func (ps placements) put(p Placement) {
	ps[p.ActivityID] = p
}

// position returns where the calendar should draw a.
func (ps placements) position(a Activity) (Span, bool) {
	if p, ok := ps[a.ID]; ok {
		return p.Shown, p.State == PlacementApplied
	}
	return SpanOf(a), false
}

// settle drops every placement that no longer overrides the list.
func (ps placements) settle() {
	for id, p := range ps {
		if p.Settled() {
			delete(ps, id)
		}
	}
}
