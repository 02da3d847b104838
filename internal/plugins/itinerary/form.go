package itinerary

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tourbench/console/internal/backend"
	"github.com/tourbench/console/internal/jst"
)

// Form field names, shared by validation problems and the dialog markup.
const (
	FieldType             = "type"
	FieldTitle            = "title"
	FieldDescription      = "description"
	FieldStartTime        = "start_time"
	FieldEndTime          = "end_time"
	FieldLocationDetails  = "location_details"
	FieldCompanyID        = "company_id"
	FieldSurveyURL        = "survey_url"
	FieldLinkedActivityID = "linked_activity_id"
)

// Form is the activity dialog's field set, kept as strings exactly as the
// inputs hold them. StartTime and EndTime are UTC wire instants; the dialog
// converts them to JST datetime-local values for display.
type Form struct {
	Type             string `json:"type" form:"type"`
	Title            string `json:"title" form:"title"`
	Description      string `json:"description" form:"description"`
	StartTime        string `json:"start_time" form:"start_time"`
	EndTime          string `json:"end_time" form:"end_time"`
	LocationDetails  string `json:"location_details" form:"location_details"`
	CompanyID        string `json:"company_id" form:"company_id"`
	SurveyURL        string `json:"survey_url" form:"survey_url"`
	LinkedActivityID string `json:"linked_activity_id" form:"linked_activity_id"`
}

// NewForm returns an empty form for a freshly selected range.
func NewForm(startUTC, endUTC string) Form {
	return Form{StartTime: startUTC, EndTime: endUTC}
}

// FormFromActivity fills the form from a saved activity. Missing ids become
// empty strings, which the selectors show as "none".
func FormFromActivity(a Activity) Form {
	return Form{
		Type:             string(a.Type),
		Title:            a.Title,
		Description:      a.Description,
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		LocationDetails:  a.LocationDetails,
		CompanyID:        formatID(a.CompanyID),
		SurveyURL:        a.SurveyURL,
		LinkedActivityID: formatID(a.LinkedActivityID),
	}
}

func formatID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// SetType switches the category and clears fields the new category does
// not use, so a stale company or link is never submitted.
func (f *Form) SetType(t backend.ActivityType) {
	f.Type = string(t)
	if t != backend.ActivityCompanyVisit {
		f.CompanyID = ""
	}
	if t != backend.ActivityDiscussion {
		f.LinkedActivityID = ""
	}
}

// Scope is what the form is validated against: the tour window, the
// companies that can be visited, and the tour's other activities.
type Scope struct {
	Bounds     Bounds
	Companies  []backend.Company
	Activities []Activity

	// EditingID is the activity being edited, or 0 for a new one.
	EditingID int64
}

// Payload validates the form and builds the request body. Every problem is
// reported at once in a *ValidationError.
func (f Form) Payload(s Scope) (Payload, error) {
	verr := &ValidationError{}

	typ := backend.ActivityType(f.Type)
	switch {
	case f.Type == "":
		verr.add(FieldType, "Type is required")
	case !typ.Known():
		verr.add(FieldType, "Unknown activity type")
	}

	title := strings.TrimSpace(f.Title)
	if title == "" {
		verr.add(FieldTitle, "Title is required")
	}

	start, startOK := parseFormTime(verr, FieldStartTime, "Start time", f.StartTime)
	end, endOK := parseFormTime(verr, FieldEndTime, "End time", f.EndTime)
	if startOK && endOK {
		if !start.Before(end) {
			verr.add(FieldEndTime, "End time must be after start time")
		} else if !s.Bounds.Admits(start, end) {
			msg := "Must fall within the tour dates (" + s.Bounds.String() + ")"
			if start.Before(s.Bounds.Start) || !start.Before(s.Bounds.End) {
				verr.add(FieldStartTime, msg)
			}
			if end.After(s.Bounds.End) || !end.After(s.Bounds.Start) {
				verr.add(FieldEndTime, msg)
			}
		}
	}

	if f.SurveyURL != "" {
		u, err := url.Parse(f.SurveyURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			verr.add(FieldSurveyURL, "Survey URL must be an http or https link")
		}
	}

	var details Details
	switch typ {
	case backend.ActivityCompanyVisit:
		details = f.companyVisit(verr, s.Companies)
	case backend.ActivityDiscussion:
		details = f.discussion(verr, s)
	case backend.ActivityHotel:
		details = Hotel{}
	case backend.ActivityRestaurant:
		details = Restaurant{}
	case backend.ActivityTravel:
		details = Travel{}
	}

	if err := verr.orNil(); err != nil {
		return Payload{}, err
	}
	return Payload{
		Details:         details,
		Title:           title,
		Description:     f.Description,
		StartTime:       jst.FormatUTC(start),
		EndTime:         jst.FormatUTC(end),
		LocationDetails: f.LocationDetails,
		SurveyURL:       f.SurveyURL,
	}, nil
}

func parseFormTime(verr *ValidationError, field, label, v string) (t time.Time, ok bool) {
	if v == "" {
		verr.add(field, label+" is required")
		return t, false
	}
	t, err := jst.ParseUTC(v)
	if err != nil {
		verr.add(field, label+" is not a valid time")
		return t, false
	}
	return t, true
}

func (f Form) companyVisit(verr *ValidationError, companies []backend.Company) Details {
	if f.CompanyID == "" {
		verr.add(FieldCompanyID, "Company is required for a company visit")
		return nil
	}
	id, err := strconv.ParseInt(f.CompanyID, 10, 64)
	if err != nil {
		verr.add(FieldCompanyID, "Company is not valid")
		return nil
	}
	if !slices.ContainsFunc(companies, func(c backend.Company) bool { return c.ID == id }) {
		verr.add(FieldCompanyID, "Company does not exist")
		return nil
	}
	return CompanyVisit{CompanyID: id}
}

func (f Form) discussion(verr *ValidationError, s Scope) Details {
	if f.LinkedActivityID == "" {
		return Discussion{}
	}
	id, err := strconv.ParseInt(f.LinkedActivityID, 10, 64)
	if err != nil {
		verr.add(FieldLinkedActivityID, "Linked activity is not valid")
		return nil
	}
	targets := LinkTargets(s.Activities, s.EditingID)
	if !slices.ContainsFunc(targets, func(a Activity) bool { return a.ID == id }) {
		verr.add(FieldLinkedActivityID, "Linked activity must be another company visit in this tour")
		return nil
	}
	return Discussion{LinkedActivityID: &id}
}

// LinkTargets returns the activities a discussion may be linked to: the
// tour's company visits, never the activity being edited.
func LinkTargets(activities []Activity, editingID int64) []Activity {
	var out []Activity
	for _, a := range activities {
		if a.Type != backend.ActivityCompanyVisit {
			continue
		}
		if editingID != 0 && a.ID == editingID {
			continue
		}
		out = append(out, a)
	}
	return out
}

// FieldSpec describes one dialog field for the current category.
type FieldSpec struct {
	Name     string
	Label    string
	Input    string
	Required bool
}

// Fields lists the dialog fields shown for category t, in display order.
// The company selector only appears for company visits and the link
// selector only for discussions.
func Fields(t backend.ActivityType) []FieldSpec {
	fields := []FieldSpec{
		{Name: FieldType, Label: "Activity Type", Input: "select", Required: true},
		{Name: FieldTitle, Label: "Title", Input: "text", Required: true},
	}
	switch t {
	case backend.ActivityCompanyVisit:
		fields = append(fields, FieldSpec{Name: FieldCompanyID, Label: "Company", Input: "select", Required: true})
	case backend.ActivityDiscussion:
		fields = append(fields, FieldSpec{Name: FieldLinkedActivityID, Label: "Linked Company Visit", Input: "select"})
	}
	return append(fields,
		FieldSpec{Name: FieldStartTime, Label: "Start Time (JST)", Input: "datetime-local", Required: true},
		FieldSpec{Name: FieldEndTime, Label: "End Time (JST)", Input: "datetime-local", Required: true},
		FieldSpec{Name: FieldLocationDetails, Label: "Location Details", Input: "text"},
		FieldSpec{Name: FieldDescription, Label: "Description", Input: "textarea"},
		FieldSpec{Name: FieldSurveyURL, Label: "Survey URL", Input: "url"},
	)
}
