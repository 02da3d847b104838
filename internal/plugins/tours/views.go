package tours

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/tourbench/console/internal/apperror"
	"github.com/tourbench/console/internal/backend"
	"github.com/tourbench/console/internal/jst"
	"github.com/tourbench/console/internal/sanitize"
	"github.com/tourbench/console/internal/templates/layouts"
)

// statusColors are the badge colors per tour status.
var statusColors = map[backend.TourStatus]string{
	backend.TourDraft:     "#CA8A04",
	backend.TourPending:   "#2563EB",
	backend.TourCompleted: "#16A34A",
}

type tourRow struct {
	ID          int64
	Name        string
	Summary     string
	Dates       string
	Status      backend.TourStatus
	StatusColor string
	Updated     string
}

func newTourRows(tours []backend.Tour) []tourRow {
	rows := make([]tourRow, 0, len(tours))
	for _, t := range tours {
		color, ok := statusColors[t.Status]
		if !ok {
			color = "#6B7280"
		}
		rows = append(rows, tourRow{
			ID:          t.ID,
			Name:        t.Name,
			Summary:     summarize(sanitize.PlainText(t.Description)),
			Dates:       dateRange(t.StartDate, t.EndDate),
			Status:      t.Status,
			StatusColor: color,
			Updated:     listDate(t.UpdatedAt),
		})
	}
	return rows
}

// summarize keeps the first summaryRunes of a description.
func summarize(s string) string {
	r := []rune(s)
	if len(r) <= summaryRunes {
		return s
	}
	return strings.TrimSpace(string(r[:summaryRunes])) + "…"
}

const summaryRunes = 140

// dateRange renders "Apr 1, 2025 – Apr 5, 2025" in JST. Dates the
// backend sent in an unknown shape are shown as received.
func dateRange(start, end string) string {
	return displayDate(start) + " – " + displayDate(end)
}

func displayDate(s string) string {
	d, err := jst.CalendarDate(s)
	if err != nil {
		return s
	}
	t, err := time.ParseInLocation("2006-01-02", d, jst.Location)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// listDate renders a timestamp for a table cell, or nothing when the
// backend omitted it.
func listDate(utc string) string {
	s, err := jst.FormatDateJST(utc)
	if err != nil {
		return ""
	}
	return s
}

// TourListPage renders every tour with links to its itinerary.
func TourListPage(tours []backend.Tour) templ.Component {
	return layouts.Page("Tours", layouts.Template(views, "list", newTourRows(tours)))
}

type formView struct {
	CSRFToken string
	Heading   string
	Action    string
	Submit    string
	Form      TourForm
	Errors    map[string]string
	Statuses  []backend.TourStatus
	Updated   string

	problems []apperror.FieldProblem
}

func newFormView(csrfToken string, f TourForm, problems []apperror.FieldProblem) formView {
	v := formView{
		CSRFToken: csrfToken,
		Heading:   "New Tour",
		Action:    "/tours",
		Submit:    "Create",
		Form:      f,
		Errors:    make(map[string]string, len(problems)),
		Statuses:  Statuses,
		problems:  problems,
	}
	for _, p := range problems {
		if _, ok := v.Errors[p.Field]; !ok {
			v.Errors[p.Field] = p.Message
		}
	}
	return v
}

// editing points the form at an existing tour.
func (v formView) editing(t backend.Tour) formView {
	v.Heading = "Edit Tour"
	v.Action = fmt.Sprintf("/tours/%d", t.ID)
	v.Submit = "Update"
	if s, err := jst.FormatJSTWithLabel(t.UpdatedAt); err == nil {
		v.Updated = s
	}
	return v
}

// TourFormPage renders the tour editor.
func TourFormPage(v formView) templ.Component {
	return layouts.Page(v.Heading, layouts.Template(views, "form", v))
}

var views = template.Must(template.New("tours").Parse(`
{{define "list"}}<section class="tours">
  <header class="page-head"><h1>Tours</h1><a class="button primary" href="/tours/new">New tour</a></header>
  {{if not .}}<p class="empty">No tours yet.</p>{{else}}
  <table class="tour-table">
    <thead><tr><th>Name</th><th>Dates (JST)</th><th>Status</th><th>Updated</th><th></th></tr></thead>
    <tbody>{{range .}}
      <tr>
        <td><a href="/tours/{{.ID}}/itinerary">{{.Name}}</a>{{if .Summary}}<p class="summary">{{.Summary}}</p>{{end}}</td>
        <td>{{.Dates}}</td>
        <td><span class="badge" style="background: {{.StatusColor}}">{{.Status}}</span></td>
        <td>{{.Updated}}</td>
        <td class="actions">
          <a href="/tours/{{.ID}}/itinerary">Itinerary</a>
          <a href="/tours/{{.ID}}/edit">Edit</a>
          <a href="/tours/{{.ID}}/participants.csv">Participants .csv</a>
          <button type="button" class="danger" hx-post="/tours/{{.ID}}/delete"
                  hx-confirm="Delete this tour and its itinerary?">Delete</button>
        </td>
      </tr>{{end}}
    </tbody>
  </table>{{end}}
</section>{{end}}

{{define "form"}}<section class="tour-form">
  <h1>{{.Heading}}</h1>
  {{if .Updated}}<p class="hint">Last updated {{.Updated}}</p>{{end}}
  <form method="post" action="{{.Action}}">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
    <label for="name">Tour Name *</label>
    <input id="name" name="name" value="{{.Form.Name}}" required>
    {{with index .Errors "name"}}<p class="field-error">{{.}}</p>{{end}}
    <label for="description">Description</label>
    <textarea id="description" name="description" rows="4">{{.Form.Description}}</textarea>
    <div class="row">
      <div>
        <label for="start_date">Start Date (JST) *</label>
        <input id="start_date" type="date" name="start_date" value="{{.Form.StartDate}}" required>
        {{with index .Errors "start_date"}}<p class="field-error">{{.}}</p>{{end}}
      </div>
      <div>
        <label for="end_date">End Date (JST) *</label>
        <input id="end_date" type="date" name="end_date" value="{{.Form.EndDate}}" min="{{.Form.StartDate}}" required>
        {{with index .Errors "end_date"}}<p class="field-error">{{.}}</p>{{end}}
      </div>
    </div>
    <label for="status">Status</label>
    <select id="status" name="status">{{$current := .Form.Status}}{{range .Statuses}}
      <option value="{{.}}"{{if eq (print .) $current}} selected{{end}}>{{.}}</option>{{end}}
    </select>
    {{with index .Errors "status"}}<p class="field-error">{{.}}</p>{{end}}
    <label for="survey_url">Survey URL</label>
    <input id="survey_url" type="url" name="survey_url" value="{{.Form.SurveyURL}}">
    {{with index .Errors "survey_url"}}<p class="field-error">{{.}}</p>{{end}}
    <div class="actions">
      <a href="/tours">Cancel</a>
      <button type="submit" class="primary">{{.Submit}}</button>
    </div>
  </form>
</section>{{end}}
`))
