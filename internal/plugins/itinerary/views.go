package itinerary

import (
	"fmt"
	"html/template"
	"strconv"

	"github.com/a-h/templ"

	"github.com/tourbench/console/internal/backend"
	"github.com/tourbench/console/internal/jst"
	"github.com/tourbench/console/internal/sanitize"
	"github.com/tourbench/console/internal/templates/layouts"
)

// Calendar grid settings.
const (
	slotMinTime  = "06:00:00"
	slotMaxTime  = "24:00:00"
	slotDuration = "00:30:00"
)

// --- View models ---

type option struct {
	Value    string
	Label    string
	Selected bool
}

type fieldView struct {
	FieldSpec
	Value   string
	Problem string
	Options []option
}

type dialogView struct {
	Base    string
	Open    bool
	IsNew   bool
	Heading string
	Color   string
	Error   string
	Fields  []fieldView
	Preview template.HTML
}

type agendaItem struct {
	Time        string
	Title       string
	Label       string
	Color       string
	Company     string
	Location    string
	SurveyURL   string
	Description template.HTML
}

type agendaDay struct {
	Date  string
	Items []agendaItem
}

type pageView struct {
	Base        string
	Tour        backend.Tour
	Bounds      string
	ValidStart  string
	ValidEnd    string
	SlotMin     string
	SlotMax     string
	SlotStep    string
	Legend      []Appearance
	Agenda      []agendaDay
	Dialog      dialogView
	Description template.HTML
}

func basePath(tourID int64) string {
	return fmt.Sprintf("/tours/%d/itinerary", tourID)
}

// localValue shows a wire instant in a datetime-local input. Values that
// do not parse are shown as typed so the operator can correct them.
func localValue(utc string) string {
	if utc == "" {
		return ""
	}
	v, err := jst.ToDateTimeLocalValue(utc)
	if err != nil {
		return utc
	}
	return v
}

func newDialogView(ws *Workspace) dialogView {
	v := dialogView{Base: basePath(ws.Tour.ID)}
	d, ok := ws.Controller.Draft()
	if !ok {
		return v
	}
	f := d.Form
	look := AppearanceOf(backend.ActivityType(f.Type))

	v.Open = true
	v.IsNew = d.IsNew()
	v.Heading = "Edit Activity"
	if v.IsNew {
		v.Heading = "New Activity"
	}
	v.Color = look.Color
	v.Error = d.Error
	v.Preview = template.HTML(sanitize.Markdown(f.Description))

	values := map[string]string{
		FieldType:             f.Type,
		FieldTitle:            f.Title,
		FieldDescription:      f.Description,
		FieldStartTime:        localValue(f.StartTime),
		FieldEndTime:          localValue(f.EndTime),
		FieldLocationDetails:  f.LocationDetails,
		FieldCompanyID:        f.CompanyID,
		FieldSurveyURL:        f.SurveyURL,
		FieldLinkedActivityID: f.LinkedActivityID,
	}

	for _, spec := range Fields(backend.ActivityType(f.Type)) {
		fv := fieldView{FieldSpec: spec, Value: values[spec.Name], Problem: d.ProblemFor(spec.Name)}
		switch spec.Name {
		case FieldType:
			fv.Options = append(fv.Options, option{Value: "", Label: "Select a type"})
			for _, t := range backend.ActivityTypes {
				fv.Options = append(fv.Options, option{
					Value: string(t), Label: AppearanceOf(t).Label, Selected: string(t) == f.Type,
				})
			}
		case FieldCompanyID:
			fv.Options = append(fv.Options, option{Value: "", Label: "Select a company"})
			for _, c := range ws.Companies {
				id := strconv.FormatInt(c.ID, 10)
				fv.Options = append(fv.Options, option{Value: id, Label: c.Name, Selected: id == f.CompanyID})
			}
		case FieldLinkedActivityID:
			fv.Options = append(fv.Options, option{Value: "", Label: "None"})
			for _, a := range LinkTargets(ws.Controller.Activities(), d.ActivityID) {
				id := strconv.FormatInt(a.ID, 10)
				label := a.Title
				if when, err := jst.FormatDateTimeJST(a.StartTime); err == nil {
					label += " (" + when + ")"
				}
				fv.Options = append(fv.Options, option{Value: id, Label: label, Selected: id == f.LinkedActivityID})
			}
		}
		v.Fields = append(v.Fields, fv)
	}
	return v
}

func newPageView(ws *Workspace) (pageView, error) {
	v := pageView{
		Base:        basePath(ws.Tour.ID),
		Tour:        ws.Tour,
		Bounds:      ws.Bounds.String(),
		ValidStart:  ws.Bounds.Start.In(jst.Location).Format("2006-01-02"),
		ValidEnd:    ws.Bounds.End.In(jst.Location).Format("2006-01-02"),
		SlotMin:     slotMinTime,
		SlotMax:     slotMaxTime,
		SlotStep:    slotDuration,
		Dialog:      newDialogView(ws),
		Description: template.HTML(sanitize.Markdown(ws.Tour.Description)),
	}
	for _, t := range backend.ActivityTypes {
		v.Legend = append(v.Legend, AppearanceOf(t))
	}

	sorted, err := sortedByStart(ws.Controller.Activities())
	if err != nil {
		return v, err
	}
	for _, a := range sorted {
		day, err := jst.FormatJST(a.StartTime, "Mon, Jan 2")
		if err != nil {
			return v, err
		}
		from, err := jst.FormatJST(a.StartTime, "15:04")
		if err != nil {
			return v, err
		}
		to, err := jst.FormatJST(a.EndTime, "15:04")
		if err != nil {
			return v, err
		}
		look := AppearanceOf(a.Type)
		item := agendaItem{
			Time:        from + " - " + to,
			Title:       a.Title,
			Label:       look.Label,
			Color:       look.Color,
			Company:     a.CompanyName,
			Location:    a.LocationDetails,
			SurveyURL:   a.SurveyURL,
			Description: template.HTML(sanitize.Markdown(a.Description)),
		}
		if n := len(v.Agenda); n == 0 || v.Agenda[n-1].Date != day {
			v.Agenda = append(v.Agenda, agendaDay{Date: day})
		}
		last := &v.Agenda[len(v.Agenda)-1]
		last.Items = append(last.Items, item)
	}
	return v, nil
}

// ItineraryPage is the full scheduling view.
func ItineraryPage(v pageView) templ.Component {
	return layouts.Page(v.Tour.Name+" itinerary", layouts.Template(views, "page", v),
		"/static/vendor/fullcalendar.min.js",
		"/static/js/itinerary.js",
	)
}

// DialogFragment is the activity dialog swapped in by HTMX. A closed dialog
// renders as an empty container.
func DialogFragment(v dialogView) templ.Component {
	return layouts.Template(views, "dialog", v)
}

var views = template.Must(template.New("itinerary").Parse(`
{{define "page"}}<section class="itinerary" id="itinerary">
  <header class="itinerary-header">
    <a href="/tours" class="back">Tours</a>
    <h1>{{.Tour.Name}}</h1>
    <p class="dates">{{.Bounds}} (JST)</p>
    {{if .Description}}<div class="prose">{{.Description}}</div>{{end}}
    <nav class="exports">
      <a href="{{.Base}}/export.ics">Download .ics</a>
      <a href="{{.Base}}/export.csv">Download .csv</a>
      <a href="/tours/{{.Tour.ID}}/participants.csv">Participants .csv</a>
    </nav>
  </header>
  <ul class="legend">{{range .Legend}}
    <li><span class="swatch" style="background: {{.Color}}"></span><svg class="icon"><use href="/static/icons.svg#{{.Icon}}"></use></svg>{{.Label}}</li>{{end}}
  </ul>
  <div id="itinerary-calendar"
       data-events-url="{{.Base}}/events"
       data-select-url="{{.Base}}/select"
       data-activity-url="{{.Base}}/activities"
       data-valid-start="{{.ValidStart}}"
       data-valid-end="{{.ValidEnd}}"
       data-slot-min="{{.SlotMin}}"
       data-slot-max="{{.SlotMax}}"
       data-slot-duration="{{.SlotStep}}"></div>
  {{template "dialog" .Dialog}}
  <section class="agenda">
    <h2>Agenda</h2>
    {{range .Agenda}}<div class="agenda-day">
      <h3>{{.Date}}</h3>
      <ul>{{range .Items}}
        <li style="border-left-color: {{.Color}}">
          <span class="time">{{.Time}}</span>
          <strong>{{.Title}}</strong> <span class="badge">{{.Label}}</span>
          {{if .Company}}<span class="company">{{.Company}}</span>{{end}}
          {{if .Location}}<span class="location">{{.Location}}</span>{{end}}
          {{if .SurveyURL}}<a href="{{.SurveyURL}}" target="_blank" rel="noopener">Survey</a>{{end}}
          {{if .Description}}<div class="prose">{{.Description}}</div>{{end}}
        </li>{{end}}
      </ul>
    </div>{{else}}<p class="empty">No activities yet. Drag across the calendar to add one.</p>{{end}}
  </section>
</section>{{end}}

{{define "dialog"}}<div id="itinerary-dialog">{{if .Open}}
  <div class="dialog-backdrop"></div>
  <form class="dialog" style="border-top-color: {{.Color}}"
        hx-post="{{.Base}}/draft/submit" hx-target="#itinerary-dialog" hx-swap="outerHTML">
    <h2>{{.Heading}}</h2>
    {{if .Error}}<div class="flash error" role="alert">{{.Error}}</div>{{end}}
    {{range .Fields}}<div class="field{{if .Problem}} invalid{{end}}">
      <label for="f-{{.Name}}">{{.Label}}{{if .Required}} *{{end}}</label>
      {{if eq .Input "select"}}<select id="f-{{.Name}}" name="{{.Name}}"{{if eq .Name "type"}}
          hx-post="{{$.Base}}/draft" hx-trigger="change" hx-target="#itinerary-dialog" hx-swap="outerHTML"{{end}}>
        {{range .Options}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}
      </select>
      {{else if eq .Input "textarea"}}<textarea id="f-{{.Name}}" name="{{.Name}}" rows="4">{{.Value}}</textarea>
      {{else}}<input id="f-{{.Name}}" type="{{.Input}}" name="{{.Name}}" value="{{.Value}}">
      {{end}}{{if .Problem}}<p class="problem">{{.Problem}}</p>{{end}}
    </div>{{end}}
    {{if .Preview}}<div class="prose preview">{{.Preview}}</div>{{end}}
    <div class="actions">
      {{if not .IsNew}}<button type="button" class="danger"
          hx-post="{{.Base}}/draft/delete" hx-vals='{"confirmed": "true"}'
          hx-confirm="Delete this activity?" hx-target="#itinerary-dialog" hx-swap="outerHTML">Delete</button>{{end}}
      <button type="button" hx-post="{{.Base}}/draft/cancel" hx-target="#itinerary-dialog" hx-swap="outerHTML">Cancel</button>
      <button type="submit" class="primary">{{if .IsNew}}Create{{else}}Update{{end}}</button>
    </div>
  </form>
{{end}}</div>{{end}}
`))
