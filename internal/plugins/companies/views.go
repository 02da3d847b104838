package companies

import (
	"fmt"
	"html/template"

	"github.com/a-h/templ"

	"github.com/tourbench/console/internal/apperror"
	"github.com/tourbench/console/internal/backend"
	"github.com/tourbench/console/internal/jst"
	"github.com/tourbench/console/internal/sanitize"
	"github.com/tourbench/console/internal/templates/layouts"
)

type companyRow struct {
	ID          int64
	Name        string
	Address     string
	Website     string
	Description string
	Added       string
}

func newCompanyRows(companies []backend.Company) []companyRow {
	rows := make([]companyRow, 0, len(companies))
	for _, c := range companies {
		added, err := jst.FormatDateJST(c.CreatedAt)
		if err != nil {
			added = ""
		}
		rows = append(rows, companyRow{
			ID:          c.ID,
			Name:        c.Name,
			Address:     c.Address,
			Website:     c.Website,
			Description: sanitize.PlainText(c.Description),
			Added:       added,
		})
	}
	return rows
}

// CompanyListPage renders every company.
func CompanyListPage(companies []backend.Company) templ.Component {
	return layouts.Page("Companies", layouts.Template(views, "list", newCompanyRows(companies)))
}

type formView struct {
	CSRFToken string
	Heading   string
	Action    string
	Submit    string
	Form      CompanyForm
	Errors    map[string]string

	problems []apperror.FieldProblem
}

func newFormView(csrfToken string, f CompanyForm, problems []apperror.FieldProblem) formView {
	v := formView{
		CSRFToken: csrfToken,
		Heading:   "New Company",
		Action:    "/companies",
		Submit:    "Create",
		Form:      f,
		Errors:    make(map[string]string, len(problems)),
		problems:  problems,
	}
	for _, p := range problems {
		if _, ok := v.Errors[p.Field]; !ok {
			v.Errors[p.Field] = p.Message
		}
	}
	return v
}

func (v formView) editing(companyID int64) formView {
	v.Heading = "Edit Company"
	v.Action = fmt.Sprintf("/companies/%d", companyID)
	v.Submit = "Update"
	return v
}

// CompanyFormPage renders the company editor.
func CompanyFormPage(v formView) templ.Component {
	return layouts.Page(v.Heading, layouts.Template(views, "form", v))
}

var views = template.Must(template.New("companies").Parse(`
{{define "list"}}<section class="companies">
  <header class="page-head"><h1>Companies</h1><a class="button primary" href="/companies/new">New company</a></header>
  {{if not .}}<p class="empty">No companies yet.</p>{{else}}
  <table class="company-table">
    <thead><tr><th>Name</th><th>Address</th><th>Website</th><th>Added</th><th></th></tr></thead>
    <tbody>{{range .}}
      <tr>
        <td>{{.Name}}{{if .Description}}<p class="summary">{{.Description}}</p>{{end}}</td>
        <td>{{.Address}}</td>
        <td>{{if .Website}}<a href="{{.Website}}" rel="noopener" target="_blank">{{.Website}}</a>{{end}}</td>
        <td>{{.Added}}</td>
        <td class="actions">
          <a href="/companies/{{.ID}}/edit">Edit</a>
          <button type="button" class="danger" hx-post="/companies/{{.ID}}/delete"
                  hx-confirm="Delete this company?">Delete</button>
        </td>
      </tr>{{end}}
    </tbody>
  </table>{{end}}
</section>{{end}}

{{define "form"}}<section class="company-form">
  <h1>{{.Heading}}</h1>
  <form method="post" action="{{.Action}}">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
    <label for="name">Company Name *</label>
    <input id="name" name="name" value="{{.Form.Name}}" required>
    {{with index .Errors "name"}}<p class="field-error">{{.}}</p>{{end}}
    <label for="address">Address</label>
    <input id="address" name="address" value="{{.Form.Address}}">
    <label for="website">Website</label>
    <input id="website" type="url" name="website" value="{{.Form.Website}}" placeholder="https://example.com">
    {{with index .Errors "website"}}<p class="field-error">{{.}}</p>{{end}}
    <label for="description">Description</label>
    <textarea id="description" name="description" rows="4">{{.Form.Description}}</textarea>
    <div class="actions">
      <a href="/companies">Cancel</a>
      <button type="submit" class="primary">{{.Submit}}</button>
    </div>
  </form>
</section>{{end}}
`))
