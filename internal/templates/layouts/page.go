package layouts

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// NavLink is one entry of the top navigation.
type NavLink struct {
	Href   string
	Label  string
	Active bool
}

type pageData struct {
	Title        string
	Body         template.HTML
	Scripts      []string
	CSRFToken    string
	UserName     string
	IsAdmin      bool
	Nav          []NavLink
	FlashSuccess string
	FlashError   string
}

var baseTemplate = template.Must(template.New("base").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="csrf-token" content="{{.CSRFToken}}">
<title>{{.Title}} · Tour Benchmark Admin</title>
<link rel="stylesheet" href="/static/css/console.css">
<script src="/static/vendor/htmx.min.js" defer></script>
{{range .Scripts}}<script src="{{.}}" defer></script>
{{end}}</head>
<body hx-headers='{"X-CSRF-Token": "{{.CSRFToken}}"}'>
{{if .UserName}}<header class="topbar">
  <a class="brand" href="/tours">Tour Benchmark Admin</a>
  <nav>{{range .Nav}}<a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Label}}</a>{{end}}</nav>
  <form method="post" action="/logout" class="logout">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
    <span>{{.UserName}}</span><button type="submit">Sign out</button>
  </form>
</header>{{end}}
<main>
{{if .FlashSuccess}}<div class="flash success">{{.FlashSuccess}}</div>{{end}}
{{if .FlashError}}<div class="flash error">{{.FlashError}}</div>{{end}}
{{.Body}}
</main>
</body>
</html>`))

// Page wraps body in the console shell. Session details and the CSRF token
// come from ctx as set by the LayoutInjector.
func Page(title string, body templ.Component, scripts ...string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := body.Render(ctx, &buf); err != nil {
			return err
		}
		active := GetActivePath(ctx)
		return baseTemplate.Execute(w, pageData{
			Title:     title,
			Body:      template.HTML(buf.String()),
			Scripts:   scripts,
			CSRFToken: GetCSRFToken(ctx),
			UserName:  GetUserName(ctx),
			IsAdmin:   GetIsAdmin(ctx),
			Nav: []NavLink{
				{Href: "/tours", Label: "Tours", Active: strings.HasPrefix(active, "/tours")},
				{Href: "/companies", Label: "Companies", Active: strings.HasPrefix(active, "/companies")},
			},
			FlashSuccess: GetFlashSuccess(ctx),
			FlashError:   GetFlashError(ctx),
		})
	})
}

// Template renders a named html/template with data as a component.
func Template(t *template.Template, name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, name, data)
	})
}

// ErrorPage is the full-page rendering of an error for browsers.
func ErrorPage(code int, message string) templ.Component {
	return Page("Error", Template(errorTemplate, "error", struct {
		Code    int
		Message string
	}{code, message}))
}

var errorTemplate = template.Must(template.New("error").Parse(`<section class="error-page">
  <h1>{{.Code}}</h1>
  <p>{{.Message}}</p>
  <a href="/tours">Back to tours</a>
</section>`))
