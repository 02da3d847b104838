package auth

import (
	"html/template"

	"github.com/a-h/templ"

	"github.com/tourbench/console/internal/templates/layouts"
)

type loginView struct {
	CSRFToken  string
	Email      string
	Error      string
	NeedsSetup bool
}

type setupView struct {
	CSRFToken string
	Email     string
	SetupCode string
	Error     string
	Strength  Strength
}

// LoginPage is the full sign-in page.
func LoginPage(v loginView) templ.Component {
	return layouts.Page("Sign in", layouts.Template(views, "login-page", v))
}

// LoginFormFragment is the sign-in form alone, swapped in by HTMX after a
// failed attempt.
func LoginFormFragment(v loginView) templ.Component {
	return layouts.Template(views, "login-form", v)
}

// SetupPage is the account setup page.
func SetupPage(v setupView) templ.Component {
	return layouts.Page("Admin Account Setup", layouts.Template(views, "setup-page", v))
}

// StrengthMeter is the four-segment password strength bar.
func StrengthMeter(s Strength) templ.Component {
	return layouts.Template(views, "strength", s)
}

var views = template.Must(template.New("auth").Funcs(template.FuncMap{
	"segments": func() []int { return []int{1, 2, 3, 4} },
}).Parse(`
{{define "login-page"}}<section class="auth-card">
  <h1>Tour Benchmark Admin</h1>
  <p>Sign in to manage tours and itineraries</p>
  {{template "login-form" .}}
</section>{{end}}

{{define "login-form"}}<form id="login-form" method="post" action="/login"
      hx-post="/login" hx-target="#login-form" hx-swap="outerHTML">
  <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
  {{if .Error}}<div class="flash error" role="alert">{{.Error}}
    {{if .NeedsSetup}}<a href="/admin-setup?email={{.Email}}">Complete account setup</a>{{end}}
  </div>{{end}}
  <label for="email">Email</label>
  <input id="email" type="email" name="email" value="{{.Email}}" placeholder="admin@example.com" required autofocus>
  <label for="password">Password</label>
  <input id="password" type="password" name="password" required>
  <button type="submit" class="primary">Sign in</button>
  <p class="hint">Have a setup code? <a href="/admin-setup">Set up your account</a></p>
</form>{{end}}

{{define "setup-page"}}<section class="auth-card">
  <h1>Admin Account Setup</h1>
  <p>Complete your account setup by entering your email and setup code</p>
  <form method="post" action="/admin-setup">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
    {{if .Error}}<div class="flash error" role="alert">{{.Error}}</div>{{end}}
    <label for="email">Email</label>
    <input id="email" type="email" name="email" value="{{.Email}}" required>
    <label for="setup_code">Setup Code</label>
    <input id="setup_code" name="setup_code" value="{{.SetupCode}}" placeholder="XXXX-XXXX" maxlength="9" required>
    <label for="password">New Password</label>
    <input id="password" type="password" name="password" required
           hx-post="/auth/password-strength" hx-trigger="input changed delay:200ms" hx-target="#strength" hx-swap="outerHTML">
    {{template "strength" .Strength}}
    <label for="confirm_password">Confirm Password</label>
    <input id="confirm_password" type="password" name="confirm_password" placeholder="Re-enter your password" required>
    <button type="submit" class="primary">Complete Setup</button>
  </form>
</section>{{end}}

{{define "strength"}}<div id="strength" class="strength">{{if .Label}}
  <div class="segments">{{$s := .}}{{range segments}}<span style="background: {{if ge $s.Score .}}{{$s.Color}}{{else}}#E5E7EB{{end}}"></span>{{end}}</div>
  <span class="label" style="color: {{.Color}}">{{.Label}}</span>
{{end}}</div>{{end}}
`))
