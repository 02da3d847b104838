package companies

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourbench/console/internal/apperror"
	"github.com/tourbench/console/internal/backend"
	"github.com/tourbench/console/internal/plugins/auth"
)

// --- Mock ---

type mockCompanyAPI struct {
	listFn   func(ctx context.Context) ([]backend.Company, error)
	getFn    func(ctx context.Context, id int64) (*backend.Company, error)
	createFn func(ctx context.Context, in backend.CompanyInput) (*backend.Company, error)
	updateFn func(ctx context.Context, id int64, in backend.CompanyInput) (*backend.Company, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (m *mockCompanyAPI) ListCompanies(ctx context.Context) ([]backend.Company, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockCompanyAPI) GetCompany(ctx context.Context, id int64) (*backend.Company, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	c := sampleCompany
	return &c, nil
}

func (m *mockCompanyAPI) CreateCompany(ctx context.Context, in backend.CompanyInput) (*backend.Company, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &backend.Company{ID: 4, Name: in.Name}, nil
}

func (m *mockCompanyAPI) UpdateCompany(ctx context.Context, id int64, in backend.CompanyInput) (*backend.Company, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return &backend.Company{ID: id, Name: in.Name}, nil
}

func (m *mockCompanyAPI) DeleteCompany(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

var sampleCompany = backend.Company{
	ID:          3,
	Name:        "Kansai Steel",
	Address:     "1-2 Umeda, Osaka",
	Website:     "https://kansai.example.com",
	Description: "Rolling mill &amp; <b>foundry</b>",
	CreatedAt:   "2025-01-31T16:00:00Z",
}

func newTestHandler(api *mockCompanyAPI) *Handler {
	return NewHandler(NewCompanyService(func(string) CompanyAPI { return api }))
}

func adminContext(req *http.Request, rec *httptest.ResponseRecorder, params ...string) echo.Context {
	c := echo.New().NewContext(req, rec)
	auth.SetSession(c, &auth.Session{ID: "s1", UserID: "u0", Role: backend.RoleAdmin, Token: "tok"})
	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}
	return c
}

func formRequest(target string, v url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(v.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

// --- Service ---

func TestList_SortsByName(t *testing.T) {
	api := &mockCompanyAPI{listFn: func(context.Context) ([]backend.Company, error) {
		return []backend.Company{{ID: 1, Name: "toyota"}, {ID: 2, Name: "Kansai Steel"}, {ID: 3, Name: "Asahi"}}, nil
	}}
	companies, err := NewCompanyService(func(string) CompanyAPI { return api }).List(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, []string{"Asahi", "Kansai Steel", "toyota"},
		[]string{companies[0].Name, companies[1].Name, companies[2].Name})
}

func TestBackendErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &backend.Error{Status: 404}, http.StatusNotFound},
		{"still visited", &backend.Error{Status: 409}, http.StatusConflict},
		{"rejected", &backend.Error{Status: 400, Message: "name taken"}, http.StatusUnprocessableEntity},
		{"server error", &backend.Error{Status: 500}, http.StatusBadGateway},
		{"transport", errors.New("connection refused"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockCompanyAPI{deleteFn: func(context.Context, int64) error { return tt.err }}
			err := NewCompanyService(func(string) CompanyAPI { return api }).Delete(context.Background(), "tok", 3)
			assert.Equal(t, tt.want, apperror.SafeCode(err))
		})
	}
}

// --- Form ---

func TestCompanyForm_Input(t *testing.T) {
	in, problems := CompanyForm{Name: " Kansai Steel ", Website: "https://kansai.example.com"}.Input()
	require.Empty(t, problems)
	assert.Equal(t, backend.CompanyInput{Name: "Kansai Steel", Website: "https://kansai.example.com"}, in)

	_, problems = CompanyForm{Name: "", Website: "ftp://kansai.example.com"}.Input()
	require.Len(t, problems, 2)
	assert.Equal(t, "name", problems[0].Field)
	assert.Equal(t, "website", problems[1].Field)
}

// --- Handler ---

func TestHandler_List(t *testing.T) {
	api := &mockCompanyAPI{listFn: func(context.Context) ([]backend.Company, error) {
		return []backend.Company{sampleCompany}, nil
	}}
	rec := httptest.NewRecorder()
	require.NoError(t, newTestHandler(api).List(adminContext(httptest.NewRequest(http.MethodGet, "/companies", nil), rec)))

	body := rec.Body.String()
	assert.Contains(t, body, "Kansai Steel")
	assert.Contains(t, body, "Feb 1, 2025", "created date shown in JST")
	assert.Contains(t, body, "Rolling mill &amp; foundry")
	assert.NotContains(t, body, "<b>foundry")
}

func TestHandler_Create(t *testing.T) {
	var got backend.CompanyInput
	api := &mockCompanyAPI{createFn: func(_ context.Context, in backend.CompanyInput) (*backend.Company, error) {
		got = in
		return &backend.Company{ID: 4}, nil
	}}
	rec := httptest.NewRecorder()
	v := url.Values{"name": {"Asahi Glass"}, "address": {"Tokyo"}}
	require.NoError(t, newTestHandler(api).Create(adminContext(formRequest("/companies", v), rec)))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/companies", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, backend.CompanyInput{Name: "Asahi Glass", Address: "Tokyo"}, got)
}

func TestHandler_CreateInvalid(t *testing.T) {
	rec := httptest.NewRecorder()
	v := url.Values{"name": {""}, "address": {"Tokyo"}}
	require.NoError(t, newTestHandler(&mockCompanyAPI{}).Create(adminContext(formRequest("/companies", v), rec)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Company name is required")
	assert.Contains(t, rec.Body.String(), `value="Tokyo"`)
}

func TestHandler_EditForm(t *testing.T) {
	rec := httptest.NewRecorder()
	c := adminContext(httptest.NewRequest(http.MethodGet, "/companies/3/edit", nil), rec, "cid", "3")

	require.NoError(t, newTestHandler(&mockCompanyAPI{}).EditForm(c))
	assert.Contains(t, rec.Body.String(), `action="/companies/3"`)
	assert.Contains(t, rec.Body.String(), `value="Kansai Steel"`)
}

func TestHandler_Update(t *testing.T) {
	var gotID int64
	api := &mockCompanyAPI{updateFn: func(_ context.Context, id int64, in backend.CompanyInput) (*backend.Company, error) {
		gotID = id
		return &backend.Company{ID: id, Name: in.Name}, nil
	}}
	req := formRequest("/companies/3", url.Values{"name": {"Kansai Steel Ltd"}})
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, newTestHandler(api).Update(adminContext(req, rec, "cid", "3")))
	assert.Equal(t, int64(3), gotID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Kansai Steel Ltd"`)
}

func TestHandler_DeleteConflict(t *testing.T) {
	api := &mockCompanyAPI{deleteFn: func(context.Context, int64) error {
		return &backend.Error{Status: 409}
	}}
	c := adminContext(httptest.NewRequest(http.MethodPost, "/companies/3/delete", nil), httptest.NewRecorder(), "cid", "3")
	assert.Equal(t, http.StatusConflict, apperror.SafeCode(newTestHandler(api).Delete(c)))
}

func TestHandler_Delete(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/companies/3/delete", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	require.NoError(t, newTestHandler(&mockCompanyAPI{}).Delete(adminContext(req, rec, "cid", "3")))
	assert.Equal(t, "/companies", rec.Header().Get("HX-Redirect"))
}

func TestHandler_BadID(t *testing.T) {
	c := adminContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder(), "cid", "abc")
	assert.Equal(t, http.StatusBadRequest, apperror.SafeCode(newTestHandler(&mockCompanyAPI{}).EditForm(c)))
}
