package companies

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tourbench/console/internal/apperror"
	"github.com/tourbench/console/internal/middleware"
	"github.com/tourbench/console/internal/plugins/auth"
)

// Handler serves the company pages.
type Handler struct {
	svc CompanyService
}

// NewHandler creates a new companies Handler.
func NewHandler(svc CompanyService) *Handler {
	return &Handler{svc: svc}
}

// List renders all companies.
// GET /companies
func (h *Handler) List(c echo.Context) error {
	sess := auth.GetSession(c)
	if sess == nil {
		return apperror.NewMissingContext()
	}
	companies, err := h.svc.List(c.Request().Context(), sess.Token)
	if err != nil {
		return err
	}
	if middleware.WantsJSON(c) {
		return c.JSON(http.StatusOK, companies)
	}
	return middleware.Render(c, http.StatusOK, CompanyListPage(companies))
}

// NewForm renders the empty company editor.
// GET /companies/new
func (h *Handler) NewForm(c echo.Context) error {
	return middleware.Render(c, http.StatusOK,
		CompanyFormPage(newFormView(middleware.GetCSRFToken(c), CompanyForm{}, nil)))
}

// Create adds a company.
// POST /companies
func (h *Handler) Create(c echo.Context) error {
	sess := auth.GetSession(c)
	if sess == nil {
		return apperror.NewMissingContext()
	}
	var form CompanyForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	in, problems := form.Input()
	if len(problems) > 0 {
		return invalid(c, newFormView(middleware.GetCSRFToken(c), form, problems))
	}
	company, err := h.svc.Create(c.Request().Context(), sess.Token, in)
	if err != nil {
		return err
	}
	if middleware.WantsJSON(c) {
		return c.JSON(http.StatusCreated, company)
	}
	return redirect(c, "/companies")
}

// EditForm renders the editor for an existing company.
// GET /companies/:cid/edit
func (h *Handler) EditForm(c echo.Context) error {
	sess := auth.GetSession(c)
	if sess == nil {
		return apperror.NewMissingContext()
	}
	cid, err := companyID(c)
	if err != nil {
		return err
	}
	company, err := h.svc.Get(c.Request().Context(), sess.Token, cid)
	if err != nil {
		return err
	}
	v := newFormView(middleware.GetCSRFToken(c), CompanyFormFromCompany(*company), nil).editing(cid)
	return middleware.Render(c, http.StatusOK, CompanyFormPage(v))
}

// Update saves the editor over an existing company.
// POST /companies/:cid
func (h *Handler) Update(c echo.Context) error {
	sess := auth.GetSession(c)
	if sess == nil {
		return apperror.NewMissingContext()
	}
	cid, err := companyID(c)
	if err != nil {
		return err
	}
	var form CompanyForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	in, problems := form.Input()
	if len(problems) > 0 {
		return invalid(c, newFormView(middleware.GetCSRFToken(c), form, problems).editing(cid))
	}
	company, err := h.svc.Update(c.Request().Context(), sess.Token, cid, in)
	if err != nil {
		return err
	}
	if middleware.WantsJSON(c) {
		return c.JSON(http.StatusOK, company)
	}
	return redirect(c, "/companies")
}

// Delete removes a company.
// POST /companies/:cid/delete
func (h *Handler) Delete(c echo.Context) error {
	sess := auth.GetSession(c)
	if sess == nil {
		return apperror.NewMissingContext()
	}
	cid, err := companyID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), sess.Token, cid); err != nil {
		return err
	}
	if middleware.WantsJSON(c) {
		return c.NoContent(http.StatusNoContent)
	}
	return redirect(c, "/companies")
}

func invalid(c echo.Context, v formView) error {
	if middleware.WantsJSON(c) {
		return apperror.NewValidation("the company is invalid").WithFields(v.problems...)
	}
	return middleware.Render(c, http.StatusUnprocessableEntity, CompanyFormPage(v))
}

func companyID(c echo.Context) (int64, error) {
	cid, err := strconv.ParseInt(c.Param("cid"), 10, 64)
	if err != nil || cid <= 0 {
		return 0, apperror.NewBadRequest("invalid company ID")
	}
	return cid, nil
}

func redirect(c echo.Context, to string) error {
	if middleware.IsHTMX(c) {
		c.Response().Header().Set("HX-Redirect", to)
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, to)
}
