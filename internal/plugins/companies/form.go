package companies

import (
	"net/url"
	"strings"

	"github.com/tourbench/console/internal/apperror"
	"github.com/tourbench/console/internal/backend"
)

// CompanyForm is the company editor's field set.
type CompanyForm struct {
	Name        string `json:"name" form:"name"`
	Address     string `json:"address" form:"address"`
	Website     string `json:"website" form:"website"`
	Description string `json:"description" form:"description"`
}

// CompanyFormFromCompany fills the form from a saved company.
func CompanyFormFromCompany(c backend.Company) CompanyForm {
	return CompanyForm{
		Name:        c.Name,
		Address:     c.Address,
		Website:     c.Website,
		Description: c.Description,
	}
}

// Input validates the form and builds the request body.
func (f CompanyForm) Input() (backend.CompanyInput, []apperror.FieldProblem) {
	var problems []apperror.FieldProblem

	name := strings.TrimSpace(f.Name)
	if name == "" {
		problems = append(problems, apperror.FieldProblem{Field: "name", Message: "Company name is required"})
	}

	website := strings.TrimSpace(f.Website)
	if website != "" {
		u, err := url.Parse(website)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, apperror.FieldProblem{Field: "website", Message: "Website must be an http or https link"})
		}
	}

	return backend.CompanyInput{
		Name:        name,
		Address:     strings.TrimSpace(f.Address),
		Website:     website,
		Description: strings.TrimSpace(f.Description),
	}, problems
}
