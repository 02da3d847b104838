package companies

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tourbench/console/internal/apperror"
	"github.com/tourbench/console/internal/backend"
)

// CompanyAPI is the part of the backend client the company pages use.
type CompanyAPI interface {
	ListCompanies(ctx context.Context) ([]backend.Company, error)
	GetCompany(ctx context.Context, companyID int64) (*backend.Company, error)
	CreateCompany(ctx context.Context, in backend.CompanyInput) (*backend.Company, error)
	UpdateCompany(ctx context.Context, companyID int64, in backend.CompanyInput) (*backend.Company, error)
	DeleteCompany(ctx context.Context, companyID int64) error
}

// APIFactory returns a CompanyAPI that acts with the given bearer token.
type APIFactory func(token string) CompanyAPI

// CompanyService manages the companies tours can visit.
type CompanyService interface {
	List(ctx context.Context, token string) ([]backend.Company, error)
	Get(ctx context.Context, token string, companyID int64) (*backend.Company, error)
	Create(ctx context.Context, token string, in backend.CompanyInput) (*backend.Company, error)
	Update(ctx context.Context, token string, companyID int64, in backend.CompanyInput) (*backend.Company, error)
	Delete(ctx context.Context, token string, companyID int64) error
}

type companyService struct {
	api APIFactory
}

// NewCompanyService creates a new company service.
func NewCompanyService(api APIFactory) CompanyService {
	return &companyService{api: api}
}

// List returns every company by name, ignoring case.
func (s *companyService) List(ctx context.Context, token string) ([]backend.Company, error) {
	companies, err := s.api(token).ListCompanies(ctx)
	if err != nil {
		return nil, backendError(err, "listing companies")
	}
	sort.SliceStable(companies, func(i, j int) bool {
		return strings.ToLower(companies[i].Name) < strings.ToLower(companies[j].Name)
	})
	return companies, nil
}

func (s *companyService) Get(ctx context.Context, token string, companyID int64) (*backend.Company, error) {
	company, err := s.api(token).GetCompany(ctx, companyID)
	if err != nil {
		return nil, backendError(err, "loading company")
	}
	return company, nil
}

func (s *companyService) Create(ctx context.Context, token string, in backend.CompanyInput) (*backend.Company, error) {
	company, err := s.api(token).CreateCompany(ctx, in)
	if err != nil {
		return nil, backendError(err, "creating company")
	}
	return company, nil
}

func (s *companyService) Update(ctx context.Context, token string, companyID int64, in backend.CompanyInput) (*backend.Company, error) {
	company, err := s.api(token).UpdateCompany(ctx, companyID, in)
	if err != nil {
		return nil, backendError(err, "updating company")
	}
	return company, nil
}

// Delete removes a company. The backend refuses while an activity still
// visits it, which surfaces as a conflict.
func (s *companyService) Delete(ctx context.Context, token string, companyID int64) error {
	if err := s.api(token).DeleteCompany(ctx, companyID); err != nil {
		return backendError(err, "deleting company")
	}
	return nil
}

func backendError(err error, what string) error {
	switch backend.StatusOf(err) {
	case 404:
		return apperror.NewNotFound("company not found")
	case 401:
		return apperror.NewUnauthorized("your session has expired, please sign in again")
	case 403:
		return apperror.NewForbidden("you do not have access to this company")
	case 409:
		return apperror.NewConflict("the company is still visited by a tour activity")
	case 400, 422:
		msg := "the backend rejected the company"
		var be *backend.Error
		if errors.As(err, &be) && be.Message != "" {
			msg = be.Message
		}
		return apperror.NewValidation(msg)
	}
	return apperror.NewBadGateway("the backend could not complete the request", fmt.Errorf("%s: %w", what, err))
}
