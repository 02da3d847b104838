package backend

import (
	"context"
	"fmt"
	"net/http"
)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetupAccount sets the password of a pre-provisioned account using the
// one-time setup code, and logs it in.
func (c *Client) SetupAccount(ctx context.Context, req SetupAccountRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/setup-account", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the account that owns the client's token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ListTours returns every tour visible to the caller.
func (c *Client) ListTours(ctx context.Context) ([]Tour, error) {
	var out struct {
		Tours []Tour `json:"tours"`
	}
	if err := c.do(ctx, http.MethodGet, "/tours", nil, &out); err != nil {
		return nil, err
	}
	return out.Tours, nil
}

// GetTour returns one tour.
func (c *Client) GetTour(ctx context.Context, tourID int64) (*Tour, error) {
	var out struct {
		Tour Tour `json:"tour"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tours/%d", tourID), nil, &out); err != nil {
		return nil, err
	}
	return &out.Tour, nil
}

// CreateTour creates a tour.
func (c *Client) CreateTour(ctx context.Context, in TourInput) (*Tour, error) {
	var out struct {
		Tour Tour `json:"tour"`
	}
	if err := c.do(ctx, http.MethodPost, "/tours", in, &out); err != nil {
		return nil, err
	}
	return &out.Tour, nil
}

// UpdateTour replaces a tour's editable fields.
func (c *Client) UpdateTour(ctx context.Context, tourID int64, in TourInput) (*Tour, error) {
	var out struct {
		Tour Tour `json:"tour"`
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/tours/%d", tourID), in, &out); err != nil {
		return nil, err
	}
	return &out.Tour, nil
}

// DeleteTour removes a tour with its activities and participants.
func (c *Client) DeleteTour(ctx context.Context, tourID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tours/%d", tourID), nil, nil)
}

// ListActivities returns a tour's itinerary.
func (c *Client) ListActivities(ctx context.Context, tourID int64) ([]Activity, error) {
	var out struct {
		Activities []Activity `json:"activities"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tours/%d/activities", tourID), nil, &out); err != nil {
		return nil, err
	}
	return out.Activities, nil
}

// CreateActivity posts a new activity. body is JSON-encoded as-is, so the
// caller decides which optional keys are present.
func (c *Client) CreateActivity(ctx context.Context, tourID int64, body any) (*Activity, error) {
	var out struct {
		Activity Activity `json:"activity"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/tours/%d/activities", tourID), body, &out); err != nil {
		return nil, err
	}
	return &out.Activity, nil
}

// UpdateActivity sends a partial update. Keys absent from body are left
// unchanged by the backend.
func (c *Client) UpdateActivity(ctx context.Context, tourID, activityID int64, body any) (*Activity, error) {
	var out struct {
		Activity Activity `json:"activity"`
	}
	path := fmt.Sprintf("/tours/%d/activities/%d", tourID, activityID)
	if err := c.do(ctx, http.MethodPut, path, body, &out); err != nil {
		return nil, err
	}
	return &out.Activity, nil
}

// DeleteActivity removes an activity.
func (c *Client) DeleteActivity(ctx context.Context, tourID, activityID int64) error {
	path := fmt.Sprintf("/tours/%d/activities/%d", tourID, activityID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ListParticipants returns the users assigned to a tour.
func (c *Client) ListParticipants(ctx context.Context, tourID int64) ([]Participant, error) {
	var out struct {
		Participants []Participant `json:"participants"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tours/%d/participants", tourID), nil, &out); err != nil {
		return nil, err
	}
	return out.Participants, nil
}

// ListCompanies returns every company.
func (c *Client) ListCompanies(ctx context.Context) ([]Company, error) {
	var out struct {
		Companies []Company `json:"companies"`
	}
	if err := c.do(ctx, http.MethodGet, "/companies", nil, &out); err != nil {
		return nil, err
	}
	return out.Companies, nil
}

// GetCompany returns one company.
func (c *Client) GetCompany(ctx context.Context, companyID int64) (*Company, error) {
	var out struct {
		Company Company `json:"company"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/companies/%d", companyID), nil, &out); err != nil {
		return nil, err
	}
	return &out.Company, nil
}

// CreateCompany creates a company.
func (c *Client) CreateCompany(ctx context.Context, in CompanyInput) (*Company, error) {
	var out struct {
		Company Company `json:"company"`
	}
	if err := c.do(ctx, http.MethodPost, "/companies", in, &out); err != nil {
		return nil, err
	}
	return &out.Company, nil
}

// UpdateCompany replaces a company's editable fields.
func (c *Client) UpdateCompany(ctx context.Context, companyID int64, in CompanyInput) (*Company, error) {
	var out struct {
		Company Company `json:"company"`
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/companies/%d", companyID), in, &out); err != nil {
		return nil, err
	}
	return &out.Company, nil
}

// DeleteCompany removes a company.
func (c *Client) DeleteCompany(ctx context.Context, companyID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/companies/%d", companyID), nil, nil)
}
