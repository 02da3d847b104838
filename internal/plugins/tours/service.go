package tours

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tourbench/console/internal/apperror"
	"github.com/tourbench/console/internal/backend"
	"github.com/tourbench/console/internal/jst"
)

// TourAPI is the part of the backend client the tour pages use.
type TourAPI interface {
	ListTours(ctx context.Context) ([]backend.Tour, error)
	GetTour(ctx context.Context, tourID int64) (*backend.Tour, error)
	ListParticipants(ctx context.Context, tourID int64) ([]backend.Participant, error)
	CreateTour(ctx context.Context, in backend.TourInput) (*backend.Tour, error)
	UpdateTour(ctx context.Context, tourID int64, in backend.TourInput) (*backend.Tour, error)
	DeleteTour(ctx context.Context, tourID int64) error
}

// APIFactory returns a TourAPI that acts with the given bearer token.
type APIFactory func(token string) TourAPI

// TourService handles tour CRUD and the participant roster.
type TourService interface {
	List(ctx context.Context, token string) ([]backend.Tour, error)
	Get(ctx context.Context, token string, tourID int64) (*backend.Tour, error)
	Create(ctx context.Context, token string, in backend.TourInput) (*backend.Tour, error)
	Update(ctx context.Context, token string, tourID int64, in backend.TourInput) (*backend.Tour, error)
	Delete(ctx context.Context, token string, tourID int64) error
	Roster(ctx context.Context, token string, tourID int64) (*backend.Tour, []backend.Participant, error)
}

type tourService struct {
	api APIFactory
}

// NewTourService creates a new tour service.
func NewTourService(api APIFactory) TourService {
	return &tourService{api: api}
}

// List returns every tour, earliest JST start date first. Tours starting
// on the same day keep the backend's order.
func (s *tourService) List(ctx context.Context, token string) ([]backend.Tour, error) {
	tours, err := s.api(token).ListTours(ctx)
	if err != nil {
		return nil, backendError(err, "listing tours")
	}
	sort.SliceStable(tours, func(i, j int) bool {
		return startKey(tours[i]) < startKey(tours[j])
	})
	return tours, nil
}

// startKey is the tour's JST start date. The backend mixes plain dates and
// UTC instants, and an instant's UTC date can be the day before its JST
// date. Unreadable values sort by their raw text.
func startKey(t backend.Tour) string {
	if d, err := jst.CalendarDate(t.StartDate); err == nil {
		return d
	}
	return t.StartDate
}

// Get returns one tour.
func (s *tourService) Get(ctx context.Context, token string, tourID int64) (*backend.Tour, error) {
	tour, err := s.api(token).GetTour(ctx, tourID)
	if err != nil {
		return nil, backendError(err, "loading tour")
	}
	return tour, nil
}

// Create adds a tour.
func (s *tourService) Create(ctx context.Context, token string, in backend.TourInput) (*backend.Tour, error) {
	tour, err := s.api(token).CreateTour(ctx, in)
	if err != nil {
		return nil, backendError(err, "creating tour")
	}
	return tour, nil
}

// Update replaces a tour's editable fields.
func (s *tourService) Update(ctx context.Context, token string, tourID int64, in backend.TourInput) (*backend.Tour, error) {
	tour, err := s.api(token).UpdateTour(ctx, tourID, in)
	if err != nil {
		return nil, backendError(err, "updating tour")
	}
	return tour, nil
}

// Delete removes a tour.
func (s *tourService) Delete(ctx context.Context, token string, tourID int64) error {
	if err := s.api(token).DeleteTour(ctx, tourID); err != nil {
		return backendError(err, "deleting tour")
	}
	return nil
}

// Roster returns a tour together with its assigned participants.
func (s *tourService) Roster(ctx context.Context, token string, tourID int64) (*backend.Tour, []backend.Participant, error) {
	api := s.api(token)
	tour, err := api.GetTour(ctx, tourID)
	if err != nil {
		return nil, nil, backendError(err, "loading tour")
	}
	participants, err := api.ListParticipants(ctx, tourID)
	if err != nil {
		return nil, nil, backendError(err, "loading participants")
	}
	return tour, participants, nil
}

func backendError(err error, what string) error {
	switch backend.StatusOf(err) {
	case 404:
		return apperror.NewNotFound("tour not found")
	case 401:
		return apperror.NewUnauthorized("your session has expired, please sign in again")
	case 403:
		return apperror.NewForbidden("you do not have access to this tour")
	case 400, 422:
		return apperror.NewValidation(backendMessage(err, "the backend rejected the tour"))
	}
	return apperror.NewBadGateway("the backend could not complete the request", fmt.Errorf("%s: %w", what, err))
}

// backendMessage is the backend's own error text, or fallback when it sent
// none.
func backendMessage(err error, fallback string) string {
	var be *backend.Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}
