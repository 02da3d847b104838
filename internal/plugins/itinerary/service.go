package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tourbench/console/internal/apperror"
	"github.com/tourbench/console/internal/backend"
)

// TourAPI is the part of the backend client the itinerary uses. It is
// satisfied by *backend.Client.
type TourAPI interface {
	GetTour(ctx context.Context, tourID int64) (*backend.Tour, error)
	ListActivities(ctx context.Context, tourID int64) ([]backend.Activity, error)
	CreateActivity(ctx context.Context, tourID int64, body any) (*backend.Activity, error)
	UpdateActivity(ctx context.Context, tourID, activityID int64, body any) (*backend.Activity, error)
	DeleteActivity(ctx context.Context, tourID, activityID int64) error
	ListCompanies(ctx context.Context) ([]backend.Company, error)
}

// APIFactory returns a TourAPI that acts with the given bearer token.
type APIFactory func(token string) TourAPI

// Workspace is one request's view of a session's itinerary: the tour, its
// companies, and the controller restored from the session's snapshot.
type Workspace struct {
	SessionID  string
	Tour       backend.Tour
	Bounds     Bounds
	Companies  []backend.Company
	Controller *Controller
}

// ItineraryService loads and saves itinerary workspaces.
type ItineraryService interface {
	// Open fetches the tour, companies and activities and restores the
	// session's editing state.
	Open(ctx context.Context, token, sessionID string, tourID int64) (*Workspace, error)

	// Save persists the workspace's editing state.
	Save(ctx context.Context, ws *Workspace) error

	// Lock claims the session's in-flight slot for a tour; a second claim
	// while the first is held fails with a 409.
	Lock(ctx context.Context, sessionID string, tourID int64) (release func(), err error)

	// Itinerary returns a tour and its activities for export.
	Itinerary(ctx context.Context, token string, tourID int64) (*backend.Tour, []Activity, error)
}

// itineraryService implements ItineraryService on the backend client and a
// draft store.
type itineraryService struct {
	api   APIFactory
	store DraftStore
}

// NewItineraryService creates the itinerary service.
func NewItineraryService(api APIFactory, store DraftStore) ItineraryService {
	return &itineraryService{api: api, store: store}
}

// Open implements ItineraryService.
func (s *itineraryService) Open(ctx context.Context, token, sessionID string, tourID int64) (*Workspace, error) {
	api := s.api(token)

	tour, activities, err := s.load(ctx, api, tourID)
	if err != nil {
		return nil, err
	}
	companies, err := api.ListCompanies(ctx)
	if err != nil {
		return nil, backendError(err, "loading companies")
	}

	bounds, err := BoundsForTour(tour.StartDate, tour.EndDate)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("tour %d: %w", tourID, err))
	}

	snap, err := s.store.Load(ctx, sessionID, tourID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	collab := &tourCollaborator{api: api, tourID: tourID}
	ctrl := Restore(collab, Options{
		TourID:     tourID,
		Bounds:     bounds,
		Companies:  companies,
		Activities: activities,
	}, snap)

	return &Workspace{
		SessionID:  sessionID,
		Tour:       *tour,
		Bounds:     bounds,
		Companies:  companies,
		Controller: ctrl,
	}, nil
}

// Save implements ItineraryService.
func (s *itineraryService) Save(ctx context.Context, ws *Workspace) error {
	if err := s.store.Save(ctx, ws.SessionID, ws.Tour.ID, ws.Controller.Snapshot()); err != nil {
		return apperror.NewInternal(err)
	}
	return nil
}

// Lock implements ItineraryService.
func (s *itineraryService) Lock(ctx context.Context, sessionID string, tourID int64) (func(), error) {
	release, err := s.store.Lock(ctx, sessionID, tourID)
	if errors.Is(err, ErrSubmitInFlight) {
		return nil, apperror.NewConflict("a save is already in progress for this itinerary")
	}
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return release, nil
}

// Itinerary implements ItineraryService.
func (s *itineraryService) Itinerary(ctx context.Context, token string, tourID int64) (*backend.Tour, []Activity, error) {
	return s.load(ctx, s.api(token), tourID)
}

func (s *itineraryService) load(ctx context.Context, api TourAPI, tourID int64) (*backend.Tour, []Activity, error) {
	tour, err := api.GetTour(ctx, tourID)
	if err != nil {
		return nil, nil, backendError(err, "loading tour")
	}
	activities, err := api.ListActivities(ctx, tourID)
	if err != nil {
		return nil, nil, backendError(err, "loading activities")
	}
	return tour, activities, nil
}

// tourCollaborator binds the backend client to one tour.
type tourCollaborator struct {
	api    TourAPI
	tourID int64
}

func (t *tourCollaborator) List(ctx context.Context) ([]Activity, error) {
	return t.api.ListActivities(ctx, t.tourID)
}

func (t *tourCollaborator) Create(ctx context.Context, p Payload) (*Activity, error) {
	a, err := t.api.CreateActivity(ctx, t.tourID, p)
	if err == nil {
		slog.Info("activity created",
			slog.Int64("tour_id", t.tourID),
			slog.Int64("activity_id", a.ID),
			slog.String("type", string(p.Type())),
		)
	}
	return a, err
}

func (t *tourCollaborator) Update(ctx context.Context, id int64, p Patch) (*Activity, error) {
	a, err := t.api.UpdateActivity(ctx, t.tourID, id, p)
	if err == nil {
		slog.Info("activity updated",
			slog.Int64("tour_id", t.tourID),
			slog.Int64("activity_id", id),
			slog.Any("fields", p.Keys()),
		)
	}
	return a, err
}

func (t *tourCollaborator) Delete(ctx context.Context, id int64) error {
	err := t.api.DeleteActivity(ctx, t.tourID, id)
	if err == nil {
		slog.Info("activity deleted",
			slog.Int64("tour_id", t.tourID),
			slog.Int64("activity_id", id),
		)
	}
	return err
}

// backendError maps a backend failure to the error the operator sees.
func backendError(err error, what string) error {
	switch backend.StatusOf(err) {
	case 404:
		return apperror.NewNotFound("tour not found")
	case 401:
		return apperror.NewUnauthorized("your session has expired, please sign in again")
	case 403:
		return apperror.NewForbidden("you do not have access to this tour")
	}
	return apperror.NewBadGateway("the backend could not complete the request", fmt.Errorf("%s: %w", what, err))
}
