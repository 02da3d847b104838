package itinerary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourbench/console/internal/backend"
)

func TestBoundsForTour(t *testing.T) {
	b, err := BoundsForTour("2025-04-01", "2025-04-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 31, 15, 0, 0, 0, time.UTC), b.Start.UTC())
	assert.Equal(t, time.Date(2025, 4, 10, 15, 0, 0, 0, time.UTC), b.End.UTC())
	assert.Equal(t, "Apr 1, 2025 to Apr 10, 2025", b.String())
}

func TestBoundsForTour_InstantDates(t *testing.T) {
	// Midnight JST as sent by tours created through the date picker.
	b, err := BoundsForTour("2025-03-31T15:00:00.000Z", "2025-04-09T15:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "Apr 1, 2025 to Apr 10, 2025", b.String())
}

func TestBoundsForTour_Invalid(t *testing.T) {
	_, err := BoundsForTour("2025-04-10", "2025-04-01")
	assert.Error(t, err)

	_, err = BoundsForTour("soon", "2025-04-01")
	assert.ErrorContains(t, err, "tour start date")
}

func TestBounds_Admits(t *testing.T) {
	b, err := BoundsForTour("2025-04-01", "2025-04-01")
	require.NoError(t, err)
	at := func(h int) time.Time { return b.Start.Add(time.Duration(h) * time.Hour) }

	assert.True(t, b.Admits(at(0), at(24)))
	assert.True(t, b.Admits(at(9), at(10)))
	assert.False(t, b.Admits(at(-1), at(1)))
	assert.False(t, b.Admits(at(23), at(25)))
	assert.False(t, b.Admits(at(24), at(25)))

	assert.True(t, Bounds{}.Admits(at(-100), at(100)))
}

func TestPatch_Keys(t *testing.T) {
	s := "2025-04-03T00:00:00Z"
	assert.Equal(t, []string{"start_time"}, Patch{StartTime: &s}.Keys())
	assert.Empty(t, Patch{}.Keys())
}

func TestPayload_PatchCarriesEveryField(t *testing.T) {
	p := Payload{
		Details:   CompanyVisit{CompanyID: 7},
		Title:     "Visit",
		StartTime: "2025-04-03T00:00:00Z",
		EndTime:   "2025-04-03T01:00:00Z",
	}
	patch := p.Patch()
	assert.Equal(t, []string{
		"type", "title", "description", "start_time", "end_time",
		"location_details", "survey_url", "company_id",
	}, patch.Keys())
	assert.Equal(t, backend.ActivityCompanyVisit, *patch.Type)
}

func TestDetails_Types(t *testing.T) {
	cases := map[backend.ActivityType]Details{
		backend.ActivityCompanyVisit: CompanyVisit{},
		backend.ActivityDiscussion:   Discussion{},
		backend.ActivityHotel:        Hotel{},
		backend.ActivityRestaurant:   Restaurant{},
		backend.ActivityTravel:       Travel{},
	}
	for want, d := range cases {
		assert.Equal(t, want, d.Type())
	}
}

func TestPersistenceError_Message(t *testing.T) {
	err := &PersistenceError{Op: "update", ActivityID: 4, Err: assert.AnError}
	assert.Contains(t, err.Error(), "update activity 4")
	assert.ErrorIs(t, err, assert.AnError)
}
