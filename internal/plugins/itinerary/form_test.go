package itinerary

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourbench/console/internal/backend"
)

func testScope(t *testing.T) Scope {
	return Scope{
		Bounds:     sampleBounds(t),
		Companies:  []backend.Company{{ID: 7, Name: "Acme Robotics"}},
		Activities: sampleActivities(),
	}
}

func validForm(typ backend.ActivityType) Form {
	return Form{
		Type:      string(typ),
		Title:     "Something",
		StartTime: "2025-04-03T00:00:00Z",
		EndTime:   "2025-04-03T01:00:00Z",
	}
}

func payloadKeys(t *testing.T, p Payload) map[string]any {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	var keys map[string]any
	require.NoError(t, json.Unmarshal(raw, &keys))
	return keys
}

func TestPayload_TypeSpecificKeys(t *testing.T) {
	for _, typ := range backend.ActivityTypes {
		t.Run(string(typ), func(t *testing.T) {
			// Stale values are left in both id fields on purpose.
			f := validForm(typ)
			f.CompanyID = "7"
			f.LinkedActivityID = "1"

			p, err := f.Payload(testScope(t))
			require.NoError(t, err)
			keys := payloadKeys(t, p)

			if typ == backend.ActivityCompanyVisit {
				assert.Equal(t, float64(7), keys["company_id"])
			} else {
				assert.NotContains(t, keys, "company_id")
			}
			if typ == backend.ActivityDiscussion {
				assert.Equal(t, float64(1), keys["linked_activity_id"])
			} else {
				assert.NotContains(t, keys, "linked_activity_id")
			}
		})
	}
}

func TestPayload_StandaloneDiscussion(t *testing.T) {
	p, err := validForm(backend.ActivityDiscussion).Payload(testScope(t))
	require.NoError(t, err)
	assert.Equal(t, Discussion{}, p.Details)
	assert.NotContains(t, payloadKeys(t, p), "linked_activity_id")
}

func TestPayload_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Form)
		field string
	}{
		{"missing title", func(f *Form) { f.Title = "   " }, FieldTitle},
		{"missing type", func(f *Form) { f.Type = "" }, FieldType},
		{"unknown type", func(f *Form) { f.Type = "Karaoke" }, FieldType},
		{"missing start", func(f *Form) { f.StartTime = "" }, FieldStartTime},
		{"bad end", func(f *Form) { f.EndTime = "tomorrow" }, FieldEndTime},
		{"end before start", func(f *Form) { f.EndTime = "2025-04-02T23:00:00Z" }, FieldEndTime},
		{"before tour", func(f *Form) { f.StartTime = "2025-03-31T14:00:00Z" }, FieldStartTime},
		{"after tour", func(f *Form) { f.EndTime = "2025-04-10T15:30:00Z" }, FieldEndTime},
		{"company missing", func(f *Form) { f.SetType(backend.ActivityCompanyVisit) }, FieldCompanyID},
		{"company unknown", func(f *Form) { f.SetType(backend.ActivityCompanyVisit); f.CompanyID = "8" }, FieldCompanyID},
		{"company not a number", func(f *Form) { f.SetType(backend.ActivityCompanyVisit); f.CompanyID = "abc" }, FieldCompanyID},
		{"link to non visit", func(f *Form) { f.SetType(backend.ActivityDiscussion); f.LinkedActivityID = "3" }, FieldLinkedActivityID},
		{"survey not http", func(f *Form) { f.SurveyURL = "ftp://example.com/s" }, FieldSurveyURL},
		{"survey relative", func(f *Form) { f.SurveyURL = "/survey/1" }, FieldSurveyURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm(backend.ActivityHotel)
			tt.edit(&f)
			_, err := f.Payload(testScope(t))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.True(t, verr.Has(tt.field), "problems: %v", verr.Problems)
		})
	}
}

func TestPayload_BoundaryInstants(t *testing.T) {
	// Midnight JST of the first day to midnight JST after the last day.
	f := validForm(backend.ActivityHotel)
	f.StartTime = "2025-03-31T15:00:00Z"
	f.EndTime = "2025-04-10T15:00:00Z"
	_, err := f.Payload(testScope(t))
	assert.NoError(t, err)
}

func TestPayload_NormalizesTimesAndTitle(t *testing.T) {
	f := validForm(backend.ActivityTravel)
	f.Title = "  Shinkansen  "
	f.StartTime = "2025-04-03T09:00:00+09:00"
	f.EndTime = "2025-04-03T10:30:00.000Z"

	p, err := f.Payload(testScope(t))
	require.NoError(t, err)
	assert.Equal(t, "Shinkansen", p.Title)
	assert.Equal(t, "2025-04-03T00:00:00Z", p.StartTime)
	assert.Equal(t, "2025-04-03T10:30:00Z", p.EndTime)
}

func TestSetType_ClearsIrrelevantFields(t *testing.T) {
	f := Form{CompanyID: "7", LinkedActivityID: "1"}

	f.SetType(backend.ActivityCompanyVisit)
	assert.Equal(t, "7", f.CompanyID)
	assert.Empty(t, f.LinkedActivityID)

	f.LinkedActivityID = "1"
	f.SetType(backend.ActivityDiscussion)
	assert.Empty(t, f.CompanyID)
	assert.Equal(t, "1", f.LinkedActivityID)

	f.SetType(backend.ActivityRestaurant)
	assert.Empty(t, f.CompanyID)
	assert.Empty(t, f.LinkedActivityID)
}

func TestLinkTargets_ExcludesSelf(t *testing.T) {
	activities := append(sampleActivities(), Activity{
		ID: 4, Type: backend.ActivityCompanyVisit, Title: "Second visit",
		StartTime: "2025-04-03T00:00:00Z", EndTime: "2025-04-03T02:00:00Z",
	})

	for _, editing := range []int64{0, 1, 2, 4} {
		targets := LinkTargets(activities, editing)
		for _, a := range targets {
			assert.NotEqual(t, editing, a.ID)
			assert.Equal(t, backend.ActivityCompanyVisit, a.Type)
		}
	}
	assert.Len(t, LinkTargets(activities, 0), 2)
	assert.Len(t, LinkTargets(activities, 1), 1)
}

func TestPayload_SelfLinkRejected(t *testing.T) {
	// An activity with a corrupted self link cannot be saved as is.
	activities := append(sampleActivities(), Activity{
		ID: 4, Type: backend.ActivityCompanyVisit, Title: "Visit",
		StartTime: "2025-04-03T00:00:00Z", EndTime: "2025-04-03T02:00:00Z",
	})
	s := testScope(t)
	s.Activities = activities
	s.EditingID = 4

	f := validForm(backend.ActivityDiscussion)
	f.LinkedActivityID = "4"
	_, err := f.Payload(s)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(FieldLinkedActivityID))
}

func TestFields_ConditionalSelectors(t *testing.T) {
	names := func(specs []FieldSpec) []string {
		var out []string
		for _, s := range specs {
			out = append(out, s.Name)
		}
		return out
	}

	visit := names(Fields(backend.ActivityCompanyVisit))
	assert.Contains(t, visit, FieldCompanyID)
	assert.NotContains(t, visit, FieldLinkedActivityID)

	talk := names(Fields(backend.ActivityDiscussion))
	assert.Contains(t, talk, FieldLinkedActivityID)
	assert.NotContains(t, talk, FieldCompanyID)

	hotel := names(Fields(backend.ActivityHotel))
	assert.NotContains(t, hotel, FieldCompanyID)
	assert.NotContains(t, hotel, FieldLinkedActivityID)

	for _, s := range Fields(backend.ActivityCompanyVisit) {
		switch s.Name {
		case FieldType, FieldTitle, FieldStartTime, FieldEndTime, FieldCompanyID:
			assert.True(t, s.Required, s.Name)
		default:
			assert.False(t, s.Required, s.Name)
		}
	}
}
