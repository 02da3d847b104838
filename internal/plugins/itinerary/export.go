package itinerary

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/tourbench/console/internal/backend"
	"github.com/tourbench/console/internal/jst"
	"github.com/tourbench/console/internal/sanitize"
)

const icsProductID = "-//Tour Benchmark//Itinerary Export//EN"

// activityUID is stable across exports so calendar clients update events
// in place when a feed is re-imported.
func activityUID(tourID, activityID int64) string {
	name := fmt.Sprintf("tourbench:tour:%d:activity:%d", tourID, activityID)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String() + "@tourbench"
}

// sortedByStart returns the activities ordered by start time, failing on
// the first malformed timestamp.
func sortedByStart(activities []Activity) ([]Activity, error) {
	starts := make(map[int64]time.Time, len(activities))
	for _, a := range activities {
		t, err := jst.ParseUTC(a.StartTime)
		if err != nil {
			return nil, fmt.Errorf("activity %d start: %w", a.ID, err)
		}
		starts[a.ID] = t
	}
	out := slices.Clone(activities)
	slices.SortStableFunc(out, func(a, b Activity) int {
		return starts[a.ID].Compare(starts[b.ID])
	})
	return out, nil
}

// WriteICS writes the itinerary as an iCalendar feed with one VEVENT per
// activity. now stamps DTSTAMP.
func WriteICS(w io.Writer, tour backend.Tour, activities []Activity, now time.Time) error {
	sorted, err := sortedByStart(activities)
	if err != nil {
		return err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)
	cal.Props.SetText("X-WR-CALNAME", tour.Name)
	cal.Props.SetText("X-WR-TIMEZONE", "Asia/Tokyo")

	byID := make(map[int64]Activity, len(sorted))
	for _, a := range sorted {
		byID[a.ID] = a
	}

	for _, a := range sorted {
		ve, err := toVEvent(tour, a, byID, now)
		if err != nil {
			return err
		}
		cal.Children = append(cal.Children, ve)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding itinerary to iCal format: %w", err)
	}
	return nil
}

func toVEvent(tour backend.Tour, a Activity, byID map[int64]Activity, now time.Time) (*ical.Component, error) {
	start, err := jst.ParseUTC(a.StartTime)
	if err != nil {
		return nil, fmt.Errorf("activity %d start: %w", a.ID, err)
	}
	end, err := jst.ParseUTC(a.EndTime)
	if err != nil {
		return nil, fmt.Errorf("activity %d end: %w", a.ID, err)
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, activityUID(tour.ID, a.ID))
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, end)
	ve.Props.SetText(ical.PropSummary, a.Title)
	ve.Props.SetText(ical.PropCategories, AppearanceOf(a.Type).Label)

	var desc []string
	if text := sanitize.PlainText(a.Description); text != "" {
		desc = append(desc, text)
	}
	if a.LinkedActivityID != nil {
		if linked, ok := byID[*a.LinkedActivityID]; ok {
			desc = append(desc, "Follows: "+linked.Title)
		}
	}
	if len(desc) > 0 {
		ve.Props.SetText(ical.PropDescription, strings.Join(desc, "\n\n"))
	}

	if loc := locationOf(a); loc != "" {
		ve.Props.SetText(ical.PropLocation, loc)
	}
	if u, err := url.Parse(a.SurveyURL); a.SurveyURL != "" && err == nil {
		ve.Props.SetURI(ical.PropURL, u)
	}
	return ve, nil
}

// locationOf combines the company and the free-text location.
func locationOf(a Activity) string {
	switch {
	case a.CompanyName != "" && a.LocationDetails != "":
		return a.CompanyName + ", " + a.LocationDetails
	case a.CompanyName != "":
		return a.CompanyName
	}
	return a.LocationDetails
}

// CSVHeader is the column set of the itinerary CSV export.
var CSVHeader = []string{
	"Date", "Start (JST)", "End (JST)", "Type", "Title", "Company",
	"Location", "Linked Visit", "Survey URL", "Description",
}

// WriteCSV writes the itinerary as CSV with JST times.
func WriteCSV(w io.Writer, activities []Activity) error {
	sorted, err := sortedByStart(activities)
	if err != nil {
		return err
	}
	byID := make(map[int64]Activity, len(sorted))
	for _, a := range sorted {
		byID[a.ID] = a
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, a := range sorted {
		date, err := jst.FormatJST(a.StartTime, "2006-01-02")
		if err != nil {
			return err
		}
		start, err := jst.FormatJST(a.StartTime, "15:04")
		if err != nil {
			return err
		}
		end, err := jst.FormatJST(a.EndTime, "15:04")
		if err != nil {
			return err
		}
		linked := ""
		if a.LinkedActivityID != nil {
			if l, ok := byID[*a.LinkedActivityID]; ok {
				linked = l.Title
			} else {
				linked = "#" + strconv.FormatInt(*a.LinkedActivityID, 10)
			}
		}
		row := []string{
			date, start, end, AppearanceOf(a.Type).Label, a.Title, a.CompanyName,
			a.LocationDetails, linked, a.SurveyURL, sanitize.PlainText(a.Description),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
