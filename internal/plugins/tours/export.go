package tours

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/tourbench/console/internal/backend"
	"github.com/tourbench/console/internal/jst"
)

var participantHeader = []string{
	"Tour Name",
	"Tour Description",
	"Tour Start Date",
	"Tour End Date",
	"Participant First Name",
	"Participant Last Name",
	"Participant Email",
	"Assignment Date",
	"Survey URL",
}

// WriteParticipantsCSV writes one row per participant. Dates are JST
// calendar dates. A participant whose assignment time cannot be read keeps
// an empty Assignment Date rather than failing the whole export.
func WriteParticipantsCSV(w io.Writer, tour backend.Tour, participants []backend.Participant) error {
	start, err := jst.CalendarDate(tour.StartDate)
	if err != nil {
		return fmt.Errorf("tour start: %w", err)
	}
	end, err := jst.CalendarDate(tour.EndDate)
	if err != nil {
		return fmt.Errorf("tour end: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(participantHeader); err != nil {
		return err
	}
	for _, p := range participants {
		assigned, _ := jst.CalendarDate(p.AssignedAt)
		row := []string{
			tour.Name,
			tour.Description,
			start,
			end,
			p.User.FirstName,
			p.User.LastName,
			p.User.Email,
			assigned,
			tour.SurveyURL,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var unsafeFilename = regexp.MustCompile(`[^\p{L}\p{N} ._-]+`)

// ParticipantsFilename is "<tour name>_participants_<JST date>.csv".
func ParticipantsFilename(tourName string, now time.Time) string {
	name := unsafeFilename.ReplaceAllString(tourName, "")
	if name == "" {
		name = "tour"
	}
	return fmt.Sprintf("%s_participants_%s.csv", name, now.In(jst.Location).Format("2006-01-02"))
}
