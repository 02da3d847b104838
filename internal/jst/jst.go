// Package jst converts between the backend's UTC wire timestamps and the
// Japan Standard Time wall-clock strings the console shows and edits.
//
// The backend stores and transmits every instant as an RFC 3339 UTC string.
// The calendar widget treats all times as naive local wall clock, and the
// datetime-local / date inputs want offset-less strings, so every value
// crossing the browser boundary goes through this package. Japan has no
// daylight saving time, which makes a fixed +09:00 zone exact.
package jst

import (
	"fmt"
	"time"
)

// Location is the fixed JST zone (+09:00).
var Location = time.FixedZone("JST", 9*60*60)

// Layouts for the presentation formats. The local layout carries an
// optional fractional part so sub-second input precision survives a
// round trip without printing trailing zeros.
const (
	localLayout    = "2006-01-02T15:04:05.999999999"
	secondsLayout  = "2006-01-02T15:04:05"
	minuteLayout   = "2006-01-02T15:04"
	dateLayout     = "2006-01-02"
	displayLayout  = "2006-01-02 15:04"
	dateListLayout = "Jan 2, 2006"
	dateTimeLayout = "Jan 2, 2006 15:04"
)

// MalformedTimeError reports an input string that could not be parsed in the
// expected format. It is never recovered from inside this package: a bad
// timestamp from the backend must surface instead of rendering a wrong time.
type MalformedTimeError struct {
	Input  string
	Format string
	Err    error
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("malformed %s: %q", e.Format, e.Input)
}

func (e *MalformedTimeError) Unwrap() error {
	return e.Err
}

// ParseUTC parses an RFC 3339 instant from the backend and normalizes it
// to UTC. Offsets other than Z are accepted and converted.
func ParseUTC(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, &MalformedTimeError{Input: s, Format: "ISO instant", Err: err}
	}
	return t.UTC(), nil
}

// FormatUTC renders an instant in the wire format (UTC, Z suffix).
func FormatUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// UTCToJSTString converts a wire instant into the offset-less JST wall clock
// string the calendar widget consumes, e.g. "2025-09-29T10:30:00Z" becomes
// "2025-09-29T19:30:00".
func UTCToJSTString(utc string) (string, error) {
	t, err := ParseUTC(utc)
	if err != nil {
		return "", err
	}
	return t.In(Location).Format(localLayout), nil
}

// ParseLocal parses a naive wall-clock string as produced by the calendar
// widget ("2025-04-03T09:00", "2025-04-03T09:00:00", with or without a
// fractional second). The result is tagged UTC but must be read as JST wall
// clock; pass it to JSTDateToUTC to get the real instant.
func ParseLocal(s string) (time.Time, error) {
	for _, layout := range []string{secondsLayout, minuteLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &MalformedTimeError{Input: s, Format: "local date-time"}
}

// JSTDateToUTC takes a time whose wall-clock fields represent JST, whatever
// Location it happens to carry, and returns the matching UTC instant in wire
// format. It is the inverse of UTCToJSTString composed with ParseLocal.
func JSTDateToUTC(local time.Time) string {
	y, mo, d := local.Date()
	h, mi, s := local.Clock()
	return FormatUTC(time.Date(y, mo, d, h, mi, s, local.Nanosecond(), Location))
}

// LocalToUTC parses a calendar-local string and converts it to wire format.
func LocalToUTC(s string) (string, error) {
	t, err := ParseLocal(s)
	if err != nil {
		return "", err
	}
	return JSTDateToUTC(t), nil
}

// ToDateTimeLocalValue formats a wire instant for an <input type="datetime-local">
// showing JST at minute precision.
func ToDateTimeLocalValue(utc string) (string, error) {
	t, err := ParseUTC(utc)
	if err != nil {
		return "", err
	}
	return t.In(Location).Format(minuteLayout), nil
}

// FromDateTimeLocalValue converts a datetime-local value entered in JST back
// to wire format. An empty value is an empty field, not an error.
func FromDateTimeLocalValue(v string) (string, error) {
	if v == "" {
		return "", nil
	}
	for _, layout := range []string{minuteLayout, secondsLayout} {
		if t, err := time.ParseInLocation(layout, v, Location); err == nil {
			return FormatUTC(t), nil
		}
	}
	return "", &MalformedTimeError{Input: v, Format: "datetime-local value"}
}

// ToDateValue formats a wire instant as the JST calendar date for an
// <input type="date">. Time of day is dropped.
func ToDateValue(utc string) (string, error) {
	t, err := ParseUTC(utc)
	if err != nil {
		return "", err
	}
	return t.In(Location).Format(dateLayout), nil
}

// FromDateValue converts a JST calendar date to the wire instant of its
// midnight. An empty value yields an empty string.
func FromDateValue(d string) (string, error) {
	if d == "" {
		return "", nil
	}
	t, err := StartOfDay(d)
	if err != nil {
		return "", err
	}
	return FormatUTC(t), nil
}

// StartOfDay returns midnight JST of a YYYY-MM-DD date as an instant.
func StartOfDay(d string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, d, Location)
	if err != nil {
		return time.Time{}, &MalformedTimeError{Input: d, Format: "date value", Err: err}
	}
	return t, nil
}

// CalendarDate normalizes a tour date into its JST calendar date. The
// backend sends tour dates either as plain YYYY-MM-DD or as full instants
// depending on how the tour was created, so both are accepted.
func CalendarDate(s string) (string, error) {
	if len(s) == len(dateLayout) {
		if _, err := StartOfDay(s); err != nil {
			return "", err
		}
		return s, nil
	}
	return ToDateValue(s)
}

// FormatJST renders a wire instant in JST using a Go time layout.
func FormatJST(utc, layout string) (string, error) {
	t, err := ParseUTC(utc)
	if err != nil {
		return "", err
	}
	return t.In(Location).Format(layout), nil
}

// FormatJSTWithLabel renders "2006-01-02 15:04 JST".
func FormatJSTWithLabel(utc string) (string, error) {
	s, err := FormatJST(utc, displayLayout)
	if err != nil {
		return "", err
	}
	return s + " JST", nil
}

// FormatDateJST renders a date for lists and tables ("Apr 3, 2025").
func FormatDateJST(utc string) (string, error) {
	return FormatJST(utc, dateListLayout)
}

// FormatDateTimeJST renders a date with time for lists ("Apr 3, 2025 09:00").
func FormatDateTimeJST(utc string) (string, error) {
	return FormatJST(utc, dateTimeLayout)
}
