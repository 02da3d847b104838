package jst

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUTCToJSTString(t *testing.T) {
	got, err := UTCToJSTString("2025-09-29T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-09-29T19:30:00", got)

	// Crossing midnight moves the calendar date forward.
	got, err = UTCToJSTString("2025-04-02T16:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-03T01:00:00", got)

	// Sub-second precision is kept.
	got, err = UTCToJSTString("2025-04-03T00:00:00.250Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-03T09:00:00.25", got)

	// Non-UTC offsets are normalized.
	got, err = UTCToJSTString("2025-04-03T09:00:00+09:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-03T09:00:00", got)
}

func TestUTCToJSTString_Malformed(t *testing.T) {
	for _, in := range []string{"", "not a date", "2025-04-03", "2025-13-01T00:00:00Z"} {
		_, err := UTCToJSTString(in)
		var mErr *MalformedTimeError
		require.Error(t, err, in)
		assert.True(t, errors.As(err, &mErr), "expected MalformedTimeError for %q", in)
	}
}

func TestJSTDateToUTC_IgnoresLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		ny = time.FixedZone("EST", -5*60*60)
	}
	// Same wall clock in three different zones means the same JST instant.
	for _, loc := range []*time.Location{time.UTC, Location, ny} {
		local := time.Date(2025, 4, 3, 9, 0, 0, 0, loc)
		assert.Equal(t, "2025-04-03T00:00:00Z", JSTDateToUTC(local))
	}
}

func TestRoundTrip_DisplayFormat(t *testing.T) {
	start := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 500; i++ {
		instant := start.Add(time.Duration(i) * 37 * time.Minute)
		utc := FormatUTC(instant)

		local, err := UTCToJSTString(utc)
		require.NoError(t, err)
		parsed, err := ParseLocal(local)
		require.NoError(t, err)

		assert.Equal(t, utc, JSTDateToUTC(parsed))
	}
}

func TestParseLocal(t *testing.T) {
	for _, in := range []string{"2025-04-03T09:00", "2025-04-03T09:00:00", "2025-04-03T09:00:00.000"} {
		got, err := ParseLocal(in)
		require.NoError(t, err, in)
		assert.Equal(t, 9, got.Hour())
	}
	_, err := ParseLocal("03/04/2025 09:00")
	assert.Error(t, err)
}

func TestLocalToUTC(t *testing.T) {
	got, err := LocalToUTC("2025-04-03T10:00:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-03T01:00:00Z", got)
}

func TestDateTimeLocalValue_RoundTrip(t *testing.T) {
	v, err := ToDateTimeLocalValue("2025-04-03T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-03T09:00", v)

	back, err := FromDateTimeLocalValue(v)
	require.NoError(t, err)
	assert.Equal(t, "2025-04-03T00:00:00Z", back)

	// Seconds are dropped by the minute format.
	v, err = ToDateTimeLocalValue("2025-04-03T00:00:42Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-03T09:00", v)
}

func TestFromDateTimeLocalValue_EmptyAndMalformed(t *testing.T) {
	got, err := FromDateTimeLocalValue("")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	_, err = FromDateTimeLocalValue("tomorrow")
	var mErr *MalformedTimeError
	assert.ErrorAs(t, err, &mErr)
}

func TestDateValue_RoundTrip(t *testing.T) {
	// 20:00 UTC on the 31st is already April 1st in Tokyo.
	d, err := ToDateValue("2025-03-31T20:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", d)

	back, err := FromDateValue(d)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-31T15:00:00Z", back)

	again, err := ToDateValue(back)
	require.NoError(t, err)
	assert.Equal(t, d, again)
}

func TestFromDateValue_Malformed(t *testing.T) {
	_, err := FromDateValue("2025-02-30")
	var mErr *MalformedTimeError
	assert.ErrorAs(t, err, &mErr)

	got, err := FromDateValue("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCalendarDate(t *testing.T) {
	got, err := CalendarDate("2025-04-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", got)

	got, err = CalendarDate("2025-03-31T15:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", got)

	_, err = CalendarDate("yesterday")
	assert.Error(t, err)
}

func TestDisplayFormats(t *testing.T) {
	s, err := FormatJSTWithLabel("2025-04-03T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-03 09:00 JST", s)

	s, err = FormatDateJST("2025-04-03T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "Apr 3, 2025", s)

	s, err = FormatDateTimeJST("2025-04-03T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "Apr 3, 2025 09:00", s)
}
