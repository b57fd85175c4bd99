package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccurrenceKeyRoundTrip(t *testing.T) {
	key := OccurrenceKey{TemplateID: "tA", Date: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "tA_2024-05-06", key.String())

	parsed, err := ParseOccurrenceKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key, parsed)
}

func TestParseOccurrenceKeyUnderscoredTemplateID(t *testing.T) {
	parsed, err := ParseOccurrenceKey("morning_yoga_2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, "morning_yoga", parsed.TemplateID)
	assert.Equal(t, "2024-05-06", parsed.Date.Format(DateLayout))
}

func TestParseOccurrenceKeyMalformed(t *testing.T) {
	cases := []string{
		"",
		"tA",
		"_2024-05-06",
		"tA_",
		"tA_06-05-2024",
		"tA_2024-13-40",
		"tA 2024-05-06",
	}
	for _, raw := range cases {
		_, err := ParseOccurrenceKey(raw)
		assert.Error(t, err, "raw %q", raw)
	}
}

func TestAttendanceRecordContains(t *testing.T) {
	record := AttendanceRecord{PresentStudentIDs: []string{"s1", "s2"}}
	assert.True(t, record.Contains("s1"))
	assert.False(t, record.Contains("s3"))
	keyed := AttendanceRecord{
		TemplateID: "tA",
		Date:       time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "tA_2024-05-06", keyed.Key().String())
}

func TestClassTemplateRecursOn(t *testing.T) {
	tmpl := ClassTemplate{DaysOfWeek: []int64{1, 3}}
	assert.True(t, tmpl.RecursOn(time.Monday))
	assert.True(t, tmpl.RecursOn(time.Wednesday))
	assert.False(t, tmpl.RecursOn(time.Sunday))
	assert.False(t, tmpl.RecursOn(time.Saturday))
}

func TestOccupancyBasisValid(t *testing.T) {
	assert.True(t, OccupancyBasisRoster.Valid())
	assert.True(t, OccupancyBasisCapacity.Valid())
	assert.False(t, OccupancyBasis("headcount").Valid())
	assert.False(t, OccupancyBasis("").Valid())
}
