package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for occurrence identity and all
// date query parameters.
const DateLayout = "2006-01-02"

// OccurrenceKey is the deterministic identity of one concrete class
// occurrence. It is the only bridge between a projected occurrence and its
// persisted attendance record, so it is kept as a pair of fields rather than a
// formatted string; the composite form appears only at the API boundary.
type OccurrenceKey struct {
	TemplateID string
	Date       time.Time
}

// String renders the wire form "templateId_YYYY-MM-DD".
func (k OccurrenceKey) String() string {
	return k.TemplateID + "_" + k.Date.Format(DateLayout)
}

// ParseOccurrenceKey parses the wire form back into a key. The date is the
// suffix after the last underscore, which keeps template ids containing
// underscores unambiguous.
func ParseOccurrenceKey(raw string) (OccurrenceKey, error) {
	idx := strings.LastIndex(raw, "_")
	if idx <= 0 || idx == len(raw)-1 {
		return OccurrenceKey{}, fmt.Errorf("malformed occurrence id %q", raw)
	}
	date, err := time.Parse(DateLayout, raw[idx+1:])
	if err != nil {
		return OccurrenceKey{}, fmt.Errorf("malformed occurrence id %q: %w", raw, err)
	}
	return OccurrenceKey{TemplateID: raw[:idx], Date: date}, nil
}

// ClassOccurrence is a derived, never-persisted instance of a template on a
// specific date. Every non-identity field is copied from the template at
// projection time and re-projecting after a template edit yields the updated
// values for the same key.
type ClassOccurrence struct {
	Key         OccurrenceKey `json:"-"`
	InstanceID  string        `json:"instance_id"`
	UnitID      string        `json:"unit_id"`
	Name        string        `json:"name"`
	TeacherID   string        `json:"teacher_id"`
	TeacherName string        `json:"teacher_name"`
	Date        time.Time     `json:"date"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Capacity    int           `json:"capacity"`
	Roster      []string      `json:"roster"`
}

// OccurrenceView is the read-time composition of an occurrence and its
// possibly absent attendance record.
type OccurrenceView struct {
	ClassOccurrence
	PresentStudentIDs []string `json:"present_student_ids"`
	PresentCount      int      `json:"present_count"`
	OccupancyPct      float64  `json:"occupancy_pct"`
	// Recorded distinguishes "record exists with an empty set" from "never
	// touched" for audit consumers; the present set is identical either way.
	Recorded bool `json:"recorded"`
}
