package models

import (
	"time"

	"github.com/lib/pq"
)

// AttendanceRecord is the only entity this subsystem persists: the sparse set
// of students present for one occurrence. A row exists iff at least one
// presence mutation was ever applied; an untouched occurrence is represented
// purely by the row's absence.
type AttendanceRecord struct {
	TemplateID        string         `db:"template_id" json:"template_id"`
	Date              time.Time      `db:"date" json:"date"`
	UnitID            string         `db:"unit_id" json:"unit_id"`
	PresentStudentIDs pq.StringArray `db:"present_student_ids" json:"present_student_ids"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// Key returns the occurrence identity the record is stored under.
func (r *AttendanceRecord) Key() OccurrenceKey {
	return OccurrenceKey{TemplateID: r.TemplateID, Date: r.Date}
}

// Contains reports whether the student is marked present.
func (r *AttendanceRecord) Contains(studentID string) bool {
	if r == nil {
		return false
	}
	for _, id := range r.PresentStudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// OccupancyBasis selects the occupancy denominator.
type OccupancyBasis string

const (
	OccupancyBasisRoster   OccupancyBasis = "roster"
	OccupancyBasisCapacity OccupancyBasis = "capacity"
)

// Valid returns true when the basis is a supported value.
func (b OccupancyBasis) Valid() bool {
	return b == OccupancyBasisRoster || b == OccupancyBasisCapacity
}
