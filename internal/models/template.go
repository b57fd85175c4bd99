package models

import (
	"time"

	"github.com/lib/pq"
)

// ClassTemplate is the recurring class definition a unit's weekly grid is
// generated from. It carries no per-date state: editing a template changes the
// projection of every occurrence, past and future.
type ClassTemplate struct {
	ID              string         `db:"id" json:"id"`
	UnitID          string         `db:"unit_id" json:"unit_id"`
	Name            string         `db:"name" json:"name"`
	TeacherID       string         `db:"teacher_id" json:"teacher_id"`
	TeacherName     string         `db:"teacher_name" json:"teacher_name"`
	DaysOfWeek      pq.Int64Array  `db:"days_of_week" json:"days_of_week"`
	StartHour       int            `db:"start_hour" json:"start_hour"`
	StartMinute     int            `db:"start_minute" json:"start_minute"`
	DurationMinutes int            `db:"duration_minutes" json:"duration_minutes"`
	Capacity        int            `db:"capacity" json:"capacity"`
	Roster          pq.StringArray `db:"roster" json:"roster"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// RecursOn reports whether the template has an occurrence on the given weekday.
func (t *ClassTemplate) RecursOn(day time.Weekday) bool {
	for _, d := range t.DaysOfWeek {
		if time.Weekday(d) == day {
			return true
		}
	}
	return false
}

// TemplateFilter scopes template listing queries.
type TemplateFilter struct {
	UnitID    string
	TeacherID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
