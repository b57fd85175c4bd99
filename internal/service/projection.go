package service

import (
	"sort"
	"time"

	"github.com/studiofit/gymgrid-api/internal/models"
	appErrors "github.com/studiofit/gymgrid-api/pkg/errors"
)

// ProjectOccurrences expands recurring templates into concrete occurrences for
// the inclusive window [from, to]. It is a pure mapping: no I/O, no clock, and
// identical output for identical input. Both bounds are normalized to the
// start of day in their own location before iteration.
func ProjectOccurrences(templates []models.ClassTemplate, from, to time.Time) ([]models.ClassOccurrence, error) {
	start := startOfDay(from)
	end := startOfDay(to)
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date range start must not be after end")
	}

	occurrences := []models.ClassOccurrence{}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		var daily []models.ClassOccurrence
		for i := range templates {
			tmpl := &templates[i]
			if !tmpl.RecursOn(day.Weekday()) {
				continue
			}
			daily = append(daily, projectOne(tmpl, day))
		}
		sort.Slice(daily, func(i, j int) bool {
			if !daily[i].StartTime.Equal(daily[j].StartTime) {
				return daily[i].StartTime.Before(daily[j].StartTime)
			}
			return daily[i].Key.TemplateID < daily[j].Key.TemplateID
		})
		occurrences = append(occurrences, daily...)
	}
	return occurrences, nil
}

// projectOne materializes a template on one specific date. Every descriptive
// field is read from the template live, so a template edit is retroactively
// visible on re-projection under the same key.
func projectOne(tmpl *models.ClassTemplate, day time.Time) models.ClassOccurrence {
	key := models.OccurrenceKey{TemplateID: tmpl.ID, Date: day}
	startTime := time.Date(day.Year(), day.Month(), day.Day(), tmpl.StartHour, tmpl.StartMinute, 0, 0, day.Location())
	return models.ClassOccurrence{
		Key:         key,
		InstanceID:  key.String(),
		UnitID:      tmpl.UnitID,
		Name:        tmpl.Name,
		TeacherID:   tmpl.TeacherID,
		TeacherName: tmpl.TeacherName,
		Date:        day,
		StartTime:   startTime,
		EndTime:     startTime.Add(time.Duration(tmpl.DurationMinutes) * time.Minute),
		Capacity:    tmpl.Capacity,
		Roster:      append([]string(nil), tmpl.Roster...),
	}
}

// MergeOccurrence composes a projected occurrence with its possibly absent
// attendance record. A nil record merges exactly like a record holding an
// empty set, except Recorded stays false.
func MergeOccurrence(occ models.ClassOccurrence, rec *models.AttendanceRecord, basis models.OccupancyBasis) models.OccurrenceView {
	view := models.OccurrenceView{
		ClassOccurrence:   occ,
		PresentStudentIDs: []string{},
	}
	if rec != nil {
		view.Recorded = true
		view.PresentStudentIDs = append(view.PresentStudentIDs, rec.PresentStudentIDs...)
	}
	view.PresentCount = len(view.PresentStudentIDs)
	view.OccupancyPct = Occupancy(view.PresentCount, len(occ.Roster), occ.Capacity, basis)
	return view
}

// Occupancy computes the occupancy percentage against the configured
// denominator. Students outside the roster still count toward the numerator;
// the result is clamped to [0, 100] regardless.
func Occupancy(present, rosterSize, capacity int, basis models.OccupancyBasis) float64 {
	denominator := rosterSize
	if basis == models.OccupancyBasisCapacity {
		denominator = capacity
	}
	if denominator < 1 {
		denominator = 1
	}
	pct := float64(present) / float64(denominator) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
