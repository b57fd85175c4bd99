package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/studiofit/gymgrid-api/internal/models"
)

// AttendanceRepository persists the sparse presence records keyed by
// occurrence identity. Rows are created lazily by AddPresent and are never
// deleted: an empty present set after RemovePresent is an audit signal
// distinct from "never touched".
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `template_id, date, unit_id, present_student_ids, created_at, updated_at`

// Find returns the record for the given occurrence, or nil when the
// occurrence was never touched. Absence is data, not an error.
func (r *AttendanceRepository) Find(ctx context.Context, key models.OccurrenceKey) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE template_id = $1 AND date = $2`, attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, key.TemplateID, key.Date.Format(models.DateLayout)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find attendance record: %w", err)
	}
	return &record, nil
}

// ListRange fetches every record for a unit inside the inclusive date window
// in one round trip, so grid merges avoid a point lookup per occurrence.
func (r *AttendanceRepository) ListRange(ctx context.Context, unitID string, from, to time.Time) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records
WHERE unit_id = $1 AND date >= $2 AND date <= $3
ORDER BY date, template_id`, attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, unitID, from.Format(models.DateLayout), to.Format(models.DateLayout)); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}

// AddPresent applies a set-union of one student in a single statement,
// creating the record when none exists. The array mutation happens inside the
// upsert so concurrent callers on the same occurrence cannot clobber each
// other's students.
func (r *AttendanceRepository) AddPresent(ctx context.Context, key models.OccurrenceKey, unitID, studentID string) (*models.AttendanceRecord, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO attendance_records (template_id, date, unit_id, present_student_ids, created_at, updated_at)
VALUES ($1, $2, $3, ARRAY[$4]::text[], $5, $5)
ON CONFLICT (template_id, date) DO UPDATE SET
	present_student_ids = CASE
		WHEN $4 = ANY (attendance_records.present_student_ids) THEN attendance_records.present_student_ids
		ELSE array_append(attendance_records.present_student_ids, $4)
	END,
	updated_at = $5
RETURNING %s`, attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, key.TemplateID, key.Date.Format(models.DateLayout), unitID, studentID, now); err != nil {
		return nil, fmt.Errorf("add present: %w", err)
	}
	return &record, nil
}

// RemovePresent applies a set-difference of one student in a single
// statement. When no record exists it is a no-op and returns nil: removal
// never creates a record, and the row persists even when the set empties.
func (r *AttendanceRepository) RemovePresent(ctx context.Context, key models.OccurrenceKey, studentID string) (*models.AttendanceRecord, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`UPDATE attendance_records
SET present_student_ids = array_remove(present_student_ids, $3), updated_at = $4
WHERE template_id = $1 AND date = $2
RETURNING %s`, attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, key.TemplateID, key.Date.Format(models.DateLayout), studentID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("remove present: %w", err)
	}
	return &record, nil
}

// transient SQLSTATE classes: serialization/deadlock and connection loss.
var retryableSQLStates = map[string]struct{}{
	"40001": {},
	"40P01": {},
	"57P01": {},
	"08000": {},
	"08003": {},
	"08006": {},
}

// IsTransient reports whether a storage error is worth a blind retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		_, ok := retryableSQLStates[string(pqErr.Code)]
		return ok
	}
	return false
}
