package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/studiofit/gymgrid-api/internal/models"
	"github.com/studiofit/gymgrid-api/internal/repository"
	appErrors "github.com/studiofit/gymgrid-api/pkg/errors"
)

type attendanceRepository interface {
	Find(ctx context.Context, key models.OccurrenceKey) (*models.AttendanceRecord, error)
	AddPresent(ctx context.Context, key models.OccurrenceKey, unitID, studentID string) (*models.AttendanceRecord, error)
	RemovePresent(ctx context.Context, key models.OccurrenceKey, studentID string) (*models.AttendanceRecord, error)
}

type templateFinder interface {
	FindByID(ctx context.Context, id string) (*models.ClassTemplate, error)
}

// AttendanceService implements the presence toggle protocol: idempotent,
// lazily-creating transitions on the per-occurrence present set. The set
// mutation itself is atomic at the storage layer; this service adds argument
// validation, a bounded retry loop for transient failures, and cache
// invalidation after confirmed writes.
type AttendanceService struct {
	repo       attendanceRepository
	templates  templateFinder
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
	basis      models.OccupancyBasis
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, templates templateFinder, cache *CacheService, metrics *MetricsService, logger *zap.Logger, maxRetries int, basis models.OccupancyBasis) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 1 {
		maxRetries = 3
	}
	if !basis.Valid() {
		basis = models.OccupancyBasisRoster
	}
	return &AttendanceService{repo: repo, templates: templates, cache: cache, metrics: metrics, logger: logger, maxRetries: maxRetries, basis: basis}
}

// MarkPresent transitions (occurrence, student) to present. Creates the
// record on first touch; re-marking an already-present student is a no-op.
func (s *AttendanceService) MarkPresent(ctx context.Context, instanceID, studentID string) (*models.AttendanceRecord, error) {
	key, err := parseToggleArgs(instanceID, studentID)
	if err != nil {
		return nil, err
	}

	// The unit id is denormalized onto the record at first touch so range
	// queries stay unit-scoped. A deleted template is not an error: the
	// record is keyed independently of template existence.
	unitID, err := s.resolveUnit(ctx, key.TemplateID)
	if err != nil {
		return nil, err
	}

	var record *models.AttendanceRecord
	err = s.withRetries(ctx, func() error {
		var opErr error
		record, opErr = s.repo.AddPresent(ctx, key, unitID, studentID)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	s.invalidateGrid(ctx, record.UnitID)
	return record, nil
}

// MarkAbsent transitions (occurrence, student) to absent. With no record this
// is a no-op that never creates one; with a record the student is removed and
// the record persists even when the set empties.
func (s *AttendanceService) MarkAbsent(ctx context.Context, instanceID, studentID string) (*models.AttendanceRecord, error) {
	key, err := parseToggleArgs(instanceID, studentID)
	if err != nil {
		return nil, err
	}

	var record *models.AttendanceRecord
	err = s.withRetries(ctx, func() error {
		var opErr error
		record, opErr = s.repo.RemovePresent(ctx, key, studentID)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	if record != nil {
		s.invalidateGrid(ctx, record.UnitID)
	}
	return record, nil
}

// Occurrence returns the merged view for a single occurrence. The template
// must exist here: the caller asked for a specific occurrence, so a missing
// template is Not-Found rather than empty data.
func (s *AttendanceService) Occurrence(ctx context.Context, instanceID string) (*models.OccurrenceView, error) {
	key, err := models.ParseOccurrenceKey(instanceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid occurrence id")
	}

	tmpl, err := s.templates.FindByID(ctx, key.TemplateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class template not found")
		}
		return nil, storageError(err, "failed to load class template")
	}

	record, err := s.repo.Find(ctx, key)
	if err != nil {
		return nil, storageError(err, "failed to load attendance record")
	}

	view := MergeOccurrence(projectOne(tmpl, key.Date), record, s.basis)
	return &view, nil
}

// withRetries runs the storage operation up to maxRetries times, retrying
// only failures classified as transient. Exhaustion surfaces as a retryable
// error so callers know a blind retry is the correct recovery.
func (s *AttendanceService) withRetries(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return appErrors.Transient(err, "toggle cancelled before confirmation")
		}
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !repository.IsTransient(lastErr) {
			return appErrors.Wrap(lastErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "attendance write failed")
		}
		if s.metrics != nil {
			s.metrics.RecordToggleRetry()
		}
		s.logger.Warn("retrying attendance toggle", zap.Int("attempt", attempt+1), zap.Error(lastErr))
	}
	return &appErrors.Error{
		Code:      appErrors.ErrRetryExhausted.Code,
		Status:    appErrors.ErrRetryExhausted.Status,
		Message:   appErrors.ErrRetryExhausted.Message,
		Retryable: true,
		Err:       lastErr,
	}
}

// resolveUnit reads the owning unit off the template, tolerating deletion.
func (s *AttendanceService) resolveUnit(ctx context.Context, templateID string) (string, error) {
	tmpl, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", storageError(err, "failed to resolve occurrence unit")
	}
	return tmpl.UnitID, nil
}

func (s *AttendanceService) invalidateGrid(ctx context.Context, unitID string) {
	if unitID == "" {
		return
	}
	s.cache.Invalidate(ctx, GridCachePattern(unitID))
}

func parseToggleArgs(instanceID, studentID string) (models.OccurrenceKey, error) {
	if studentID == "" {
		return models.OccurrenceKey{}, appErrors.Clone(appErrors.ErrValidation, "student id required")
	}
	key, err := models.ParseOccurrenceKey(instanceID)
	if err != nil {
		return models.OccurrenceKey{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid occurrence id")
	}
	return key, nil
}
