package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studiofit/gymgrid-api/internal/models"
	"github.com/studiofit/gymgrid-api/internal/repository"
	appErrors "github.com/studiofit/gymgrid-api/pkg/errors"
)

type gridTemplateRepository interface {
	ListByUnit(ctx context.Context, unitID string) ([]models.ClassTemplate, error)
}

type gridAttendanceRepository interface {
	ListRange(ctx context.Context, unitID string, from, to time.Time) ([]models.AttendanceRecord, error)
}

// GridConfig tunes grid projection behaviour.
type GridConfig struct {
	OccupancyBasis models.OccupancyBasis
	Location       *time.Location
	MaxWindowDays  int
	CacheTTL       time.Duration
}

// GridService produces the date-indexed occurrence grid: templates are
// expanded over the requested window and the sparse attendance rows for that
// window are overlaid in a single batch fetch.
type GridService struct {
	templates  gridTemplateRepository
	attendance gridAttendanceRepository
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
	config     GridConfig
}

// NewGridService constructs the grid service.
func NewGridService(templates gridTemplateRepository, attendance gridAttendanceRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, config GridConfig) *GridService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if !config.OccupancyBasis.Valid() {
		config.OccupancyBasis = models.OccupancyBasisRoster
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.MaxWindowDays < 1 {
		config.MaxWindowDays = 92
	}
	return &GridService{templates: templates, attendance: attendance, cache: cache, validator: validate, logger: logger, config: config}
}

// OccurrenceWindowRequest describes one grid query.
type OccurrenceWindowRequest struct {
	UnitID string `json:"unit_id" validate:"required"`
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
}

// Occurrences projects the unit's templates over the window and merges the
// persisted attendance onto the result. Unknown attendance is the empty set.
func (s *GridService) Occurrences(ctx context.Context, req OccurrenceWindowRequest) ([]models.OccurrenceView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grid query")
	}
	from, err := time.ParseInLocation(models.DateLayout, req.From, s.config.Location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid from date, expected YYYY-MM-DD")
	}
	to, err := time.ParseInLocation(models.DateLayout, req.To, s.config.Location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid to date, expected YYYY-MM-DD")
	}
	if from.After(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date range start must not be after end")
	}
	if int(to.Sub(from).Hours()/24)+1 > s.config.MaxWindowDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date range exceeds %d days", s.config.MaxWindowDays))
	}

	cacheKey := GridCacheKey(req.UnitID, req.From, req.To, s.config.OccupancyBasis)
	var cached []models.OccurrenceView
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, nil
	}

	templates, err := s.templates.ListByUnit(ctx, req.UnitID)
	if err != nil {
		return nil, storageError(err, "failed to load class templates")
	}

	occurrences, err := ProjectOccurrences(templates, from, to)
	if err != nil {
		return nil, err
	}

	records, err := s.attendance.ListRange(ctx, req.UnitID, from, to)
	if err != nil {
		return nil, storageError(err, "failed to load attendance records")
	}
	byKey := make(map[string]*models.AttendanceRecord, len(records))
	for i := range records {
		byKey[records[i].Key().String()] = &records[i]
	}

	views := make([]models.OccurrenceView, len(occurrences))
	for i, occ := range occurrences {
		views[i] = MergeOccurrence(occ, byKey[occ.InstanceID], s.config.OccupancyBasis)
	}

	s.cache.Set(ctx, cacheKey, views, s.config.CacheTTL)
	return views, nil
}

// GridCacheKey builds the cache key for one merged grid window.
func GridCacheKey(unitID, from, to string, basis models.OccupancyBasis) string {
	return fmt.Sprintf("grid:%s:%s:%s:%s", unitID, from, to, basis)
}

// GridCachePattern matches every cached window of a unit, used for
// invalidation after a confirmed presence write.
func GridCachePattern(unitID string) string {
	return fmt.Sprintf("grid:%s:*", unitID)
}

// storageError maps a repository failure onto the error taxonomy: transient
// failures stay retryable, everything else is internal.
func storageError(err error, message string) error {
	if repository.IsTransient(err) {
		return appErrors.Transient(err, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
