package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/studiofit/gymgrid-api/internal/models"
	appErrors "github.com/studiofit/gymgrid-api/pkg/errors"
)

type templateRepository interface {
	List(ctx context.Context, filter models.TemplateFilter) ([]models.ClassTemplate, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassTemplate, error)
	Create(ctx context.Context, tmpl *models.ClassTemplate) (*models.ClassTemplate, error)
	Update(ctx context.Context, tmpl *models.ClassTemplate) (*models.ClassTemplate, error)
	Delete(ctx context.Context, id string) error
}

// TemplateService manages the recurring class definitions. Projection never
// mutates templates; this flow is the only writer.
type TemplateService struct {
	repo      templateRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTemplateService constructs the template service.
func NewTemplateService(repo templateRepository, validate *validator.Validate, logger *zap.Logger) *TemplateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{repo: repo, validator: validate, logger: logger}
}

// CreateTemplateRequest is the payload for defining a recurring class.
type CreateTemplateRequest struct {
	UnitID          string   `json:"unit_id" validate:"required"`
	Name            string   `json:"name" validate:"required"`
	TeacherID       string   `json:"teacher_id" validate:"required"`
	TeacherName     string   `json:"teacher_name" validate:"required"`
	DaysOfWeek      []int    `json:"days_of_week" validate:"required,min=1,dive,gte=0,lte=6"`
	StartHour       int      `json:"start_hour" validate:"gte=0,lte=23"`
	StartMinute     int      `json:"start_minute" validate:"gte=0,lte=59"`
	DurationMinutes int      `json:"duration_minutes" validate:"required,gte=1"`
	Capacity        int      `json:"capacity" validate:"gte=0"`
	Roster          []string `json:"roster"`
}

// UpdateTemplateRequest mirrors the create payload; edits are retroactive
// because occurrences are always re-projected from the template.
type UpdateTemplateRequest = CreateTemplateRequest

// List returns paginated templates.
func (s *TemplateService) List(ctx context.Context, filter models.TemplateFilter) ([]models.ClassTemplate, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	filter.Page = page
	filter.PageSize = size
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, storageError(err, "failed to list class templates")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a single template by id.
func (s *TemplateService) Get(ctx context.Context, id string) (*models.ClassTemplate, error) {
	tmpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class template not found")
		}
		return nil, storageError(err, "failed to load class template")
	}
	return tmpl, nil
}

// Create validates and stores a new template with a generated id.
func (s *TemplateService) Create(ctx context.Context, req CreateTemplateRequest) (*models.ClassTemplate, error) {
	tmpl, err := s.buildTemplate(req)
	if err != nil {
		return nil, err
	}
	tmpl.ID = uuid.NewString()
	stored, err := s.repo.Create(ctx, tmpl)
	if err != nil {
		return nil, storageError(err, "failed to create class template")
	}
	return stored, nil
}

// Update replaces a template's definition.
func (s *TemplateService) Update(ctx context.Context, id string, req UpdateTemplateRequest) (*models.ClassTemplate, error) {
	tmpl, err := s.buildTemplate(req)
	if err != nil {
		return nil, err
	}
	tmpl.ID = id
	stored, err := s.repo.Update(ctx, tmpl)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class template not found")
		}
		return nil, storageError(err, "failed to update class template")
	}
	return stored, nil
}

// Delete removes a template. Attendance already written under its occurrences
// is untouched.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class template not found")
		}
		return storageError(err, "failed to delete class template")
	}
	return nil
}

func (s *TemplateService) buildTemplate(req CreateTemplateRequest) (*models.ClassTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	seen := map[int]struct{}{}
	days := make(pq.Int64Array, 0, len(req.DaysOfWeek))
	for _, d := range req.DaysOfWeek {
		if _, ok := seen[d]; ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate weekday in days_of_week")
		}
		seen[d] = struct{}{}
		days = append(days, int64(d))
	}
	roster := req.Roster
	if roster == nil {
		roster = []string{}
	}
	return &models.ClassTemplate{
		UnitID:          req.UnitID,
		Name:            req.Name,
		TeacherID:       req.TeacherID,
		TeacherName:     req.TeacherName,
		DaysOfWeek:      days,
		StartHour:       req.StartHour,
		StartMinute:     req.StartMinute,
		DurationMinutes: req.DurationMinutes,
		Capacity:        req.Capacity,
		Roster:          pq.StringArray(roster),
	}, nil
}
