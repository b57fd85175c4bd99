package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/studiofit/gymgrid-api/internal/models"
)

// TemplateRepository handles persistence for recurring class templates.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs the repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateColumns = `id, unit_id, name, teacher_id, teacher_name, days_of_week, start_hour, start_minute, duration_minutes, capacity, roster, created_at, updated_at`

// List returns templates matching the provided filter.
func (r *TemplateRepository) List(ctx context.Context, filter models.TemplateFilter) ([]models.ClassTemplate, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.UnitID != "" {
		where = append(where, fmt.Sprintf("unit_id = $%d", len(args)+1))
		args = append(args, filter.UnitID)
	}
	if filter.TeacherID != "" {
		where = append(where, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"name":       "name",
		"created_at": "created_at",
	}
	sortColumn, ok := allowedSort[filter.SortBy]
	if !ok {
		sortColumn = "name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM class_templates WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		templateColumns, whereClause, sortColumn, order, size, offset)

	var rows []models.ClassTemplate
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list class templates: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM class_templates WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count class templates: %w", err)
	}
	return rows, total, nil
}

// ListByUnit returns every template owned by a unit, ordered for projection.
func (r *TemplateRepository) ListByUnit(ctx context.Context, unitID string) ([]models.ClassTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_templates WHERE unit_id = $1 ORDER BY start_hour, start_minute, name`, templateColumns)
	var rows []models.ClassTemplate
	if err := r.db.SelectContext(ctx, &rows, query, unitID); err != nil {
		return nil, fmt.Errorf("list unit templates: %w", err)
	}
	return rows, nil
}

// FindByID returns a single template. sql.ErrNoRows propagates to the caller.
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*models.ClassTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_templates WHERE id = $1`, templateColumns)
	var tmpl models.ClassTemplate
	if err := r.db.GetContext(ctx, &tmpl, query, id); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// Create inserts a new template.
func (r *TemplateRepository) Create(ctx context.Context, tmpl *models.ClassTemplate) (*models.ClassTemplate, error) {
	now := time.Now().UTC()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO class_templates (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING %s`, templateColumns, templateColumns)
	var stored models.ClassTemplate
	if err := r.db.GetContext(ctx, &stored, query,
		tmpl.ID, tmpl.UnitID, tmpl.Name, tmpl.TeacherID, tmpl.TeacherName,
		tmpl.DaysOfWeek, tmpl.StartHour, tmpl.StartMinute, tmpl.DurationMinutes,
		tmpl.Capacity, tmpl.Roster, tmpl.CreatedAt, tmpl.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create class template: %w", err)
	}
	return &stored, nil
}

// Update replaces every mutable field of a template.
func (r *TemplateRepository) Update(ctx context.Context, tmpl *models.ClassTemplate) (*models.ClassTemplate, error) {
	tmpl.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`UPDATE class_templates SET
	name = $2, teacher_id = $3, teacher_name = $4, days_of_week = $5,
	start_hour = $6, start_minute = $7, duration_minutes = $8,
	capacity = $9, roster = $10, updated_at = $11
WHERE id = $1
RETURNING %s`, templateColumns)
	var stored models.ClassTemplate
	if err := r.db.GetContext(ctx, &stored, query,
		tmpl.ID, tmpl.Name, tmpl.TeacherID, tmpl.TeacherName, tmpl.DaysOfWeek,
		tmpl.StartHour, tmpl.StartMinute, tmpl.DurationMinutes,
		tmpl.Capacity, tmpl.Roster, tmpl.UpdatedAt); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Delete removes a template. Attendance records keep their own copy of the
// identity, so historical presence survives template deletion.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM class_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete class template: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete class template: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
