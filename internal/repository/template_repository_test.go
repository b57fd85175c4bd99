package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiofit/gymgrid-api/internal/models"
)

func templateRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "unit_id", "name", "teacher_id", "teacher_name", "days_of_week",
		"start_hour", "start_minute", "duration_minutes", "capacity", "roster",
		"created_at", "updated_at",
	}).AddRow("tA", "unit-1", "Yoga", "teacher-1", "Marina", "{1,3}", 7, 0, 60, 20, "{s1,s2}", now, now)
}

func TestTemplateList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM class_templates WHERE 1=1 AND unit_id = \$1 ORDER BY name ASC LIMIT 50 OFFSET 0`).
		WithArgs("unit-1").
		WillReturnRows(templateRows())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM class_templates WHERE 1=1 AND unit_id = $1`)).
		WithArgs("unit-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows, total, err := repo.List(context.Background(), models.TemplateFilter{UnitID: "unit-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Yoga", rows[0].Name)
	assert.Equal(t, []int64{1, 3}, []int64(rows[0].DaysOfWeek))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateListRejectsUnknownSortColumn(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	// Unknown sort input falls back to the whitelisted default.
	mock.ExpectQuery(`ORDER BY name ASC`).
		WillReturnRows(templateRows())
	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.TemplateFilter{SortBy: "roster; DROP TABLE class_templates"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateListByUnit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM class_templates WHERE unit_id = \$1 ORDER BY start_hour, start_minute, name`).
		WithArgs("unit-1").
		WillReturnRows(templateRows())

	rows, err := repo.ListByUnit(context.Background(), "unit-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"s1", "s2"}, []string(rows[0].Roster))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateFindByIDPropagatesNoRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM class_templates WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM class_templates WHERE id = $1`)).
		WithArgs("tA").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "tA"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateDeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectExec(`DELETE FROM class_templates`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}
