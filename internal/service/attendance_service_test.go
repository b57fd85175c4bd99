package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studiofit/gymgrid-api/internal/models"
	appErrors "github.com/studiofit/gymgrid-api/pkg/errors"
)

// stubAttendanceRepo mirrors the storage contract in memory: create on first
// present, set semantics on add, remove never creates, records never deleted.
type stubAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]*models.AttendanceRecord
	// failures drained before operations start succeeding
	pendingErrs []error
	addCalls    int
	removeCalls int
}

func newStubAttendanceRepo() *stubAttendanceRepo {
	return &stubAttendanceRepo{records: map[string]*models.AttendanceRecord{}}
}

func (r *stubAttendanceRepo) nextErr() error {
	if len(r.pendingErrs) == 0 {
		return nil
	}
	err := r.pendingErrs[0]
	r.pendingErrs = r.pendingErrs[1:]
	return err
}

func (r *stubAttendanceRepo) Find(_ context.Context, key models.OccurrenceKey) (*models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.nextErr(); err != nil {
		return nil, err
	}
	rec, ok := r.records[key.String()]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (r *stubAttendanceRepo) AddPresent(_ context.Context, key models.OccurrenceKey, unitID, studentID string) (*models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addCalls++
	if err := r.nextErr(); err != nil {
		return nil, err
	}
	rec, ok := r.records[key.String()]
	if !ok {
		rec = &models.AttendanceRecord{TemplateID: key.TemplateID, Date: key.Date, UnitID: unitID, PresentStudentIDs: pq.StringArray{}}
		r.records[key.String()] = rec
	}
	if !rec.Contains(studentID) {
		rec.PresentStudentIDs = append(rec.PresentStudentIDs, studentID)
	}
	copied := *rec
	copied.PresentStudentIDs = append(pq.StringArray{}, rec.PresentStudentIDs...)
	return &copied, nil
}

func (r *stubAttendanceRepo) RemovePresent(_ context.Context, key models.OccurrenceKey, studentID string) (*models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeCalls++
	if err := r.nextErr(); err != nil {
		return nil, err
	}
	rec, ok := r.records[key.String()]
	if !ok {
		return nil, nil
	}
	kept := pq.StringArray{}
	for _, id := range rec.PresentStudentIDs {
		if id != studentID {
			kept = append(kept, id)
		}
	}
	rec.PresentStudentIDs = kept
	copied := *rec
	copied.PresentStudentIDs = append(pq.StringArray{}, rec.PresentStudentIDs...)
	return &copied, nil
}

type stubTemplateFinder struct {
	templates map[string]*models.ClassTemplate
}

func (f *stubTemplateFinder) FindByID(_ context.Context, id string) (*models.ClassTemplate, error) {
	tmpl, ok := f.templates[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return tmpl, nil
}

func newAttendanceFixture() (*AttendanceService, *stubAttendanceRepo) {
	repo := newStubAttendanceRepo()
	tmpl := yogaTemplate()
	finder := &stubTemplateFinder{templates: map[string]*models.ClassTemplate{tmpl.ID: &tmpl}}
	svc := NewAttendanceService(repo, finder, nil, nil, zap.NewNop(), 3, models.OccupancyBasisRoster)
	return svc, repo
}

func TestMarkPresentCreatesRecordOnFirstTouch(t *testing.T) {
	svc, repo := newAttendanceFixture()

	record, err := svc.MarkPresent(context.Background(), "tA_2024-05-06", "s1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "unit-1", record.UnitID)
	assert.Equal(t, []string{"s1"}, []string(record.PresentStudentIDs))
	assert.Len(t, repo.records, 1)
}

func TestMarkPresentIdempotent(t *testing.T) {
	svc, _ := newAttendanceFixture()

	first, err := svc.MarkPresent(context.Background(), "tA_2024-05-06", "s1")
	require.NoError(t, err)
	second, err := svc.MarkPresent(context.Background(), "tA_2024-05-06", "s1")
	require.NoError(t, err)

	assert.Equal(t, first.PresentStudentIDs, second.PresentStudentIDs)
	assert.Len(t, second.PresentStudentIDs, 1)
}

func TestMarkAbsentWithoutRecordIsNoOp(t *testing.T) {
	svc, repo := newAttendanceFixture()

	record, err := svc.MarkAbsent(context.Background(), "tA_2024-05-06", "s1")
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.Empty(t, repo.records, "absent on an untouched occurrence must not create a record")
}

func TestMarkAbsentIdempotent(t *testing.T) {
	svc, _ := newAttendanceFixture()

	_, err := svc.MarkPresent(context.Background(), "tA_2024-05-06", "s1")
	require.NoError(t, err)

	first, err := svc.MarkAbsent(context.Background(), "tA_2024-05-06", "s1")
	require.NoError(t, err)
	require.NotNil(t, first)
	second, err := svc.MarkAbsent(context.Background(), "tA_2024-05-06", "s1")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Empty(t, second.PresentStudentIDs)
}

func TestPresentAbsentRoundTripKeepsRecord(t *testing.T) {
	svc, repo := newAttendanceFixture()

	_, err := svc.MarkPresent(context.Background(), "tA_2024-05-06", "s1")
	require.NoError(t, err)
	record, err := svc.MarkAbsent(context.Background(), "tA_2024-05-06", "s1")
	require.NoError(t, err)

	require.NotNil(t, record)
	assert.Empty(t, record.PresentStudentIDs)
	assert.Len(t, repo.records, 1, "emptied record must persist")
}

func TestMarkPresentConcurrentStudents(t *testing.T) {
	svc, _ := newAttendanceFixture()

	students := []string{"s1", "s2", "s3", "s4"}
	var wg sync.WaitGroup
	errs := make([]error, len(students))
	for i, id := range students {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = svc.MarkPresent(context.Background(), "tA_2024-05-06", id)
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	record, err := svc.Occurrence(context.Background(), "tA_2024-05-06")
	require.NoError(t, err)
	assert.ElementsMatch(t, students, record.PresentStudentIDs)
	assert.Equal(t, 4, record.PresentCount)
}

func TestMarkPresentRetriesTransientFailure(t *testing.T) {
	svc, repo := newAttendanceFixture()
	repo.pendingErrs = []error{
		&pq.Error{Code: "40001"},
		&pq.Error{Code: "40P01"},
	}

	record, err := svc.MarkPresent(context.Background(), "tA_2024-05-06", "s1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 3, repo.addCalls)
}

func TestMarkPresentRetryExhaustion(t *testing.T) {
	svc, repo := newAttendanceFixture()
	repo.pendingErrs = []error{
		&pq.Error{Code: "40001"},
		&pq.Error{Code: "40001"},
		&pq.Error{Code: "40001"},
	}

	_, err := svc.MarkPresent(context.Background(), "tA_2024-05-06", "s1")
	require.Error(t, err)
	assert.True(t, appErrors.IsRetryable(err), "exhaustion must be surfaced as retryable")
	assert.Equal(t, 3, repo.addCalls)
}

func TestMarkPresentNonTransientFailureFailsFast(t *testing.T) {
	svc, repo := newAttendanceFixture()
	repo.pendingErrs = []error{&pq.Error{Code: "23505"}}

	_, err := svc.MarkPresent(context.Background(), "tA_2024-05-06", "s1")
	require.Error(t, err)
	assert.False(t, appErrors.IsRetryable(err))
	assert.Equal(t, 1, repo.addCalls)
}

func TestMarkPresentMalformedInstanceID(t *testing.T) {
	svc, _ := newAttendanceFixture()

	cases := []string{"", "no-underscore", "tA_2024-13-40", "tA_20240506"}
	for _, id := range cases {
		_, err := svc.MarkPresent(context.Background(), id, "s1")
		require.Error(t, err, "instance id %q", id)
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	}
}

func TestMarkPresentMissingStudentID(t *testing.T) {
	svc, _ := newAttendanceFixture()

	_, err := svc.MarkPresent(context.Background(), "tA_2024-05-06", "")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestMarkPresentToleratesDeletedTemplate(t *testing.T) {
	repo := newStubAttendanceRepo()
	finder := &stubTemplateFinder{templates: map[string]*models.ClassTemplate{}}
	svc := NewAttendanceService(repo, finder, nil, nil, zap.NewNop(), 3, models.OccupancyBasisRoster)

	record, err := svc.MarkPresent(context.Background(), "gone_2024-05-06", "s1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Empty(t, record.UnitID)
}

func TestOccurrenceNotFoundWhenTemplateMissing(t *testing.T) {
	repo := newStubAttendanceRepo()
	finder := &stubTemplateFinder{templates: map[string]*models.ClassTemplate{}}
	svc := NewAttendanceService(repo, finder, nil, nil, zap.NewNop(), 3, models.OccupancyBasisRoster)

	_, err := svc.Occurrence(context.Background(), "gone_2024-05-06")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestOccurrenceMergesFirstTouch(t *testing.T) {
	svc, _ := newAttendanceFixture()

	_, err := svc.MarkPresent(context.Background(), "tA_2024-05-06", "s1")
	require.NoError(t, err)

	view, err := svc.Occurrence(context.Background(), "tA_2024-05-06")
	require.NoError(t, err)
	assert.True(t, view.Recorded)
	assert.Equal(t, 1, view.PresentCount)
	assert.InDelta(t, 25.0, view.OccupancyPct, 0.001)
	assert.Equal(t, "Yoga", view.Name)
	assert.Equal(t, time.Monday, view.Date.Weekday())
}

func TestOccurrenceUntouchedIsEmptySet(t *testing.T) {
	svc, _ := newAttendanceFixture()

	view, err := svc.Occurrence(context.Background(), "tA_2024-05-06")
	require.NoError(t, err)
	assert.False(t, view.Recorded)
	assert.Empty(t, view.PresentStudentIDs)
	assert.Zero(t, view.OccupancyPct)
}
