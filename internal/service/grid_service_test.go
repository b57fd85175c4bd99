package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studiofit/gymgrid-api/internal/models"
	appErrors "github.com/studiofit/gymgrid-api/pkg/errors"
)

type stubGridTemplates struct {
	templates []models.ClassTemplate
	err       error
	calls     int
}

func (s *stubGridTemplates) ListByUnit(_ context.Context, _ string) ([]models.ClassTemplate, error) {
	s.calls++
	return s.templates, s.err
}

type stubGridAttendance struct {
	records []models.AttendanceRecord
	err     error
}

func (s *stubGridAttendance) ListRange(_ context.Context, _ string, _, _ time.Time) ([]models.AttendanceRecord, error) {
	return s.records, s.err
}

// memoryCache is a CacheRepository over a plain map, round-tripping values
// through JSON the way the redis-backed one does.
type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = payload
	return nil
}

func (c *memoryCache) DeleteByPattern(_ context.Context, _ string) error {
	c.entries = map[string][]byte{}
	return nil
}

func newGridFixture(templates *stubGridTemplates, attendance *stubGridAttendance, cache *CacheService) *GridService {
	return NewGridService(templates, attendance, cache, nil, zap.NewNop(), GridConfig{
		OccupancyBasis: models.OccupancyBasisRoster,
		Location:       time.UTC,
		MaxWindowDays:  92,
	})
}

func TestGridOccurrencesMergesRecords(t *testing.T) {
	templates := &stubGridTemplates{templates: []models.ClassTemplate{yogaTemplate()}}
	attendance := &stubGridAttendance{records: []models.AttendanceRecord{
		{TemplateID: "tA", Date: date(2024, 5, 6), UnitID: "unit-1", PresentStudentIDs: pq.StringArray{"s1", "s2"}},
	}}
	svc := newGridFixture(templates, attendance, nil)

	views, err := svc.Occurrences(context.Background(), OccurrenceWindowRequest{UnitID: "unit-1", From: "2024-05-06", To: "2024-05-12"})
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "tA_2024-05-06", views[0].InstanceID)
	assert.True(t, views[0].Recorded)
	assert.Equal(t, 2, views[0].PresentCount)
	assert.InDelta(t, 50.0, views[0].OccupancyPct, 0.001)

	assert.Equal(t, "tA_2024-05-08", views[1].InstanceID)
	assert.False(t, views[1].Recorded)
	assert.Empty(t, views[1].PresentStudentIDs)
}

func TestGridOccurrencesValidation(t *testing.T) {
	svc := newGridFixture(&stubGridTemplates{}, &stubGridAttendance{}, nil)

	cases := []struct {
		name string
		req  OccurrenceWindowRequest
	}{
		{"missing unit", OccurrenceWindowRequest{From: "2024-05-06", To: "2024-05-12"}},
		{"missing from", OccurrenceWindowRequest{UnitID: "unit-1", To: "2024-05-12"}},
		{"bad from", OccurrenceWindowRequest{UnitID: "unit-1", From: "06/05/2024", To: "2024-05-12"}},
		{"bad to", OccurrenceWindowRequest{UnitID: "unit-1", From: "2024-05-06", To: "next week"}},
		{"inverted", OccurrenceWindowRequest{UnitID: "unit-1", From: "2024-05-12", To: "2024-05-06"}},
		{"window too large", OccurrenceWindowRequest{UnitID: "unit-1", From: "2024-01-01", To: "2024-12-31"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Occurrences(context.Background(), tc.req)
			require.Error(t, err)
			var appErr *appErrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		})
	}
}

func TestGridOccurrencesCacheHitSkipsStorage(t *testing.T) {
	templates := &stubGridTemplates{templates: []models.ClassTemplate{yogaTemplate()}}
	attendance := &stubGridAttendance{}
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, zap.NewNop(), true)
	svc := newGridFixture(templates, attendance, cache)

	req := OccurrenceWindowRequest{UnitID: "unit-1", From: "2024-05-06", To: "2024-05-12"}

	first, err := svc.Occurrences(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, templates.calls)

	second, err := svc.Occurrences(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, templates.calls, "second query must be served from cache")

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].InstanceID, second[i].InstanceID)
		assert.Equal(t, first[i].PresentCount, second[i].PresentCount)
	}
}

func TestGridOccurrencesStorageFailure(t *testing.T) {
	templates := &stubGridTemplates{err: assert.AnError}
	svc := newGridFixture(templates, &stubGridAttendance{}, nil)

	_, err := svc.Occurrences(context.Background(), OccurrenceWindowRequest{UnitID: "unit-1", From: "2024-05-06", To: "2024-05-12"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

func TestGridCacheKeyShape(t *testing.T) {
	key := GridCacheKey("unit-1", "2024-05-06", "2024-05-12", models.OccupancyBasisRoster)
	assert.Equal(t, "grid:unit-1:2024-05-06:2024-05-12:roster", key)
	assert.Equal(t, "grid:unit-1:*", GridCachePattern("unit-1"))
}
