package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/planner-api/internal/models"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
)

type plannerDataStub struct {
	classes  []models.Class
	tasks    []models.Task
	sessions []models.StudySession
	calls    int
}

func (s *plannerDataStub) Classes(ctx context.Context, userID string) ([]models.Class, error) {
	s.calls++
	return s.classes, nil
}

func (s *plannerDataStub) Tasks(ctx context.Context, userID string) ([]models.Task, error) {
	return s.tasks, nil
}

func (s *plannerDataStub) Sessions(ctx context.Context, userID string) ([]models.StudySession, error) {
	return s.sessions, nil
}

type countStub struct{ n int }

func (c countStub) CountByUser(ctx context.Context, userID string) (int, error) {
	return c.n, nil
}

type taskCountStub struct{ open, completed int }

func (c taskCountStub) CountByUser(ctx context.Context, userID string) (int, int, error) {
	return c.open, c.completed, nil
}

type sessionSourceStub struct {
	sessions []models.StudySession
}

func (s sessionSourceStub) ListSince(ctx context.Context, userID string, cutoff time.Time) ([]models.StudySession, error) {
	return s.sessions, nil
}

type memoryCacheRepo struct {
	entries map[string][]byte
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (r *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.entries[key] = raw
	return nil
}

func (r *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.deleted = append(r.deleted, pattern)
	for key := range r.entries {
		delete(r.entries, key)
	}
	return nil
}

func TestDashboardServiceSummaryComposesTodayClasses(t *testing.T) {
	// Wednesday.
	now := time.Date(2026, time.March, 4, 8, 0, 0, 0, time.UTC)

	data := &plannerDataStub{
		classes: []models.Class{
			{ID: "c-1", DayOfWeek: 3, StartTime: "10:00", EndTime: "11:00", Subject: &models.Subject{Name: "History"}},
			{ID: "c-2", DayOfWeek: 3, StartTime: "09:00", EndTime: "10:00", Subject: &models.Subject{Name: "Algebra"}},
			{ID: "c-3", DayOfWeek: 4, StartTime: "09:00", EndTime: "10:00", Subject: &models.Subject{Name: "Biology"}},
		},
		tasks: []models.Task{
			{ID: "t-1", Title: "Essay", DueDate: now.Add(48 * time.Hour), IsCompleted: false},
			{ID: "t-2", Title: "Worksheet", DueDate: now.Add(24 * time.Hour), IsCompleted: true},
		},
	}
	sessions := sessionSourceStub{sessions: []models.StudySession{
		{ID: "s-1", Title: "Algebra review", StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-2*time.Hour + 65*time.Second)},
	}}

	svc := NewDashboardService(data, countStub{n: 3}, countStub{n: 3}, taskCountStub{open: 1, completed: 1}, sessions, nil, time.Minute, nil)
	svc.now = func() time.Time { return now }

	summary, fromCache, err := svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, fromCache)

	require.Len(t, summary.TodayClasses, 2)
	assert.Equal(t, "c-2", summary.TodayClasses[0].ID)
	assert.Equal(t, "c-1", summary.TodayClasses[1].ID)
	assert.Equal(t, "Algebra", summary.TodayClasses[0].Subject.Name)

	require.Len(t, summary.PendingTasks, 1)
	assert.Equal(t, "Essay", summary.PendingTasks[0].Title)

	assert.Equal(t, 3, summary.Stats.SubjectCount)
	assert.Equal(t, 1, summary.Stats.OpenTaskCount)
	assert.Equal(t, int64(65), summary.Stats.StudySecondsRecent)
	assert.Equal(t, 1, summary.Stats.StudySessionsRecent)
}

func TestDashboardServiceSummaryServesFromCache(t *testing.T) {
	now := time.Date(2026, time.March, 4, 8, 0, 0, 0, time.UTC)
	data := &plannerDataStub{}
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)

	svc := NewDashboardService(data, countStub{}, countStub{}, taskCountStub{}, sessionSourceStub{}, cache, time.Minute, nil)
	svc.now = func() time.Time { return now }

	_, fromCache, err := svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 1, data.calls)

	_, fromCache, err = svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, 1, data.calls)
}

func TestDashboardServiceCacheInvalidationForcesRecompose(t *testing.T) {
	now := time.Date(2026, time.March, 4, 8, 0, 0, 0, time.UTC)
	data := &plannerDataStub{}
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)

	svc := NewDashboardService(data, countStub{}, countStub{}, taskCountStub{}, sessionSourceStub{}, cache, time.Minute, nil)
	svc.now = func() time.Time { return now }

	_, _, err := svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)

	cache.InvalidateUser(context.Background(), "user-1")
	assert.Equal(t, []string{"planner:user-1:*"}, cacheRepo.deleted)

	_, fromCache, err := svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 2, data.calls)
}
