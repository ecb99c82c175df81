package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
)

const (
	dashboardPendingTaskLimit   = 5
	dashboardRecentSessionLimit = 5
	dashboardRecentWindow       = 7 * 24 * time.Hour
)

type dashboardSubjectCounter interface {
	CountByUser(ctx context.Context, userID string) (int, error)
}

type dashboardClassCounter interface {
	CountByUser(ctx context.Context, userID string) (int, error)
}

type dashboardTaskCounter interface {
	CountByUser(ctx context.Context, userID string) (open, completed int, err error)
}

type dashboardSessionSource interface {
	ListSince(ctx context.Context, userID string, cutoff time.Time) ([]models.StudySession, error)
}

// DashboardService composes the per-user dashboard payload and caches it.
type DashboardService struct {
	data          plannerData
	subjectCounts dashboardSubjectCounter
	classCounts   dashboardClassCounter
	taskCounts    dashboardTaskCounter
	sessions      dashboardSessionSource
	cache         *CacheService
	cacheTTL      time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewDashboardService constructs a dashboard service.
func NewDashboardService(data plannerData, subjectCounts dashboardSubjectCounter, classCounts dashboardClassCounter, taskCounts dashboardTaskCounter, sessions dashboardSessionSource, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		data:          data,
		subjectCounts: subjectCounts,
		classCounts:   classCounts,
		taskCounts:    taskCounts,
		sessions:      sessions,
		cache:         cache,
		cacheTTL:      cacheTTL,
		logger:        logger,
		now:           time.Now,
	}
}

// Summary returns the user's dashboard, serving from cache when possible.
// The second return value reports whether the payload came from cache.
func (s *DashboardService) Summary(ctx context.Context, userID string) (*models.DashboardSummary, bool, error) {
	key := DashboardKey(userID)

	var cached models.DashboardSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	summary, err := s.compose(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard", zap.String("user_id", userID), zap.Error(err))
	}
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context, userID string) (*models.DashboardSummary, error) {
	now := s.now()

	classes, err := s.data.Classes(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}

	tasks, err := s.data.Tasks(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tasks")
	}

	recent, err := s.sessions.ListSince(ctx, userID, now.Add(-dashboardRecentWindow))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study sessions")
	}

	subjectCount, err := s.subjectCounts.CountByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count subjects")
	}

	classCount, err := s.classCounts.CountByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count classes")
	}

	openTasks, completedTasks, err := s.taskCounts.CountByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count tasks")
	}

	return &models.DashboardSummary{
		TodayClasses:   dto.ClassesForDay(classes, int(now.Weekday())),
		PendingTasks:   dto.PendingTasks(tasks, dashboardPendingTaskLimit),
		RecentSessions: dto.RecentSessions(recent, now.Add(-dashboardRecentWindow), dashboardRecentSessionLimit),
		Stats: models.DashboardStats{
			SubjectCount:        subjectCount,
			ClassCount:          classCount,
			OpenTaskCount:       openTasks,
			CompletedTaskCount:  completedTasks,
			StudySecondsRecent:  dto.TotalStudySeconds(recent),
			StudySessionsRecent: len(recent),
		},
	}, nil
}
