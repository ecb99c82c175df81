package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
	"github.com/studyhall/planner-api/internal/repository"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
)

type sessionRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.StudySession, error)
	Create(ctx context.Context, session *models.StudySession) error
	Update(ctx context.Context, userID, sessionID string, params repository.UpdateSessionParams) (*models.StudySession, error)
	Delete(ctx context.Context, userID, sessionID string) error
}

// SessionService handles study session workflows.
type SessionService struct {
	repo      sessionRepository
	subjects  subjectChecker
	cache     userCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(repo sessionRepository, subjects subjectChecker, cache userCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, subjects: subjects, cache: cache, validator: validate, logger: logger}
}

// List returns the user's study sessions with subjects attached.
func (s *SessionService) List(ctx context.Context, userID string) ([]models.StudySession, error) {
	sessions, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list study sessions")
	}
	return sessions, nil
}

// Create records a new study session owned by the user.
func (s *SessionService) Create(ctx context.Context, userID string, in dto.CreateSessionInput) (*models.StudySession, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, validationError(err)
	}

	if in.StartTime.After(in.EndTime) {
		return nil, invalidField("startTime must not be after endTime")
	}

	if err := s.checkSubjectRef(ctx, userID, in.SubjectID); err != nil {
		return nil, err
	}

	session := &models.StudySession{
		UserID:      userID,
		SubjectID:   in.SubjectID,
		Title:       strings.TrimSpace(in.Title),
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		IsCompleted: in.IsCompleted,
	}
	if session.Title == "" {
		return nil, invalidField("title is required")
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create study session")
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}
	return session, nil
}

// Update applies a partial change to the user's session. The time range is
// re-checked only when both bounds are supplied.
func (s *SessionService) Update(ctx context.Context, userID, sessionID string, in dto.UpdateSessionInput) (*models.StudySession, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if in.Empty() {
		return nil, invalidField("at least one field must be provided")
	}

	if in.StartTime != nil && in.EndTime != nil && in.StartTime.After(*in.EndTime) {
		return nil, invalidField("startTime must not be after endTime")
	}

	if err := s.checkSubjectRef(ctx, userID, in.SubjectID); err != nil {
		return nil, err
	}

	params := repository.UpdateSessionParams{
		SubjectID:   in.SubjectID,
		Title:       in.Title,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		IsCompleted: in.IsCompleted,
	}

	session, err := s.repo.Update(ctx, userID, sessionID, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "study session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update study session")
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}
	return session, nil
}

// Delete removes the user's session. Unknown ids succeed silently.
func (s *SessionService) Delete(ctx context.Context, userID, sessionID string) error {
	if err := s.repo.Delete(ctx, userID, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete study session")
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}
	return nil
}

func (s *SessionService) checkSubjectRef(ctx context.Context, userID string, subjectID *string) error {
	if subjectID == nil || s.subjects == nil {
		return nil
	}
	ok, err := s.subjects.ExistsForUser(ctx, userID, *subjectID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject reference")
	}
	if !ok {
		return invalidField("subjectId does not reference one of your subjects")
	}
	return nil
}
