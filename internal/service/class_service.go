package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
)

type classRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, userID, classID string) error
}

type subjectChecker interface {
	ExistsForUser(ctx context.Context, userID, subjectID string) (bool, error)
}

// ClassService handles weekly timetable entries. Classes are immutable
// after creation, so there is no update path.
type ClassService struct {
	repo      classRepository
	subjects  subjectChecker
	cache     userCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService creates a new class service.
func NewClassService(repo classRepository, subjects subjectChecker, cache userCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, subjects: subjects, cache: cache, validator: validate, logger: logger}
}

// List returns the user's classes with subjects attached.
func (s *ClassService) List(ctx context.Context, userID string) ([]models.Class, error) {
	classes, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Create adds a new timetable entry owned by the user. A subject reference,
// if present, must point at one of the user's own subjects.
func (s *ClassService) Create(ctx context.Context, userID string, in dto.CreateClassInput) (*models.Class, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, validationError(err)
	}

	// Zero-padded HH:mm strings compare correctly as plain strings.
	if in.StartTime >= in.EndTime {
		return nil, invalidField("startTime must be before endTime")
	}

	if err := s.checkSubjectRef(ctx, userID, in.SubjectID); err != nil {
		return nil, err
	}

	class := &models.Class{
		UserID:    userID,
		SubjectID: in.SubjectID,
		DayOfWeek: in.DayOfWeek,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Location:  in.Location,
	}

	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}
	return class, nil
}

// Delete removes the user's class. Unknown ids succeed silently.
func (s *ClassService) Delete(ctx context.Context, userID, classID string) error {
	if err := s.repo.Delete(ctx, userID, classID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}
	return nil
}

func (s *ClassService) checkSubjectRef(ctx context.Context, userID string, subjectID *string) error {
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
