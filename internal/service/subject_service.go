package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
)

type subjectRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	ExistsForUser(ctx context.Context, userID, subjectID string) (bool, error)
	Delete(ctx context.Context, userID, subjectID string) error
}

// userCacheInvalidator drops composed caches after a mutation.
type userCacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string)
}

// SubjectService handles the subject workflows. Subjects are immutable
// after creation, so there is no update path.
type SubjectService struct {
	repo      subjectRepository
	cache     userCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject service.
func NewSubjectService(repo subjectRepository, cache userCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns the user's subjects.
func (s *SubjectService) List(ctx context.Context, userID string) ([]models.Subject, error) {
	subjects, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// Create adds a new subject owned by the user.
func (s *SubjectService) Create(ctx context.Context, userID string, in dto.CreateSubjectInput) (*models.Subject, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, validationError(err)
	}

	subject := &models.Subject{
		UserID: userID,
		Name:   strings.TrimSpace(in.Name),
		Color:  in.Color,
	}
	if subject.Name == "" {
		return nil, invalidField("name is required")
	}

	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}
	return subject, nil
}

// Delete removes the user's subject and detaches dependent rows. Unknown
// ids succeed silently.
func (s *SubjectService) Delete(ctx context.Context, userID, subjectID string) error {
	if err := s.repo.Delete(ctx, userID, subjectID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}
	return nil
}
