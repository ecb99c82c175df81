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

type taskRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, userID, taskID string, params repository.UpdateTaskParams) (*models.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
}

// TaskService handles task workflows.
type TaskService struct {
	repo      taskRepository
	subjects  subjectChecker
	cache     userCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(repo taskRepository, subjects subjectChecker, cache userCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{repo: repo, subjects: subjects, cache: cache, validator: validate, logger: logger}
}

// List returns the user's tasks with subjects attached.
func (s *TaskService) List(ctx context.Context, userID string) ([]models.Task, error) {
	tasks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

// Create adds a new task owned by the user.
func (s *TaskService) Create(ctx context.Context, userID string, in dto.CreateTaskInput) (*models.Task, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, validationError(err)
	}

	if err := s.checkSubjectRef(ctx, userID, in.SubjectID); err != nil {
		return nil, err
	}

	task := &models.Task{
		UserID:      userID,
		SubjectID:   in.SubjectID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		DueDate:     in.DueDate,
		IsCompleted: in.IsCompleted,
		Priority:    in.Priority,
	}
	if task.Title == "" {
		return nil, invalidField("title is required")
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}
	return task, nil
}

// Update applies a partial change to the user's task. A task that does not
// exist, or belongs to another user, yields a not-found error.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, in dto.UpdateTaskInput) (*models.Task, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if in.Empty() {
		return nil, invalidField("at least one field must be provided")
	}

	if err := s.checkSubjectRef(ctx, userID, in.SubjectID); err != nil {
		return nil, err
	}

	params := repository.UpdateTaskParams{
		SubjectID:   in.SubjectID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		IsCompleted: in.IsCompleted,
		Priority:    in.Priority,
	}

	task, err := s.repo.Update(ctx, userID, taskID, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}
	return task, nil
}

// Delete removes the user's task. Unknown ids succeed silently.
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	if err := s.repo.Delete(ctx, userID, taskID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}
	return nil
}

func (s *TaskService) checkSubjectRef(ctx context.Context, userID string, subjectID *string) error {
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
