package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
	"github.com/studyhall/planner-api/internal/repository"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
)

type taskRepoStub struct {
	tasks      []models.Task
	updated    *models.Task
	updateErr  error
	lastParams repository.UpdateTaskParams
	deleted    [][2]string
}

func (s *taskRepoStub) ListByUser(ctx context.Context, userID string) ([]models.Task, error) {
	return s.tasks, nil
}

func (s *taskRepoStub) Create(ctx context.Context, task *models.Task) error {
	task.ID = "task-1"
	return nil
}

func (s *taskRepoStub) Update(ctx context.Context, userID, taskID string, params repository.UpdateTaskParams) (*models.Task, error) {
	s.lastParams = params
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.updated, nil
}

func (s *taskRepoStub) Delete(ctx context.Context, userID, taskID string) error {
	s.deleted = append(s.deleted, [2]string{userID, taskID})
	return nil
}

type subjectCheckerStub struct {
	exists bool
}

func (s subjectCheckerStub) ExistsForUser(ctx context.Context, userID, subjectID string) (bool, error) {
	return s.exists, nil
}

func TestTaskServiceCreateRejectsForeignSubject(t *testing.T) {
	svc := NewTaskService(&taskRepoStub{}, subjectCheckerStub{exists: false}, nil, NewValidator(), nil)

	other := "b3c7a8e2-1111-4222-8333-444455556666"
	_, err := svc.Create(context.Background(), "user-1", dto.CreateTaskInput{
		SubjectID: &other,
		Title:     "Essay",
		DueDate:   time.Now().Add(time.Hour),
	})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Status, appErr.Status)
	assert.Contains(t, appErr.Message, "subjectId")
}

func TestTaskServiceCreateInvalidatesCache(t *testing.T) {
	cache := &cacheSpy{}
	svc := NewTaskService(&taskRepoStub{}, subjectCheckerStub{exists: true}, cache, NewValidator(), nil)

	task, err := svc.Create(context.Background(), "user-1", dto.CreateTaskInput{
		Title:   "Essay",
		DueDate: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, []string{"user-1"}, cache.invalidated)
}

func TestTaskServiceUpdateMissingRowIsNotFound(t *testing.T) {
	repo := &taskRepoStub{updateErr: sql.ErrNoRows}
	svc := NewTaskService(repo, subjectCheckerStub{exists: true}, nil, NewValidator(), nil)

	done := true
	_, err := svc.Update(context.Background(), "user-2", "task-1", dto.UpdateTaskInput{IsCompleted: &done})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Status, appErr.Status)
}

func TestTaskServiceUpdateEmptyPayloadRejected(t *testing.T) {
	svc := NewTaskService(&taskRepoStub{}, subjectCheckerStub{exists: true}, nil, NewValidator(), nil)

	_, err := svc.Update(context.Background(), "user-1", "task-1", dto.UpdateTaskInput{})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Status, appErr.Status)
}

func TestTaskServiceUpdateCompletionRoundTrip(t *testing.T) {
	repo := &taskRepoStub{}
	svc := NewTaskService(repo, subjectCheckerStub{exists: true}, nil, NewValidator(), nil)

	due := time.Now().Add(time.Hour)
	repo.updated = &models.Task{ID: "task-1", UserID: "user-1", Title: "Essay", DueDate: due, IsCompleted: true, Priority: models.PriorityMedium}

	done := true
	task, err := svc.Update(context.Background(), "user-1", "task-1", dto.UpdateTaskInput{IsCompleted: &done})
	require.NoError(t, err)
	assert.True(t, task.IsCompleted)
	assert.Equal(t, "Essay", task.Title)
	require.NotNil(t, repo.lastParams.IsCompleted)
	assert.Nil(t, repo.lastParams.Title)

	repo.updated.IsCompleted = false
	undone := false
	task, err = svc.Update(context.Background(), "user-1", "task-1", dto.UpdateTaskInput{IsCompleted: &undone})
	require.NoError(t, err)
	assert.False(t, task.IsCompleted)
	assert.Equal(t, models.PriorityMedium, task.Priority)
}

func TestTaskServiceDeleteAlwaysSucceeds(t *testing.T) {
	repo := &taskRepoStub{}
	cache := &cacheSpy{}
	svc := NewTaskService(repo, subjectCheckerStub{}, cache, NewValidator(), nil)

	require.NoError(t, svc.Delete(context.Background(), "user-1", "missing"))
	assert.Equal(t, [][2]string{{"user-1", "missing"}}, repo.deleted)
	assert.Equal(t, []string{"user-1"}, cache.invalidated)
}
