package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/middleware"
	"github.com/studyhall/planner-api/internal/models"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
)

type taskServiceMock struct {
	listResp   []models.Task
	createResp *models.Task
	updateResp *models.Task
	updateErr  error
	lastTaskID string
	lastUpdate dto.UpdateTaskInput
}

func (m *taskServiceMock) List(ctx context.Context, userID string) ([]models.Task, error) {
	return m.listResp, nil
}

func (m *taskServiceMock) Create(ctx context.Context, userID string, in dto.CreateTaskInput) (*models.Task, error) {
	return m.createResp, nil
}

func (m *taskServiceMock) Update(ctx context.Context, userID, taskID string, in dto.UpdateTaskInput) (*models.Task, error) {
	m.lastTaskID = taskID
	m.lastUpdate = in
	return m.updateResp, m.updateErr
}

func (m *taskServiceMock) Delete(ctx context.Context, userID, taskID string) error {
	return nil
}

func TestTaskHandlerUpdateTogglesCompletion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &taskServiceMock{
		updateResp: &models.Task{ID: "task-1", UserID: "user-1", Title: "Essay", IsCompleted: true, DueDate: time.Now()},
	}
	handler := NewTaskHandler(mockSvc)

	payload, _ := json.Marshal(map[string]bool{"isCompleted": true})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/api/tasks/task-1", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "task-1"}}
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "task-1", mockSvc.lastTaskID)
	require.NotNil(t, mockSvc.lastUpdate.IsCompleted)
	assert.True(t, *mockSvc.lastUpdate.IsCompleted)
	assert.Contains(t, w.Body.String(), `"isCompleted":true`)
}

func TestTaskHandlerUpdateNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &taskServiceMock{
		updateErr: appErrors.Clone(appErrors.ErrNotFound, "task not found"),
	}
	handler := NewTaskHandler(mockSvc)

	payload, _ := json.Marshal(map[string]bool{"isCompleted": true})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/api/tasks/other", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "other"}}
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Update(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandlerCreateWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTaskHandler(&taskServiceMock{})

	payload, _ := json.Marshal(dto.CreateTaskInput{Title: "Essay", DueDate: time.Now()})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
