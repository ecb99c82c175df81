package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/middleware"
	"github.com/studyhall/planner-api/internal/models"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
)

type subjectServiceMock struct {
	listResp   []models.Subject
	listErr    error
	createResp *models.Subject
	createErr  error
	deleteErr  error
	lastUserID string
	lastInput  dto.CreateSubjectInput
	deleted    []string
}

func (m *subjectServiceMock) List(ctx context.Context, userID string) ([]models.Subject, error) {
	m.lastUserID = userID
	return m.listResp, m.listErr
}

func (m *subjectServiceMock) Create(ctx context.Context, userID string, in dto.CreateSubjectInput) (*models.Subject, error) {
	m.lastUserID = userID
	m.lastInput = in
	return m.createResp, m.createErr
}

func (m *subjectServiceMock) Delete(ctx context.Context, userID, subjectID string) error {
	m.lastUserID = userID
	m.deleted = append(m.deleted, subjectID)
	return m.deleteErr
}

func testClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Email: "student@example.com"}
}

func TestSubjectHandlerListScopesToCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &subjectServiceMock{
		listResp: []models.Subject{{ID: "subj-1", UserID: "user-1", Name: "Algebra", Color: "#3B82F6"}},
	}
	handler := NewSubjectHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/api/subjects", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims())

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", mockSvc.lastUserID)
	assert.Contains(t, w.Body.String(), "Algebra")
}

func TestSubjectHandlerListWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSubjectHandler(&subjectServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/api/subjects", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubjectHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &subjectServiceMock{
		createResp: &models.Subject{ID: "subj-1", UserID: "user-1", Name: "Algebra", Color: "#3B82F6"},
	}
	handler := NewSubjectHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateSubjectInput{Name: "Algebra", Color: "#3B82F6"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/api/subjects", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Algebra", mockSvc.lastInput.Name)
}

func TestSubjectHandlerCreateMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSubjectHandler(&subjectServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/api/subjects", bytes.NewBufferString(`{"name":"Algebra"`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubjectHandlerCreateServiceValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &subjectServiceMock{
		createErr: appErrors.Clone(appErrors.ErrValidation, "color must be a valid hex color"),
	}
	handler := NewSubjectHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateSubjectInput{Name: "Algebra", Color: "blue"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/api/subjects", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "color must be a valid hex color")
}

func TestSubjectHandlerDeleteIsSilent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &subjectServiceMock{}
	handler := NewSubjectHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/api/subjects/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"missing"}, mockSvc.deleted)
}
