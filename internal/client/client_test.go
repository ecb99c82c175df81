package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
)

type route struct {
	status int
	data   interface{}
}

type countingServer struct {
	routes map[string]route
	server *httptest.Server
	hits   map[string]int
}

func newCountingServer(t *testing.T) *countingServer {
	t.Helper()
	cs := &countingServer{routes: map[string]route{}, hits: map[string]int{}}
	cs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		cs.hits[key]++
		rt, ok := cs.routes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if rt.status == http.StatusNoContent {
			w.WriteHeader(rt.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rt.status)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": rt.data})
	}))
	t.Cleanup(cs.server.Close)
	return cs
}

func (cs *countingServer) handle(methodAndPath string, status int, data interface{}) {
	cs.routes[methodAndPath] = route{status: status, data: data}
}

func TestClientCachesListUntilMutation(t *testing.T) {
	cs := newCountingServer(t)
	cs.handle("GET /api/tasks", http.StatusOK, []models.Task{{ID: "task-1", Title: "Essay", DueDate: time.Now()}})
	cs.handle("POST /api/tasks", http.StatusCreated, models.Task{ID: "task-2", Title: "Worksheet"})

	c := New(cs.server.URL)

	first, err := c.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = c.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cs.hits["GET /api/tasks"])

	_, err = c.CreateTask(context.Background(), dto.CreateTaskInput{Title: "Worksheet", DueDate: time.Now()})
	require.NoError(t, err)

	_, err = c.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cs.hits["GET /api/tasks"])
}

func TestClientSubjectDeleteInvalidatesDependentLists(t *testing.T) {
	cs := newCountingServer(t)
	cs.handle("GET /api/subjects", http.StatusOK, []models.Subject{})
	cs.handle("GET /api/classes", http.StatusOK, []models.Class{})
	cs.handle("GET /api/tasks", http.StatusOK, []models.Task{})
	cs.handle("GET /api/sessions", http.StatusOK, []models.StudySession{})
	cs.handle("DELETE /api/subjects/subj-1", http.StatusNoContent, nil)

	c := New(cs.server.URL)

	for _, call := range []func(context.Context) error{
		func(ctx context.Context) error { _, err := c.ListSubjects(ctx); return err },
		func(ctx context.Context) error { _, err := c.ListClasses(ctx); return err },
		func(ctx context.Context) error { _, err := c.ListTasks(ctx); return err },
		func(ctx context.Context) error { _, err := c.ListSessions(ctx); return err },
	} {
		require.NoError(t, call(context.Background()))
		require.NoError(t, call(context.Background()))
	}
	assert.Equal(t, 1, cs.hits["GET /api/classes"])

	require.NoError(t, c.DeleteSubject(context.Background(), "subj-1"))

	_, err := c.ListClasses(context.Background())
	require.NoError(t, err)
	_, err = c.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cs.hits["GET /api/classes"])
	assert.Equal(t, 2, cs.hits["GET /api/sessions"])
}

func TestClientClassDeleteLeavesOtherListsCached(t *testing.T) {
	cs := newCountingServer(t)
	cs.handle("GET /api/classes", http.StatusOK, []models.Class{{ID: "c-1", StartTime: "09:00", EndTime: "10:00"}})
	cs.handle("GET /api/tasks", http.StatusOK, []models.Task{})
	cs.handle("DELETE /api/classes/c-1", http.StatusNoContent, nil)

	c := New(cs.server.URL)

	_, err := c.ListClasses(context.Background())
	require.NoError(t, err)
	_, err = c.ListTasks(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.DeleteClass(context.Background(), "c-1"))

	_, err = c.ListClasses(context.Background())
	require.NoError(t, err)
	_, err = c.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cs.hits["GET /api/classes"])
	assert.Equal(t, 1, cs.hits["GET /api/tasks"])
}

func TestClientSurfacesServerErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": "VALIDATION_ERROR", "status": 400, "message": "color must be a valid hex color"},
		})
	}))
	defer server.Close()

	c := New(server.URL)

	_, err := c.CreateSubject(context.Background(), dto.CreateSubjectInput{Name: "Algebra", Color: "blue"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "color must be a valid hex color")
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": models.UserInfo{ID: "user-1", Email: "student@example.com"},
		})
	}))
	defer server.Close()

	c := New(server.URL)
	c.SetToken("token-123")

	info, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", info.ID)
	assert.Equal(t, "Bearer token-123", gotAuth)
}
