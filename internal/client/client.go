// Package client is the HTTP client used by the planner CLI. List responses
// are cached in-process; a successful mutation invalidates the entity's cached
// list, and deleting a subject also invalidates the class, task and session
// lists because their attached subject fields may now be stale.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
)

const (
	listSubjects = "subjects"
	listClasses  = "classes"
	listTasks    = "tasks"
	listSessions = "sessions"
)

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

// Client talks to the planner API on behalf of one authenticated user.
type Client struct {
	baseURL string
	http    *http.Client

	mu     sync.Mutex
	token  string
	lists  map[string]json.RawMessage
}

// New constructs a client for the given base URL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		lists:   map[string]json.RawMessage{},
	}
}

// SetToken installs the bearer token used on authenticated calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Login authenticates and stores the returned access token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var res models.LoginResponse
	payload := models.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", payload, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.AccessToken)
	return &res, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error) {
	var info models.UserInfo
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*models.UserInfo, error) {
	var info models.UserInfo
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListSubjects returns the cached subject list, fetching on a cold cache.
func (c *Client) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := c.cachedList(ctx, listSubjects, "/api/subjects", &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

// CreateSubject creates a subject and invalidates the subject list.
func (c *Client) CreateSubject(ctx context.Context, in dto.CreateSubjectInput) (*models.Subject, error) {
	var subject models.Subject
	if err := c.do(ctx, http.MethodPost, "/api/subjects", in, &subject); err != nil {
		return nil, err
	}
	c.invalidate(listSubjects)
	return &subject, nil
}

// DeleteSubject deletes a subject. Because dependent rows lose their subject
// attachment, every list cache is dropped.
func (c *Client) DeleteSubject(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/subjects/"+id, nil, nil); err != nil {
		return err
	}
	c.invalidate(listSubjects, listClasses, listTasks, listSessions)
	return nil
}

// ListClasses returns the cached timetable, fetching on a cold cache.
func (c *Client) ListClasses(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	if err := c.cachedList(ctx, listClasses, "/api/classes", &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// CreateClass creates a timetable entry and invalidates the class list.
func (c *Client) CreateClass(ctx context.Context, in dto.CreateClassInput) (*models.Class, error) {
	var class models.Class
	if err := c.do(ctx, http.MethodPost, "/api/classes", in, &class); err != nil {
		return nil, err
	}
	c.invalidate(listClasses)
	return &class, nil
}

// DeleteClass deletes a timetable entry and invalidates the class list.
func (c *Client) DeleteClass(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/classes/"+id, nil, nil); err != nil {
		return err
	}
	c.invalidate(listClasses)
	return nil
}

// ListTasks returns the cached task list, fetching on a cold cache.
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.cachedList(ctx, listTasks, "/api/tasks", &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task and invalidates the task list.
func (c *Client) CreateTask(ctx context.Context, in dto.CreateTaskInput) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", in, &task); err != nil {
		return nil, err
	}
	c.invalidate(listTasks)
	return &task, nil
}

// UpdateTask patches a task and invalidates the task list.
func (c *Client) UpdateTask(ctx context.Context, id string, in dto.UpdateTaskInput) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+id, in, &task); err != nil {
		return nil, err
	}
	c.invalidate(listTasks)
	return &task, nil
}

// DeleteTask deletes a task and invalidates the task list.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/tasks/"+id, nil, nil); err != nil {
		return err
	}
	c.invalidate(listTasks)
	return nil
}

// ListSessions returns the cached session list, fetching on a cold cache.
func (c *Client) ListSessions(ctx context.Context) ([]models.StudySession, error) {
	var sessions []models.StudySession
	if err := c.cachedList(ctx, listSessions, "/api/sessions", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession records a study session and invalidates the session list.
func (c *Client) CreateSession(ctx context.Context, in dto.CreateSessionInput) (*models.StudySession, error) {
	var session models.StudySession
	if err := c.do(ctx, http.MethodPost, "/api/sessions", in, &session); err != nil {
		return nil, err
	}
	c.invalidate(listSessions)
	return &session, nil
}

// UpdateSession patches a study session and invalidates the session list.
func (c *Client) UpdateSession(ctx context.Context, id string, in dto.UpdateSessionInput) (*models.StudySession, error) {
	var session models.StudySession
	if err := c.do(ctx, http.MethodPatch, "/api/sessions/"+id, in, &session); err != nil {
		return nil, err
	}
	c.invalidate(listSessions)
	return &session, nil
}

// DeleteSession deletes a study session and invalidates the session list.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/sessions/"+id, nil, nil); err != nil {
		return err
	}
	c.invalidate(listSessions)
	return nil
}

// Dashboard fetches the composed dashboard. Never cached client-side; the
// server already caches it.
func (c *Client) Dashboard(ctx context.Context) (*models.DashboardSummary, error) {
	var summary models.DashboardSummary
	if err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// CreateExport queues an export job.
func (c *Client) CreateExport(ctx context.Context, in dto.CreateExportInput) (*models.ExportJob, error) {
	var job models.ExportJob
	if err := c.do(ctx, http.MethodPost, "/api/exports", in, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetExport returns an export job's status.
func (c *Client) GetExport(ctx context.Context, id string) (*models.ExportJob, error) {
	var job models.ExportJob
	if err := c.do(ctx, http.MethodGet, "/api/exports/"+id, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) cachedList(ctx context.Context, key, path string, out interface{}) error {
	c.mu.Lock()
	raw, ok := c.lists[key]
	c.mu.Unlock()
	if ok {
		return json.Unmarshal(raw, out)
	}

	if err := c.do(ctx, http.MethodGet, path, nil, out); err != nil {
		return err
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.lists[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *Client) invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.lists, key)
	}
}

// do performs one request. Failures surface once; there are no retries.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response from %s %s: %w", method, path, err)
	}
	if env.Error != nil {
		return env.Error
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s returned status %d", method, path, resp.StatusCode)
	}

	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}
