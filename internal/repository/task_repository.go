package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studyhall/planner-api/internal/models"
)

// TaskRepository handles persistence for tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new repository instance.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

type taskRow struct {
	models.Task
	SubjectName  sql.NullString `db:"subject_name"`
	SubjectColor sql.NullString `db:"subject_color"`
}

// ListByUser returns the user's tasks with their subject attached when a
// reference exists.
func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]models.Task, error) {
	const query = `SELECT t.id, t.user_id, t.subject_id, t.title, t.description, t.due_date, t.is_completed, t.priority, t.created_at,
       s.name AS subject_name, s.color AS subject_color
FROM tasks t
LEFT JOIN subjects s ON s.id = t.subject_id AND s.user_id = t.user_id
WHERE t.user_id = $1
ORDER BY t.due_date ASC`

	rows := []taskRow{}
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		task := row.Task
		task.Subject = joinedSubject(task.UserID, task.SubjectID, row.SubjectName, row.SubjectColor)
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Create persists a new task owned by the user.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO tasks (id, user_id, subject_id, title, description, due_date, is_completed, priority, created_at)
VALUES (:id, :user_id, :subject_id, :title, :description, :due_date, :is_completed, :priority, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// UpdateTaskParams defines the mutable task fields; nil fields are left
// unchanged.
type UpdateTaskParams struct {
	SubjectID   *string
	Title       *string
	Description *string
	DueDate     *time.Time
	IsCompleted *bool
	Priority    *models.TaskPriority
}

// Update applies the provided changes to the user's task and returns the
// updated row. sql.ErrNoRows is returned when no row matches (id, userID).
func (r *TaskRepository) Update(ctx context.Context, userID, taskID string, params UpdateTaskParams) (*models.Task, error) {
	set := make([]string, 0, 6)
	args := make([]interface{}, 0, 8)
	argPos := 1

	appendSet := func(column string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.SubjectID != nil {
		appendSet("subject_id", *params.SubjectID)
	}
	if params.Title != nil {
		appendSet("title", *params.Title)
	}
	if params.Description != nil {
		appendSet("description", *params.Description)
	}
	if params.DueDate != nil {
		appendSet("due_date", *params.DueDate)
	}
	if params.IsCompleted != nil {
		appendSet("is_completed", *params.IsCompleted)
	}
	if params.Priority != nil {
		appendSet("priority", *params.Priority)
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("update task: no fields to update")
	}

	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d AND user_id = $%d
RETURNING id, user_id, subject_id, title, description, due_date, is_completed, priority, created_at`,
		strings.Join(set, ", "), argPos, argPos+1)
	args = append(args, taskID, userID)

	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, args...); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &task, nil
}

// Delete removes at most one task matching (id, userID). Unknown ids are a
// no-op.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// CountByUser returns open and completed task counts for the user.
func (r *TaskRepository) CountByUser(ctx context.Context, userID string) (open, completed int, err error) {
	const query = `SELECT COUNT(*) FILTER (WHERE NOT is_completed) AS open,
       COUNT(*) FILTER (WHERE is_completed) AS completed
FROM tasks WHERE user_id = $1`
	var counts struct {
		Open      int `db:"open"`
		Completed int `db:"completed"`
	}
	if err := r.db.GetContext(ctx, &counts, query, userID); err != nil {
		return 0, 0, fmt.Errorf("count tasks: %w", err)
	}
	return counts.Open, counts.Completed, nil
}
