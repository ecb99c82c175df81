package models

import "time"

// TaskPriority enumerates the supported task priorities.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Task is a dated, prioritized to-do item optionally linked to a subject.
type Task struct {
	ID          string       `db:"id" json:"id"`
	UserID      string       `db:"user_id" json:"userId"`
	SubjectID   *string      `db:"subject_id" json:"subjectId,omitempty"`
	Title       string       `db:"title" json:"title"`
	Description *string      `db:"description" json:"description,omitempty"`
	DueDate     time.Time    `db:"due_date" json:"dueDate"`
	IsCompleted bool         `db:"is_completed" json:"isCompleted"`
	Priority    TaskPriority `db:"priority" json:"priority"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`

	Subject *Subject `db:"-" json:"subject,omitempty"`
}
