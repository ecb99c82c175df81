// Package dto defines the request payloads shared by the HTTP handlers and
// the CLI client, so both sides validate the same shapes with the same rules.
package dto

import (
	"time"

	"github.com/studyhall/planner-api/internal/models"
)

// CreateSubjectInput is the payload for creating a subject.
type CreateSubjectInput struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"required,hexcolor"`
}

// CreateClassInput is the payload for creating a timetable entry. The entry
// has no name of its own; the display label comes from the referenced
// subject. StartTime and EndTime are zero-padded "HH:mm" strings.
type CreateClassInput struct {
	SubjectID *string `json:"subjectId,omitempty" validate:"omitempty,uuid4"`
	DayOfWeek int     `json:"dayOfWeek" validate:"min=0,max=6"`
	StartTime string  `json:"startTime" validate:"required,datetime=15:04"`
	EndTime   string  `json:"endTime" validate:"required,datetime=15:04"`
	Location  *string `json:"location,omitempty"`
}

// CreateTaskInput is the payload for creating a task.
type CreateTaskInput struct {
	SubjectID   *string             `json:"subjectId,omitempty" validate:"omitempty,uuid4"`
	Title       string              `json:"title" validate:"required"`
	Description *string             `json:"description,omitempty"`
	DueDate     time.Time           `json:"dueDate" validate:"required"`
	IsCompleted bool                `json:"isCompleted"`
	Priority    models.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// UpdateTaskInput is a partial task update; nil fields are left unchanged.
type UpdateTaskInput struct {
	SubjectID   *string              `json:"subjectId,omitempty" validate:"omitempty,uuid4"`
	Title       *string              `json:"title,omitempty" validate:"omitempty,min=1"`
	Description *string              `json:"description,omitempty"`
	DueDate     *time.Time           `json:"dueDate,omitempty"`
	IsCompleted *bool                `json:"isCompleted,omitempty"`
	Priority    *models.TaskPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
}

// Empty reports whether the update carries no field changes.
func (in UpdateTaskInput) Empty() bool {
	return in.SubjectID == nil && in.Title == nil && in.Description == nil &&
		in.DueDate == nil && in.IsCompleted == nil && in.Priority == nil
}

// CreateSessionInput is the payload for recording a study session.
type CreateSessionInput struct {
	SubjectID   *string   `json:"subjectId,omitempty" validate:"omitempty,uuid4"`
	Title       string    `json:"title" validate:"required"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required"`
	IsCompleted bool      `json:"isCompleted"`
}

// UpdateSessionInput is a partial session update; nil fields are left unchanged.
type UpdateSessionInput struct {
	SubjectID   *string    `json:"subjectId,omitempty" validate:"omitempty,uuid4"`
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	IsCompleted *bool      `json:"isCompleted,omitempty"`
}

// Empty reports whether the update carries no field changes.
func (in UpdateSessionInput) Empty() bool {
	return in.SubjectID == nil && in.Title == nil && in.StartTime == nil &&
		in.EndTime == nil && in.IsCompleted == nil
}

// CreateExportInput requests an asynchronous export job.
type CreateExportInput struct {
	Type   models.ExportType   `json:"type" validate:"required,oneof=timetable tasks sessions"`
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}
