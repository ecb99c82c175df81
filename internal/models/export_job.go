package models

import "time"

// ExportType enumerates the datasets that can be exported.
type ExportType string

const (
	ExportTypeTimetable ExportType = "timetable"
	ExportTypeTasks     ExportType = "tasks"
	ExportTypeSessions  ExportType = "sessions"
)

// ExportFormat enumerates supported export file formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus captures background job lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob is a persisted asynchronous export request.
type ExportJob struct {
	ID           string       `db:"id" json:"id"`
	UserID       string       `db:"user_id" json:"userId"`
	Type         ExportType   `db:"type" json:"type"`
	Format       ExportFormat `db:"format" json:"format"`
	Status       ExportStatus `db:"status" json:"status"`
	Progress     int          `db:"progress" json:"progress"`
	ResultFile   *string      `db:"result_file" json:"-"`
	ErrorMessage *string      `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finishedAt,omitempty"`

	// DownloadURL is filled in by the handler for finished jobs.
	DownloadURL *string `db:"-" json:"downloadUrl,omitempty"`
}
