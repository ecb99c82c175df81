package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
	"github.com/studyhall/planner-api/internal/repository"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
	"github.com/studyhall/planner-api/pkg/export"
	"github.com/studyhall/planner-api/pkg/jobs"
	"github.com/studyhall/planner-api/pkg/storage"
)

// exportTaskType is the dispatcher task type for export jobs.
const exportTaskType = "export"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetForUser(ctx context.Context, userID, jobID string) (*models.ExportJob, error)
	GetByID(ctx context.Context, jobID string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type taskSubmitter interface {
	Submit(task jobs.Task) error
}

type plannerData interface {
	Classes(ctx context.Context, userID string) ([]models.Class, error)
	Tasks(ctx context.Context, userID string) ([]models.Task, error)
	Sessions(ctx context.Context, userID string) ([]models.StudySession, error)
}

// ExportServiceConfig governs file retention and worker behaviour.
type ExportServiceConfig struct {
	DownloadPathPrefix string
	ResultTTL          time.Duration
	CleanupInterval    time.Duration
	MaxRetries         int
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File     *os.File
	Filename string
	Format   models.ExportFormat
}

// ExportService orchestrates the asynchronous export pipeline: job rows,
// dispatcher tasks, file rendering, signed downloads and cleanup.
type ExportService struct {
	store     exportJobStore
	data      plannerData
	queue     taskSubmitter
	files     *storage.FileStore
	signer    *storage.DownloadSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportServiceConfig
}

// NewExportService constructs the export service.
func NewExportService(store exportJobStore, data plannerData, queue taskSubmitter, files *storage.FileStore, signer *storage.DownloadSigner, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ExportServiceConfig) *ExportService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DownloadPathPrefix == "" {
		cfg.DownloadPathPrefix = "/api/exports/download"
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &ExportService{
		store:     store,
		data:      data,
		queue:     queue,
		files:     files,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateJob validates the request, persists the job row and queues it.
func (s *ExportService) CreateJob(ctx context.Context, userID string, in dto.CreateExportInput) (*models.ExportJob, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, validationError(err)
	}

	job := &models.ExportJob{
		UserID: userID,
		Type:   in.Type,
		Format: in.Format,
		Status: models.ExportStatusQueued,
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Submit(jobs.Task{ID: job.ID, Type: exportTaskType}); err != nil {
		s.markFailed(ctx, job.ID, "failed to enqueue job")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return job, nil
}

// GetJob returns the user's job, attaching a signed download URL once the
// export has finished.
func (s *ExportService) GetJob(ctx context.Context, userID, jobID string) (*models.ExportJob, error) {
	job, err := s.store.GetForUser(ctx, userID, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}

	if job.Status == models.ExportStatusFinished && job.ResultFile != nil && s.signer != nil {
		token, _, err := s.signer.Sign(job.ID, *job.ResultFile)
		if err != nil {
			s.logger.Warn("failed to sign download token", zap.String("job_id", job.ID), zap.Error(err))
		} else {
			url := fmt.Sprintf("%s/%s", s.cfg.DownloadPathPrefix, token)
			job.DownloadURL = &url
		}
	}
	return job, nil
}

// ResolveDownload validates a signed token and opens the stored file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, fileName, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}

	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusFinished || job.ResultFile == nil || *job.ResultFile != fileName {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}

	file, err := s.files.Open(fileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:     file,
		Filename: filepath.Base(fileName),
		Format:   job.Format,
	}, nil
}

// Handle processes one dispatcher task end to end.
func (s *ExportService) Handle(ctx context.Context, task jobs.Task) error {
	job, err := s.store.GetByID(ctx, task.ID)
	if err != nil {
		return err
	}

	processing := models.ExportStatusProcessing
	progress := 10
	if err := s.store.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}

	fileName, err := s.render(ctx, job)
	if err != nil {
		if task.Attempt >= s.cfg.MaxRetries {
			s.markFailed(ctx, job.ID, err.Error())
			if s.metrics != nil {
				s.metrics.RecordExportJob(string(models.ExportStatusFailed))
			}
		} else {
			queued := models.ExportStatusQueued
			reset := 0
			msg := err.Error()
			if updateErr := s.store.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &queued,
				Progress:     &reset,
				ErrorMessage: &msg,
			}); updateErr != nil {
				s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
		}
		return err
	}

	finished := models.ExportStatusFinished
	progress = 100
	now := time.Now().UTC()
	clear := ""
	if err := s.store.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultFile:   &fileName,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark export finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordExportJob(string(models.ExportStatusFinished))
	}
	return nil
}

// RecoverPendingJobs replays queued jobs after a process restart.
func (s *ExportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.store.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued export jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Submit(jobs.Task{ID: job.ID, Type: exportTaskType}); err != nil {
			s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

// StartCleanup boots a goroutine that purges expired export files.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ExportService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	expired, err := s.store.ListFinishedBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Warn("export cleanup list failed", zap.Error(err))
		return
	}
	for _, job := range expired {
		if job.ResultFile == nil {
			continue
		}
		if err := s.files.Remove(*job.ResultFile); err != nil {
			s.logger.Warn("export cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if _, err := s.files.Sweep(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("export filesystem sweep failed", zap.Error(err))
	}
}

func (s *ExportService) markFailed(ctx context.Context, jobID, message string) {
	failed := models.ExportStatusFailed
	progress := 100
	now := time.Now().UTC()
	if err := s.store.Update(ctx, jobID, repository.UpdateExportJobParams{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &message,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark export job failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (s *ExportService) render(ctx context.Context, job *models.ExportJob) (string, error) {
	table, err := s.buildTable(ctx, job)
	if err != nil {
		return "", err
	}

	var data []byte
	switch job.Format {
	case models.ExportFormatCSV:
		data, err = s.csv.Render(table)
	case models.ExportFormatPDF:
		data, err = s.pdf.Render(table)
	default:
		err = fmt.Errorf("unsupported export format %q", job.Format)
	}
	if err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("%s/%s.%s", job.UserID, job.ID, job.Format)
	return s.files.Write(fileName, data)
}

func (s *ExportService) buildTable(ctx context.Context, job *models.ExportJob) (export.Table, error) {
	switch job.Type {
	case models.ExportTypeTimetable:
		classes, err := s.data.Classes(ctx, job.UserID)
		if err != nil {
			return export.Table{}, err
		}
		return timetableTable(classes), nil
	case models.ExportTypeTasks:
		tasks, err := s.data.Tasks(ctx, job.UserID)
		if err != nil {
			return export.Table{}, err
		}
		return tasksTable(tasks), nil
	case models.ExportTypeSessions:
		sessions, err := s.data.Sessions(ctx, job.UserID)
		if err != nil {
			return export.Table{}, err
		}
		return sessionsTable(sessions), nil
	default:
		return export.Table{}, fmt.Errorf("unsupported export type %q", job.Type)
	}
}

func timetableTable(classes []models.Class) export.Table {
	table := export.Table{
		Title:   "Weekly Timetable",
		Columns: []string{"Day", "Start", "End", "Subject", "Location"},
	}
	for _, class := range classes {
		subject := ""
		if class.Subject != nil {
			subject = class.Subject.Name
		}
		location := ""
		if class.Location != nil {
			location = *class.Location
		}
		table.Rows = append(table.Rows, []string{
			time.Weekday(class.DayOfWeek).String(),
			class.StartTime,
			class.EndTime,
			subject,
			location,
		})
	}
	return table
}

func tasksTable(tasks []models.Task) export.Table {
	table := export.Table{
		Title:   "Tasks",
		Columns: []string{"Title", "Due", "Priority", "Status", "Subject"},
	}
	for _, task := range tasks {
		subject := ""
		if task.Subject != nil {
			subject = task.Subject.Name
		}
		status := "open"
		if task.IsCompleted {
			status = "done"
		}
		table.Rows = append(table.Rows, []string{
			task.Title,
			task.DueDate.Format("2006-01-02 15:04"),
			string(task.Priority),
			status,
			subject,
		})
	}
	return table
}

func sessionsTable(sessions []models.StudySession) export.Table {
	table := export.Table{
		Title:   "Study Sessions",
		Columns: []string{"Title", "Start", "End", "Duration", "Subject"},
	}
	for _, session := range sessions {
		subject := ""
		if session.Subject != nil {
			subject = session.Subject.Name
		}
		table.Rows = append(table.Rows, []string{
			session.Title,
			session.StartTime.Format("2006-01-02 15:04"),
			session.EndTime.Format("2006-01-02 15:04"),
			session.Duration().Truncate(time.Second).String(),
			subject,
		})
	}
	return table
}
