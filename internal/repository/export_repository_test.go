package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/planner-api/internal/models"
)

func newExportRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestExportRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newExportRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO export_jobs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ExportJob{UserID: "user-1", Type: models.ExportTypeTimetable, Format: models.ExportFormatCSV}
	require.NoError(t, repo.Create(context.Background(), job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
}

func TestExportRepositoryGetForUserScopesOwnership(t *testing.T) {
	db, mock, cleanup := newExportRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM export_jobs WHERE id = $1 AND user_id = $2")).
		WithArgs("job-1", "user-2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetForUser(context.Background(), "user-2", "job-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestExportRepositoryUpdateBuildsDynamicSet(t *testing.T) {
	db, mock, cleanup := newExportRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE export_jobs SET status = $1, progress = $2, result_file = $3 WHERE id = $4")).
		WithArgs(models.ExportStatusFinished, 100, "user-1/job-1.csv", "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := models.ExportStatusFinished
	progress := 100
	file := "user-1/job-1.csv"
	err := repo.Update(context.Background(), "job-1", UpdateExportJobParams{
		Status:     &status,
		Progress:   &progress,
		ResultFile: &file,
	})
	require.NoError(t, err)
}

func TestExportRepositoryUpdateNoFields(t *testing.T) {
	db, mock, cleanup := newExportRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateExportJobParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRepositoryListFinishedBefore(t *testing.T) {
	db, mock, cleanup := newExportRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	cutoff := time.Now().Add(-24 * time.Hour)
	finished := cutoff.Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"id", "user_id", "type", "format", "status", "progress", "result_file", "error_message", "created_at", "finished_at"}).
		AddRow("job-1", "user-1", "tasks", "pdf", "FINISHED", 100, sql.NullString{String: "user-1/job-1.pdf", Valid: true}, nil, finished.Add(-time.Minute), finished)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'FINISHED' AND finished_at IS NOT NULL AND finished_at < $1")).
		WithArgs(cutoff, 50).
		WillReturnRows(rows)

	jobs, err := repo.ListFinishedBefore(context.Background(), cutoff, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].ResultFile)
	assert.Equal(t, "user-1/job-1.pdf", *jobs[0].ResultFile)
}
