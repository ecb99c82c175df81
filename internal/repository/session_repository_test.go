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

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
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

func TestSessionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO study_sessions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	start := time.Now().Add(-65 * time.Second)
	session := &models.StudySession{
		UserID:    "user-1",
		Title:     "Algebra review",
		StartTime: start,
		EndTime:   start.Add(65 * time.Second),
	}
	require.NoError(t, repo.Create(context.Background(), session))
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, 65*time.Second, session.Duration())
}

func TestSessionRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE study_sessions SET")).
		WithArgs(true, "sess-9", "user-2").
		WillReturnError(sql.ErrNoRows)

	done := true
	_, err := repo.Update(context.Background(), "user-2", "sess-9", UpdateSessionParams{IsCompleted: &done})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestSessionRepositoryListSince(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	cutoff := time.Now().Add(-7 * 24 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "user_id", "subject_id", "title", "start_time", "end_time", "is_completed", "created_at"}).
		AddRow("sess-1", "user-1", nil, "Reading", time.Now().Add(-time.Hour), time.Now(), true, time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND start_time >= $2")).
		WithArgs("user-1", cutoff).
		WillReturnRows(rows)

	sessions, err := repo.ListSince(context.Background(), "user-1", cutoff)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Reading", sessions[0].Title)
}
