package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/planner-api/internal/models"
)

func newSubjectRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
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

func TestSubjectRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "color", "created_at"}).
		AddRow("subj-1", "user-1", "Algebra", "#3B82F6", time.Now())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, name, color, created_at FROM subjects WHERE user_id = $1`)).
		WithArgs("user-1").
		WillReturnRows(rows)

	subjects, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "Algebra", subjects[0].Name)
	assert.Equal(t, "#3B82F6", subjects[0].Color)
}

func TestSubjectRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subjects")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	subject := &models.Subject{UserID: "user-1", Name: "Algebra", Color: "#3B82F6"}
	require.NoError(t, repo.Create(context.Background(), subject))
	assert.NotEmpty(t, subject.ID)
	assert.False(t, subject.CreatedAt.IsZero())
}

func TestSubjectRepositoryDeleteCascadeNull(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET subject_id = NULL WHERE user_id = $1 AND subject_id = $2")).
		WithArgs("user-1", "subj-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET subject_id = NULL WHERE user_id = $1 AND subject_id = $2")).
		WithArgs("user-1", "subj-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE study_sessions SET subject_id = NULL WHERE user_id = $1 AND subject_id = $2")).
		WithArgs("user-1", "subj-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects WHERE id = $1 AND user_id = $2")).
		WithArgs("subj-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "user-1", "subj-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryDeleteUnknownIDIsNoop(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET subject_id = NULL")).
		WithArgs("user-1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET subject_id = NULL")).
		WithArgs("user-1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE study_sessions SET subject_id = NULL")).
		WithArgs("user-1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects")).
		WithArgs("missing", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "user-1", "missing"))
}

func TestSubjectRepositoryExistsForUser(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM subjects WHERE id = $1 AND user_id = $2")).
		WithArgs("subj-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	ok, err := repo.ExistsForUser(context.Background(), "user-1", "subj-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubjectRepositoryExistsForOtherUser(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM subjects")).
		WithArgs("subj-1", "user-2").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	ok, err := repo.ExistsForUser(context.Background(), "user-2", "subj-1")
	require.NoError(t, err)
	assert.False(t, ok)
}
