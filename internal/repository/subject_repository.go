package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studyhall/planner-api/internal/models"
)

// SubjectRepository handles persistence for subjects. Every method scopes
// its statement to the owning user.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListByUser returns all subjects owned by the user.
func (r *SubjectRepository) ListByUser(ctx context.Context, userID string) ([]models.Subject, error) {
	const query = `SELECT id, user_id, name, color, created_at FROM subjects WHERE user_id = $1 ORDER BY created_at ASC`
	subjects := []models.Subject{}
	if err := r.db.SelectContext(ctx, &subjects, query, userID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// Create persists a new subject owned by the user.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO subjects (id, user_id, name, color, created_at) VALUES (:id, :user_id, :name, :color, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// ExistsForUser reports whether the subject id belongs to the user.
func (r *SubjectRepository) ExistsForUser(ctx context.Context, userID, subjectID string) (bool, error) {
	const query = `SELECT 1 FROM subjects WHERE id = $1 AND user_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, subjectID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check subject ownership: %w", err)
	}
	return true, nil
}

// Delete removes the user's subject and nulls the subject reference on the
// user's dependent classes, tasks and sessions in one transaction, so no
// dangling references survive. Deleting an unknown id is a no-op.
func (r *SubjectRepository) Delete(ctx context.Context, userID, subjectID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin subject delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"classes", "tasks", "study_sessions"} {
		detach := fmt.Sprintf("UPDATE %s SET subject_id = NULL WHERE user_id = $1 AND subject_id = $2", table)
		if _, err := tx.ExecContext(ctx, detach, userID, subjectID); err != nil {
			return fmt.Errorf("detach %s from subject: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1 AND user_id = $2`, subjectID, userID); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit subject delete: %w", err)
	}
	return nil
}

// CountByUser returns the number of subjects the user owns.
func (r *SubjectRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM subjects WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("count subjects: %w", err)
	}
	return count, nil
}
