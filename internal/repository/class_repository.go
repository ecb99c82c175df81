package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studyhall/planner-api/internal/models"
)

// ClassRepository handles persistence for weekly timetable entries.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new repository instance.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

type classRow struct {
	models.Class
	SubjectName  sql.NullString `db:"subject_name"`
	SubjectColor sql.NullString `db:"subject_color"`
}

// ListByUser returns the user's classes with their subject attached when a
// reference exists.
func (r *ClassRepository) ListByUser(ctx context.Context, userID string) ([]models.Class, error) {
	const query = `SELECT c.id, c.user_id, c.subject_id, c.day_of_week, c.start_time, c.end_time, c.location, c.created_at,
       s.name AS subject_name, s.color AS subject_color
FROM classes c
LEFT JOIN subjects s ON s.id = c.subject_id AND s.user_id = c.user_id
WHERE c.user_id = $1
ORDER BY c.day_of_week ASC, c.start_time ASC`

	rows := []classRow{}
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	classes := make([]models.Class, 0, len(rows))
	for _, row := range rows {
		class := row.Class
		class.Subject = joinedSubject(class.UserID, class.SubjectID, row.SubjectName, row.SubjectColor)
		classes = append(classes, class)
	}
	return classes, nil
}

// Create persists a new class owned by the user.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO classes (id, user_id, subject_id, day_of_week, start_time, end_time, location, created_at)
VALUES (:id, :user_id, :subject_id, :day_of_week, :start_time, :end_time, :location, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Delete removes at most one class matching (id, userID). Unknown ids are a
// no-op.
func (r *ClassRepository) Delete(ctx context.Context, userID, classID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1 AND user_id = $2`, classID, userID); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}

// CountByUser returns the number of classes the user owns.
func (r *ClassRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM classes WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	return count, nil
}

// joinedSubject rebuilds the joined subject row from nullable scan targets.
func joinedSubject(userID string, subjectID *string, name, color sql.NullString) *models.Subject {
	if subjectID == nil || !name.Valid {
		return nil
	}
	return &models.Subject{
		ID:     *subjectID,
		UserID: userID,
		Name:   name.String,
		Color:  color.String,
	}
}
