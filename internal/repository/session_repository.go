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

// SessionRepository handles persistence for study sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new repository instance.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

type sessionRow struct {
	models.StudySession
	SubjectName  sql.NullString `db:"subject_name"`
	SubjectColor sql.NullString `db:"subject_color"`
}

// ListByUser returns the user's study sessions with their subject attached
// when a reference exists.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]models.StudySession, error) {
	const query = `SELECT ss.id, ss.user_id, ss.subject_id, ss.title, ss.start_time, ss.end_time, ss.is_completed, ss.created_at,
       s.name AS subject_name, s.color AS subject_color
FROM study_sessions ss
LEFT JOIN subjects s ON s.id = ss.subject_id AND s.user_id = ss.user_id
WHERE ss.user_id = $1
ORDER BY ss.start_time DESC`

	rows := []sessionRow{}
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list study sessions: %w", err)
	}

	sessions := make([]models.StudySession, 0, len(rows))
	for _, row := range rows {
		session := row.StudySession
		session.Subject = joinedSubject(session.UserID, session.SubjectID, row.SubjectName, row.SubjectColor)
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Create persists a new study session owned by the user.
func (r *SessionRepository) Create(ctx context.Context, session *models.StudySession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO study_sessions (id, user_id, subject_id, title, start_time, end_time, is_completed, created_at)
VALUES (:id, :user_id, :subject_id, :title, :start_time, :end_time, :is_completed, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create study session: %w", err)
	}
	return nil
}

// UpdateSessionParams defines the mutable session fields; nil fields are
// left unchanged.
type UpdateSessionParams struct {
	SubjectID   *string
	Title       *string
	StartTime   *time.Time
	EndTime     *time.Time
	IsCompleted *bool
}

// Update applies the provided changes to the user's session and returns the
// updated row. sql.ErrNoRows is returned when no row matches (id, userID).
func (r *SessionRepository) Update(ctx context.Context, userID, sessionID string, params UpdateSessionParams) (*models.StudySession, error) {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 7)
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
	if params.StartTime != nil {
		appendSet("start_time", *params.StartTime)
	}
	if params.EndTime != nil {
		appendSet("end_time", *params.EndTime)
	}
	if params.IsCompleted != nil {
		appendSet("is_completed", *params.IsCompleted)
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("update study session: no fields to update")
	}

	query := fmt.Sprintf(`UPDATE study_sessions SET %s WHERE id = $%d AND user_id = $%d
RETURNING id, user_id, subject_id, title, start_time, end_time, is_completed, created_at`,
		strings.Join(set, ", "), argPos, argPos+1)
	args = append(args, sessionID, userID)

	var session models.StudySession
	if err := r.db.GetContext(ctx, &session, query, args...); err != nil {
		return nil, fmt.Errorf("update study session: %w", err)
	}
	return &session, nil
}

// Delete removes at most one session matching (id, userID). Unknown ids are
// a no-op.
func (r *SessionRepository) Delete(ctx context.Context, userID, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM study_sessions WHERE id = $1 AND user_id = $2`, sessionID, userID); err != nil {
		return fmt.Errorf("delete study session: %w", err)
	}
	return nil
}

// ListSince returns the user's sessions that started on or after the cutoff,
// newest first.
func (r *SessionRepository) ListSince(ctx context.Context, userID string, cutoff time.Time) ([]models.StudySession, error) {
	const query = `SELECT id, user_id, subject_id, title, start_time, end_time, is_completed, created_at
FROM study_sessions WHERE user_id = $1 AND start_time >= $2 ORDER BY start_time DESC`
	sessions := []models.StudySession{}
	if err := r.db.SelectContext(ctx, &sessions, query, userID, cutoff); err != nil {
		return nil, fmt.Errorf("list recent study sessions: %w", err)
	}
	return sessions, nil
}
