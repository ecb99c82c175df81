package models

import "time"

// StudySession is a recorded interval of focused study.
type StudySession struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	SubjectID   *string   `db:"subject_id" json:"subjectId,omitempty"`
	Title       string    `db:"title" json:"title"`
	StartTime   time.Time `db:"start_time" json:"startTime"`
	EndTime     time.Time `db:"end_time" json:"endTime"`
	IsCompleted bool      `db:"is_completed" json:"isCompleted"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`

	Subject *Subject `db:"-" json:"subject,omitempty"`
}

// Duration returns the recorded session length.
func (s StudySession) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}
