package models

import "time"

// Class is a recurring weekly timetable entry. Times are zero-padded
// "HH:mm" strings so lexical comparison orders them correctly.
type Class struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	SubjectID *string   `db:"subject_id" json:"subjectId,omitempty"`
	DayOfWeek int       `db:"day_of_week" json:"dayOfWeek"`
	StartTime string    `db:"start_time" json:"startTime"`
	EndTime   string    `db:"end_time" json:"endTime"`
	Location  *string   `db:"location" json:"location,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	// Subject is the joined subject row, nil when no reference exists.
	Subject *Subject `db:"-" json:"subject,omitempty"`
}
