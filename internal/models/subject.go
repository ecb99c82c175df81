package models

import "time"

// Subject is a user-defined course or category with a display color.
// Subjects are immutable after creation; they can only be deleted.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Name      string    `db:"name" json:"name"`
	Color     string    `db:"color" json:"color"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
