package dto

import (
	"sort"
	"time"

	"github.com/studyhall/planner-api/internal/models"
)

// ClassesForDay filters classes to the given weekday (0=Sunday) and sorts
// them by start time. Zero-padded "HH:mm" strings order correctly under
// plain string comparison.
func ClassesForDay(classes []models.Class, dayOfWeek int) []models.Class {
	out := make([]models.Class, 0)
	for _, class := range classes {
		if class.DayOfWeek == dayOfWeek {
			out = append(out, class)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// PendingTasks returns incomplete tasks ordered by due date, earliest first.
// A limit <= 0 means no limit.
func PendingTasks(tasks []models.Task, limit int) []models.Task {
	out := make([]models.Task, 0)
	for _, task := range tasks {
		if !task.IsCompleted {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RecentSessions returns sessions started on or after the cutoff, newest
// first. A limit <= 0 means no limit.
func RecentSessions(sessions []models.StudySession, cutoff time.Time, limit int) []models.StudySession {
	out := make([]models.StudySession, 0)
	for _, session := range sessions {
		if !session.StartTime.Before(cutoff) {
			out = append(out, session)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TotalStudySeconds sums the recorded durations of the given sessions.
func TotalStudySeconds(sessions []models.StudySession) int64 {
	var total int64
	for _, session := range sessions {
		if d := session.Duration(); d > 0 {
			total += int64(d / time.Second)
		}
	}
	return total
}
