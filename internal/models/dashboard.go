package models

// DashboardSummary is the composed per-user dashboard payload.
type DashboardSummary struct {
	TodayClasses   []Class        `json:"todayClasses"`
	PendingTasks   []Task         `json:"pendingTasks"`
	RecentSessions []StudySession `json:"recentSessions"`
	Stats          DashboardStats `json:"stats"`
}

// DashboardStats carries aggregate counters for the dashboard header.
type DashboardStats struct {
	SubjectCount        int   `json:"subjectCount"`
	ClassCount          int   `json:"classCount"`
	OpenTaskCount       int   `json:"openTaskCount"`
	CompletedTaskCount  int   `json:"completedTaskCount"`
	StudySecondsRecent  int64 `json:"studySecondsRecent"`
	StudySessionsRecent int   `json:"studySessionsRecent"`
}
