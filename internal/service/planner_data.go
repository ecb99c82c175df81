package service

import (
	"context"

	"github.com/studyhall/planner-api/internal/models"
)

// PlannerData bundles the per-entity list reads used by composed features
// (dashboard composition and export rendering).
type PlannerData struct {
	ClassRepo   classRepository
	TaskRepo    taskRepository
	SessionRepo sessionRepository
}

// Classes returns the user's classes with subjects attached.
func (d PlannerData) Classes(ctx context.Context, userID string) ([]models.Class, error) {
	return d.ClassRepo.ListByUser(ctx, userID)
}

// Tasks returns the user's tasks with subjects attached.
func (d PlannerData) Tasks(ctx context.Context, userID string) ([]models.Task, error) {
	return d.TaskRepo.ListByUser(ctx, userID)
}

// Sessions returns the user's study sessions with subjects attached.
func (d PlannerData) Sessions(ctx context.Context, userID string) ([]models.StudySession, error) {
	return d.SessionRepo.ListByUser(ctx, userID)
}
