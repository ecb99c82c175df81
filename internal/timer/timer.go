// Package timer implements the study stopwatch used by the CLI: an
// Idle → Running → PendingSave → Idle state machine whose elapsed time is
// derived from a wall clock, so ticks only refresh the display.
package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
)

// State identifies the timer's position in its lifecycle.
type State int

const (
	// StateIdle means no timer is running.
	StateIdle State = iota
	// StateRunning means the elapsed counter is advancing.
	StateRunning
	// StatePendingSave means the timer is stopped and awaiting save or discard.
	StatePendingSave
)

var (
	// ErrAlreadyRunning is returned when Start is called while running.
	ErrAlreadyRunning = errors.New("timer is already running")
	// ErrNotRunning is returned when Stop is called outside Running.
	ErrNotRunning = errors.New("timer is not running")
	// ErrNothingToSave is returned when Save or Discard is called outside PendingSave.
	ErrNothingToSave = errors.New("no stopped timer to save")
)

type sessionCreator interface {
	CreateSession(ctx context.Context, in dto.CreateSessionInput) (*models.StudySession, error)
}

// Timer is the study stopwatch. Safe for use from the tick goroutine and the
// input loop at once.
type Timer struct {
	mu        sync.Mutex
	state     State
	startedAt time.Time
	stoppedAt time.Time
	sessions  sessionCreator
	now       func() time.Time
}

// New constructs an idle timer that saves sessions through creator.
func New(creator sessionCreator) *Timer {
	return &Timer{sessions: creator, now: time.Now}
}

// SetClock replaces the wall clock, for tests and simulations.
func (t *Timer) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// State returns the current lifecycle state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start begins a new run. Running has no start transition.
func (t *Timer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateIdle {
		return ErrAlreadyRunning
	}
	t.startedAt = t.now()
	t.stoppedAt = time.Time{}
	t.state = StateRunning
	return nil
}

// Stop freezes the elapsed counter and moves to PendingSave.
func (t *Timer) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateRunning {
		return ErrNotRunning
	}
	t.stoppedAt = t.now()
	t.state = StatePendingSave
	return nil
}

// Elapsed returns the tracked duration rounded down to whole seconds.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked()
}

func (t *Timer) elapsedLocked() time.Duration {
	switch t.state {
	case StateRunning:
		return t.now().Sub(t.startedAt).Truncate(time.Second)
	case StatePendingSave:
		return t.stoppedAt.Sub(t.startedAt).Truncate(time.Second)
	default:
		return 0
	}
}

// Display renders the elapsed time as zero-padded HH:MM:SS, hours unbounded.
func (t *Timer) Display() string {
	return FormatElapsed(t.Elapsed())
}

// FormatElapsed renders a duration as zero-padded HH:MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// Save creates the study session and returns to Idle. The session runs from
// the start press to the moment of submission, so time spent deciding on a
// title still counts. The timer stays in PendingSave when the create fails,
// so the user can retry or discard.
func (t *Timer) Save(ctx context.Context, title string, subjectID *string) (*models.StudySession, error) {
	t.mu.Lock()
	if t.state != StatePendingSave {
		t.mu.Unlock()
		return nil, ErrNothingToSave
	}
	in := dto.CreateSessionInput{
		SubjectID:   subjectID,
		Title:       title,
		StartTime:   t.startedAt,
		EndTime:     t.now(),
		IsCompleted: true,
	}
	t.mu.Unlock()

	session, err := t.sessions.CreateSession(ctx, in)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.reset()
	t.mu.Unlock()
	return session, nil
}

// Discard drops the frozen interval without creating a session.
func (t *Timer) Discard() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StatePendingSave {
		return ErrNothingToSave
	}
	t.reset()
	return nil
}

func (t *Timer) reset() {
	t.state = StateIdle
	t.startedAt = time.Time{}
	t.stoppedAt = time.Time{}
}

// Run refreshes the display once per second while the timer is running,
// calling onTick with the formatted elapsed time. It returns when ctx is done.
func (t *Timer) Run(ctx context.Context, onTick func(display string)) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if t.State() == StateRunning {
				onTick(t.Display())
			}
		}
	}
}
