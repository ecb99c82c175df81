package timer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
)

type sessionCreatorStub struct {
	lastInput dto.CreateSessionInput
	err       error
}

func (s *sessionCreatorStub) CreateSession(ctx context.Context, in dto.CreateSessionInput) (*models.StudySession, error) {
	s.lastInput = in
	if s.err != nil {
		return nil, s.err
	}
	return &models.StudySession{
		ID:        "sess-1",
		Title:     in.Title,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
	}, nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestTimerStartStopSaveScenario(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC)}
	creator := &sessionCreatorStub{}
	tm := New(creator)
	tm.SetClock(clock.Now)

	require.NoError(t, tm.Start())
	assert.Equal(t, StateRunning, tm.State())

	clock.Advance(65 * time.Second)
	require.NoError(t, tm.Stop())
	assert.Equal(t, StatePendingSave, tm.State())
	assert.Equal(t, "00:01:05", tm.Display())

	subjectID := "subj-1"
	session, err := tm.Save(context.Background(), "Algebra review", &subjectID)
	require.NoError(t, err)
	assert.Equal(t, "Algebra review", session.Title)
	assert.Equal(t, 65*time.Second, session.EndTime.Sub(session.StartTime))
	assert.Equal(t, StateIdle, tm.State())
	assert.Equal(t, "00:00:00", tm.Display())
	require.NotNil(t, creator.lastInput.SubjectID)
	assert.Equal(t, "subj-1", *creator.lastInput.SubjectID)
}

func TestTimerSaveEndsAtSubmission(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC)}
	creator := &sessionCreatorStub{}
	tm := New(creator)
	tm.SetClock(clock.Now)

	require.NoError(t, tm.Start())
	clock.Advance(65 * time.Second)
	require.NoError(t, tm.Stop())

	// The display freezes at the stop press, but the saved session keeps
	// running until the user actually submits it.
	clock.Advance(5 * time.Minute)
	assert.Equal(t, "00:01:05", tm.Display())

	session, err := tm.Save(context.Background(), "Algebra review", nil)
	require.NoError(t, err)
	assert.Equal(t, clock.now, session.EndTime)
	assert.Equal(t, 6*time.Minute+5*time.Second, session.EndTime.Sub(session.StartTime))
}

func TestTimerRunningHasNoStartTransition(t *testing.T) {
	tm := New(&sessionCreatorStub{})
	require.NoError(t, tm.Start())
	assert.ErrorIs(t, tm.Start(), ErrAlreadyRunning)
}

func TestTimerElapsedAdvancesWhileRunning(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC)}
	tm := New(&sessionCreatorStub{})
	tm.SetClock(clock.Now)

	require.NoError(t, tm.Start())
	clock.Advance(3*time.Second + 400*time.Millisecond)
	assert.Equal(t, 3*time.Second, tm.Elapsed())

	clock.Advance(time.Hour)
	assert.Equal(t, "01:00:03", tm.Display())
}

func TestTimerDiscardDropsInterval(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC)}
	creator := &sessionCreatorStub{}
	tm := New(creator)
	tm.SetClock(clock.Now)

	require.NoError(t, tm.Start())
	clock.Advance(10 * time.Second)
	require.NoError(t, tm.Stop())
	require.NoError(t, tm.Discard())

	assert.Equal(t, StateIdle, tm.State())
	assert.Empty(t, creator.lastInput.Title)

	_, err := tm.Save(context.Background(), "late", nil)
	assert.ErrorIs(t, err, ErrNothingToSave)
}

func TestTimerSaveFailureStaysPending(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC)}
	creator := &sessionCreatorStub{err: context.DeadlineExceeded}
	tm := New(creator)
	tm.SetClock(clock.Now)

	require.NoError(t, tm.Start())
	clock.Advance(time.Minute)
	require.NoError(t, tm.Stop())

	_, err := tm.Save(context.Background(), "Reading", nil)
	require.Error(t, err)
	assert.Equal(t, StatePendingSave, tm.State())
	assert.Equal(t, "00:01:00", tm.Display())
}

func TestFormatElapsedUnboundedHours(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatElapsed(0))
	assert.Equal(t, "27:15:09", FormatElapsed(27*time.Hour+15*time.Minute+9*time.Second))
}
