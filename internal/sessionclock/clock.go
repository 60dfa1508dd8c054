// Package sessionclock derives exam window state and per-student session
// status from stored timestamps and the current instant.
//
// Nothing here is persisted or ticks in the background: every answer is
// recomputed from scratch, so results survive restarts and any number of
// replicas agree as long as their clocks do.
package sessionclock

import "time"

// WindowState is the exam-wide phase computed from its own schedule.
type WindowState string

const (
	WindowScheduled  WindowState = "scheduled"
	WindowInProgress WindowState = "in_progress"
	WindowFinished   WindowState = "finished"
)

// Status is the synthesized per-student session status.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusTimeUp     Status = "time_up"
	StatusCompleted  Status = "completed"
	StatusFinished   Status = "finished"
)

// Schedule is the part of an exam the clock needs.
type Schedule struct {
	ScheduledAt     time.Time
	DurationMinutes int
}

// Duration returns the allotted time for the exam and for each session.
func (s Schedule) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// End returns ScheduledAt + duration.
func (s Schedule) End() time.Time {
	return s.ScheduledAt.Add(s.Duration())
}

// Window returns the exam's window state at now. The window is the half-open
// interval [ScheduledAt, End).
func (s Schedule) Window(now time.Time) WindowState {
	switch {
	case now.Before(s.ScheduledAt):
		return WindowScheduled
	case now.Before(s.End()):
		return WindowInProgress
	default:
		return WindowFinished
	}
}

// Session is the derived status of one student's attempt.
// Remaining is whole seconds left on the student's own timer. It is nil
// when no timer applies: the student never started, or the attempt is graded.
type Session struct {
	Status    Status
	Remaining *int64
}

// Session evaluates one student's status given the already computed window
// state. Rules, first match wins:
//
//  1. graded                      -> completed
//  2. started, time left          -> in_progress, floor(ms left / 1000)
//  3. started, no time left       -> time_up, 0
//  4. not started, window closed  -> finished
//  5. otherwise                   -> not_started
func (s Schedule) Session(window WindowState, startedAt *time.Time, graded bool, now time.Time) Session {
	if graded {
		return Session{Status: StatusCompleted}
	}

	if startedAt != nil {
		remainingMs := s.Duration().Milliseconds() - now.Sub(*startedAt).Milliseconds()
		if remainingMs <= 0 {
			return Session{Status: StatusTimeUp, Remaining: seconds(0)}
		}
		return Session{Status: StatusInProgress, Remaining: seconds(remainingMs / 1000)}
	}

	if window == WindowFinished {
		return Session{Status: StatusFinished}
	}
	return Session{Status: StatusNotStarted}
}

// Evaluate computes the window at now and then the student's session.
func Evaluate(s Schedule, startedAt *time.Time, graded bool, now time.Time) Session {
	return s.Session(s.Window(now), startedAt, graded, now)
}

func seconds(v int64) *int64 {
	return &v
}
