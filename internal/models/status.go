package models

import (
	"errors"
	"fmt"
)

// Status is the life-cycle state of a session instance.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusSkipped:
		return true
	}
	return false
}

// transitions lists the forward moves. Rescheduling back to scheduled is
// handled separately because it is a user action, not part of execution.
var transitions = map[Status][]Status{
	StatusScheduled:  {StatusInProgress, StatusSkipped},
	StatusInProgress: {StatusCompleted, StatusSkipped},
}

// CanTransition reports whether an instance may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrInvalidTransition wrapped with both states when
// the move is not allowed.
func (s Status) CheckTransition(next Status) error {
	if s.CanTransition(next) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
}

// CanReschedule reports whether an instance in status s may be moved to
// another date. Completed sessions are history and stay where they are.
func (s Status) CanReschedule() bool {
	return s != StatusCompleted
}
