package models

import "time"

// TimerType tags which timer is active during a workout.
type TimerType string

const (
	TimerRest      TimerType = "rest"
	TimerStopwatch TimerType = "stopwatch"
)

// TimerState is the persisted view of the workout timer. Duration is the
// rest countdown length; Seconds is the value shown when last saved.
type TimerState struct {
	Type      TimerType `json:"type"`
	StartTime time.Time `json:"startTime"`
	Duration  int       `json:"duration"`
	Seconds   int       `json:"seconds"`
	IsRunning bool      `json:"isRunning"`
}

// Resume computes the timer value at now. Rest timers count down from
// Duration and stop at zero; stopwatches count up. Paused timers keep Seconds.
func (t TimerState) Resume(now time.Time) (seconds int, running bool) {
	if !t.IsRunning {
		return t.Seconds, false
	}
	elapsed := int(now.Sub(t.StartTime) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	switch t.Type {
	case TimerRest:
		remaining := t.Duration - elapsed
		if remaining <= 0 {
			return 0, false
		}
		return remaining, true
	case TimerStopwatch:
		return elapsed, true
	}
	return t.Seconds, false
}

// ActiveWorkoutState is the singleton record used to resume a workout.
type ActiveWorkoutState struct {
	SessionID            string      `json:"sessionId"`
	CurrentExerciseIndex int         `json:"currentExerciseIndex"`
	CurrentSetIndex      int         `json:"currentSetIndex"`
	StartedAt            time.Time   `json:"startedAt"`
	TimerState           *TimerState `json:"timerState,omitempty"`
}
