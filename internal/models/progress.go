package models

import (
	"sort"
	"time"
)

// SetProgress is one performed set. Only the value matching the
// exercise's unit is populated.
type SetProgress struct {
	SetNumber     int        `json:"setNumber"`
	Reps          *int       `json:"reps,omitempty"`
	Weight        *float64   `json:"weight,omitempty"`
	TimeSeconds   *int       `json:"timeSeconds,omitempty"`
	Steps         *int       `json:"steps,omitempty"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	RestTimerUsed *bool      `json:"restTimerUsed,omitempty"`
}

// Value returns the recorded value for unit, or nil.
func (s SetProgress) Value(unit Unit) *int {
	switch unit {
	case UnitSeconds:
		return s.TimeSeconds
	case UnitSteps:
		return s.Steps
	default:
		return s.Reps
	}
}

// SetValue stores v in the field matching unit.
func (s *SetProgress) SetValue(unit Unit, v *int) {
	switch unit {
	case UnitSeconds:
		s.TimeSeconds = v
	case UnitSteps:
		s.Steps = v
	default:
		s.Reps = v
	}
}

// WorkoutProgress records actual performance of one exercise within one
// session instance. At most one exists per (SessionID, ExerciseID).
type WorkoutProgress struct {
	SessionID   string        `json:"sessionId"`
	ExerciseID  string        `json:"exerciseId"`
	Sets        []SetProgress `json:"sets"`
	StartedAt   time.Time     `json:"startedAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	Notes       string        `json:"notes,omitempty"`
}

// NewWorkoutProgress returns an empty record for an exercise.
func NewWorkoutProgress(sessionID, exerciseID string, now time.Time) WorkoutProgress {
	return WorkoutProgress{
		SessionID:  sessionID,
		ExerciseID: exerciseID,
		Sets:       []SetProgress{},
		StartedAt:  now,
	}
}

// Set returns the set with the given 1-based number, backfilling empty
// placeholders for every missing number up to and including it.
func (p *WorkoutProgress) Set(setNumber int) *SetProgress {
	if setNumber < 1 {
		setNumber = 1
	}
	have := make(map[int]bool, len(p.Sets))
	for _, s := range p.Sets {
		have[s.SetNumber] = true
	}
	added := false
	for n := 1; n <= setNumber; n++ {
		if !have[n] {
			p.Sets = append(p.Sets, SetProgress{SetNumber: n})
			added = true
		}
	}
	if added {
		sort.Slice(p.Sets, func(i, j int) bool { return p.Sets[i].SetNumber < p.Sets[j].SetNumber })
	}
	for i := range p.Sets {
		if p.Sets[i].SetNumber == setNumber {
			return &p.Sets[i]
		}
	}
	return nil
}

// CompletedSets counts sets marked completed.
func (p WorkoutProgress) CompletedSets() int {
	n := 0
	for _, s := range p.Sets {
		if s.Completed {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of p.
func (p WorkoutProgress) Clone() WorkoutProgress {
	c := p
	c.Sets = make([]SetProgress, len(p.Sets))
	for i, s := range p.Sets {
		cs := s
		cs.Reps = clonePtr(s.Reps)
		cs.Weight = clonePtr(s.Weight)
		cs.TimeSeconds = clonePtr(s.TimeSeconds)
		cs.Steps = clonePtr(s.Steps)
		cs.CompletedAt = clonePtr(s.CompletedAt)
		cs.RestTimerUsed = clonePtr(s.RestTimerUsed)
		c.Sets[i] = cs
	}
	c.CompletedAt = clonePtr(p.CompletedAt)
	return c
}

// FindProgress returns the record for exerciseID within list, or nil.
func FindProgress(list []WorkoutProgress, exerciseID string) *WorkoutProgress {
	for i := range list {
		if list[i].ExerciseID == exerciseID {
			return &list[i]
		}
	}
	return nil
}

// ReplaceProgress upserts p into list keyed by exercise id.
func ReplaceProgress(list []WorkoutProgress, p WorkoutProgress) []WorkoutProgress {
	for i := range list {
		if list[i].ExerciseID == p.ExerciseID && list[i].SessionID == p.SessionID {
			list[i] = p
			return list
		}
	}
	return append(list, p)
}
