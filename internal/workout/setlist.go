package workout

import (
	"errors"
	"time"

	"github.com/claude/fittracker/internal/models"
)

// DefaultMaxSets caps how many sets an exercise can grow to during a workout.
const DefaultMaxSets = 12

var (
	ErrMaxSets = errors.New("maximum number of sets reached")
	ErrLastSet = errors.New("cannot remove the last set")
)

// SetInput carries the values entered for one set. Only the field matching
// the exercise unit is used.
type SetInput struct {
	Reps        *int     `json:"reps,omitempty"`
	TimeSeconds *int     `json:"timeSeconds,omitempty"`
	Steps       *int     `json:"steps,omitempty"`
	Weight      *float64 `json:"weight,omitempty"`
}

func (in SetInput) value(unit models.Unit) *int {
	switch unit {
	case models.UnitSeconds:
		return in.TimeSeconds
	case models.UnitSteps:
		return in.Steps
	default:
		return in.Reps
	}
}

// DefaultInput returns the values to prefill for setNumber: what was
// recorded for that set, else the exercise's prescription lower bound and
// weight.
func DefaultInput(ex models.SessionExercise, p *models.WorkoutProgress, setNumber int) SetInput {
	var in SetInput
	if p != nil {
		for _, s := range p.Sets {
			if s.SetNumber == setNumber {
				in = SetInput{Reps: s.Reps, TimeSeconds: s.TimeSeconds, Steps: s.Steps, Weight: s.Weight}
				break
			}
		}
	}
	switch ex.Unit {
	case models.UnitSeconds:
		if in.TimeSeconds == nil {
			in.TimeSeconds = ex.TimeSecondsMin
		}
	case models.UnitSteps:
		if in.Steps == nil {
			in.Steps = ex.StepsCount
		}
	default:
		if in.Reps == nil {
			in.Reps = ex.RepsMin
		}
	}
	if in.Weight == nil {
		in.Weight = ex.Weight
	}
	return in
}

// UpdateSetValues writes the unit's value and the weight into setNumber,
// backfilling earlier sets. A completed set whose values change is reset
// to not completed.
func UpdateSetValues(p models.WorkoutProgress, unit models.Unit, setNumber int, in SetInput) models.WorkoutProgress {
	p = p.Clone()
	set := p.Set(setNumber)

	newValue := in.value(unit)
	newWeight := positive(in.Weight)
	changed := !equalPtr(set.Value(unit), newValue) || !equalPtr(set.Weight, newWeight)

	set.SetValue(unit, clone(newValue))
	set.Weight = newWeight
	if set.Completed && changed {
		set.Completed = false
		set.CompletedAt = nil
	}
	return p
}

// ToggleSetCompleted flips completion of setNumber, stamping or clearing CompletedAt.
func ToggleSetCompleted(p models.WorkoutProgress, setNumber int, now time.Time) models.WorkoutProgress {
	p = p.Clone()
	set := p.Set(setNumber)
	set.Completed = !set.Completed
	if set.Completed {
		set.CompletedAt = &now
	} else {
		set.CompletedAt = nil
	}
	return p
}

// VisibleSets is the number of set rows shown for an exercise: the
// prescribed count, or more when sets were added.
func VisibleSets(ex models.SessionExercise, p models.WorkoutProgress) int {
	return max(ex.Sets, len(p.Sets))
}

// AddSet appends an empty set after the last visible one.
func AddSet(ex models.SessionExercise, p models.WorkoutProgress, maxSets int) (models.WorkoutProgress, error) {
	if maxSets <= 0 {
		maxSets = DefaultMaxSets
	}
	n := VisibleSets(ex, p)
	if n >= maxSets {
		return p, ErrMaxSets
	}
	p = p.Clone()
	p.Set(n + 1)
	return p, nil
}

// RemoveSet deletes setNumber and renumbers the remaining sets from 1.
func RemoveSet(ex models.SessionExercise, p models.WorkoutProgress, setNumber int) (models.WorkoutProgress, error) {
	if VisibleSets(ex, p) <= 1 {
		return p, ErrLastSet
	}
	p = p.Clone()
	kept := make([]models.SetProgress, 0, len(p.Sets))
	for _, s := range p.Sets {
		if s.SetNumber != setNumber {
			s.SetNumber = len(kept) + 1
			kept = append(kept, s)
		}
	}
	p.Sets = kept
	return p, nil
}

func positive(w *float64) *float64 {
	if w == nil || *w <= 0 {
		return nil
	}
	v := *w
	return &v
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
