// Package estimate holds pure functions deriving durations and completion
// figures from session exercises and their progress records.
package estimate

import (
	"math"

	"github.com/claude/fittracker/internal/models"
)

// Per-set time heuristics, in minutes unless noted.
const (
	setupSeconds        = 30
	defaultTimedSeconds = 60
	defaultReps         = 10
	stepsSetMinutes     = 3.0
	highRepSetMinutes   = 3.0
	mediumRepSetMinutes = 2.5
	lowRepSetMinutes    = 2.0
	highRepThreshold    = 15
	mediumRepThreshold  = 8
)

// EstimateSessionDuration returns the expected session length in whole
// minutes: every set plus the rest between sets of the same exercise.
func EstimateSessionDuration(exercises []models.SessionExercise) int {
	total := 0.0
	for _, ex := range exercises {
		if ex.Sets < 1 {
			continue
		}
		rest := float64(ex.Rest()) / 60
		total += float64(ex.Sets)*SetMinutes(ex) + float64(ex.Sets-1)*rest
	}
	return int(math.Round(total))
}

// SetMinutes is the time heuristic for one set of ex.
func SetMinutes(ex models.SessionExercise) float64 {
	switch ex.Unit {
	case models.UnitSeconds:
		return (averageTime(ex) + setupSeconds) / 60
	case models.UnitSteps:
		return stepsSetMinutes
	}
	avg := averageReps(ex)
	switch {
	case avg > highRepThreshold:
		return highRepSetMinutes
	case avg > mediumRepThreshold:
		return mediumRepSetMinutes
	}
	return lowRepSetMinutes
}

func averageTime(ex models.SessionExercise) float64 {
	return average(ex.TimeSecondsMin, ex.TimeSecondsMax, defaultTimedSeconds)
}

func averageReps(ex models.SessionExercise) float64 {
	return average(ex.RepsMin, ex.RepsMax, defaultReps)
}

// average of lo and hi when both are set, else lo, else def.
func average(lo, hi *int, def int) float64 {
	switch {
	case lo != nil && hi != nil:
		return float64(*lo+*hi) / 2
	case lo != nil:
		return float64(*lo)
	}
	return float64(def)
}

// SessionProgress summarizes completion across a session's exercises.
type SessionProgress struct {
	CompletedExercises int `json:"completedExercises"`
	TotalExercises     int `json:"totalExercises"`
	CompletedSets      int `json:"completedSets"`
	TotalSets          int `json:"totalSets"`
	Percentage         int `json:"percentage"`
}

// CalculateSessionProgress matches progress records to exercises by id.
// A session with no sets reports 0 percent.
func CalculateSessionProgress(exercises []models.SessionExercise, progress []models.WorkoutProgress) SessionProgress {
	sp := SessionProgress{TotalExercises: len(exercises)}
	for _, ex := range exercises {
		sp.TotalSets += ex.Sets
		done := CompletedSets(models.FindProgress(progress, ex.ID))
		sp.CompletedSets += done
		if done >= ex.Sets {
			sp.CompletedExercises++
		}
	}
	if sp.TotalSets > 0 {
		sp.Percentage = int(math.Round(float64(sp.CompletedSets) / float64(sp.TotalSets) * 100))
	}
	return sp
}

// InstanceProgress is CalculateSessionProgress over an instance's snapshot.
func InstanceProgress(inst models.SessionInstance, progress []models.WorkoutProgress) SessionProgress {
	return CalculateSessionProgress(inst.Exercises(), progress)
}

// IsInstanceCompleted reports whether every snapshot exercise has all its sets done.
func IsInstanceCompleted(inst models.SessionInstance, progress []models.WorkoutProgress) bool {
	sp := InstanceProgress(inst, progress)
	return sp.CompletedExercises >= sp.TotalExercises
}

// InstanceDuration returns the snapshot estimate, recomputing it when absent.
func InstanceDuration(inst models.SessionInstance) int {
	if d := inst.TemplateSnapshot.EstimatedDurationMinutes; d != nil && *d > 0 {
		return *d
	}
	return EstimateSessionDuration(inst.Exercises())
}

// CompletedSets counts completed sets; nil progress counts as zero.
func CompletedSets(p *models.WorkoutProgress) int {
	if p == nil {
		return 0
	}
	return p.CompletedSets()
}

// IsExerciseCompleted reports whether p covers every prescribed set of ex.
func IsExerciseCompleted(ex models.SessionExercise, p *models.WorkoutProgress) bool {
	return p != nil && CompletedSets(p) >= ex.Sets
}

// NextIncompleteSet returns the first 1-based set number not yet completed,
// or the last set when all are done.
func NextIncompleteSet(ex models.SessionExercise, p *models.WorkoutProgress) int {
	if p == nil {
		return 1
	}
	done := make(map[int]bool, len(p.Sets))
	for _, s := range p.Sets {
		if s.Completed {
			done[s.SetNumber] = true
		}
	}
	for n := 1; n <= ex.Sets; n++ {
		if !done[n] {
			return n
		}
	}
	return ex.Sets
}

// SetStatus is the display state of a single set.
type SetStatus string

const (
	SetNotStarted SetStatus = "not_started"
	SetInProgress SetStatus = "in_progress"
	SetCompleted  SetStatus = "completed"
)

// StatusOfSet reports whether a set is untouched, has values entered, or is done.
func StatusOfSet(p *models.WorkoutProgress, setNumber int) SetStatus {
	if p == nil {
		return SetNotStarted
	}
	for _, s := range p.Sets {
		if s.SetNumber != setNumber {
			continue
		}
		if s.Completed {
			return SetCompleted
		}
		if s.Reps != nil || s.Weight != nil || s.TimeSeconds != nil || s.Steps != nil {
			return SetInProgress
		}
		return SetNotStarted
	}
	return SetNotStarted
}

// AllSetStatuses lists StatusOfSet for sets 1..ex.Sets.
func AllSetStatuses(ex models.SessionExercise, p *models.WorkoutProgress) []SetStatus {
	out := make([]SetStatus, ex.Sets)
	for i := range out {
		out[i] = StatusOfSet(p, i+1)
	}
	return out
}

// CompletionPercentage is the share of ex's sets completed in p.
func CompletionPercentage(ex models.SessionExercise, p *models.WorkoutProgress) int {
	if p == nil || ex.Sets < 1 {
		return 0
	}
	return int(math.Round(float64(CompletedSets(p)) / float64(ex.Sets) * 100))
}
