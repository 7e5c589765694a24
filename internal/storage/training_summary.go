package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/claude/fittracker/internal/models"
)

// SessionCounts holds instance counts by status within a period.
type SessionCounts struct {
	Scheduled  int `json:"scheduled"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Skipped    int `json:"skipped"`
}

// StrengthVolumeSummary holds aggregated performed work for a period.
type StrengthVolumeSummary struct {
	WorkingSets       int     `json:"working_sets"`
	TotalReps         int     `json:"total_reps"`
	TotalSeconds      int     `json:"total_seconds"`
	TotalSteps        int     `json:"total_steps"`
	TonnageKg         float64 `json:"tonnage_kg"`
	Sessions          int     `json:"sessions"`
	AvgSetsPerSession float64 `json:"avg_sets_per_session"`
}

// TrainingSummaryPeriod holds combined session + volume data for one time period.
type TrainingSummaryPeriod struct {
	Period   string                 `json:"period"`
	Sessions SessionCounts          `json:"sessions"`
	Strength *StrengthVolumeSummary `json:"strength,omitempty"`
}

// GetTrainingSummary returns per-period session counts and completed-set
// volume for instances dated start..end inclusive, newest period first.
func (s *Store) GetTrainingSummary(ctx context.Context, start, end, bucket string) ([]TrainingSummaryPeriod, error) {
	instances, err := s.SessionInstancesForDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying session summary: %w", err)
	}
	progress, err := s.LoadWorkoutProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying volume summary: %w", err)
	}
	bySession := map[string][]models.WorkoutProgress{}
	for _, p := range progress {
		bySession[p.SessionID] = append(bySession[p.SessionID], p)
	}

	periods := map[string]*TrainingSummaryPeriod{}
	for _, inst := range instances {
		day, err := models.ParseDate(inst.Date)
		if err != nil {
			continue
		}
		key := models.FormatDate(truncPeriod(day, bucket))
		period := periods[key]
		if period == nil {
			period = &TrainingSummaryPeriod{Period: key}
			periods[key] = period
		}

		switch inst.Status {
		case models.StatusScheduled:
			period.Sessions.Scheduled++
		case models.StatusInProgress:
			period.Sessions.InProgress++
		case models.StatusCompleted:
			period.Sessions.Completed++
		case models.StatusSkipped:
			period.Sessions.Skipped++
		}

		sets := addVolume(period, inst, bySession[inst.ID])
		if sets > 0 {
			period.Strength.Sessions++
		}
	}

	result := make([]TrainingSummaryPeriod, 0, len(periods))
	for _, p := range periods {
		if sv := p.Strength; sv != nil && sv.Sessions > 0 {
			sv.AvgSetsPerSession = float64(sv.WorkingSets) / float64(sv.Sessions)
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Period > result[j].Period })
	return result, nil
}

// addVolume folds the completed sets of one instance into period and
// returns how many were counted.
func addVolume(period *TrainingSummaryPeriod, inst models.SessionInstance, progress []models.WorkoutProgress) int {
	units := make(map[string]models.Unit, len(inst.Exercises()))
	for _, ex := range inst.Exercises() {
		units[ex.ID] = ex.Unit
	}

	counted := 0
	for _, p := range progress {
		unit, ok := units[p.ExerciseID]
		if !ok {
			continue
		}
		for _, set := range p.Sets {
			if !set.Completed {
				continue
			}
			if period.Strength == nil {
				period.Strength = &StrengthVolumeSummary{}
			}
			sv := period.Strength
			sv.WorkingSets++
			counted++
			v := set.Value(unit)
			if v == nil {
				continue
			}
			switch unit {
			case models.UnitSeconds:
				sv.TotalSeconds += *v
			case models.UnitSteps:
				sv.TotalSteps += *v
			default:
				sv.TotalReps += *v
				if set.Weight != nil {
					sv.TonnageKg += *set.Weight * float64(*v)
				}
			}
		}
	}
	return counted
}

// truncPeriod returns the first day of the bucket containing day. Weeks
// start on Monday.
func truncPeriod(day time.Time, bucket string) time.Time {
	switch truncInterval(bucket) {
	case "week":
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	default:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	}
}

// truncInterval converts bucket strings like "1 month" to the interval name
// ("month", "week").
func truncInterval(bucket string) string {
	switch bucket {
	case "week", "1 week":
		return "week"
	case "month", "1 month":
		return "month"
	default:
		return "month"
	}
}
