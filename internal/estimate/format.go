package estimate

import (
	"fmt"
	"strconv"

	"github.com/claude/fittracker/internal/models"
)

// FormatPrescription renders an exercise target, e.g. "8-12 reps", "30s", "10 steps".
func FormatPrescription(ex models.SessionExercise) string {
	switch ex.Unit {
	case models.UnitReps:
		return formatRange(ex.RepsMin, ex.RepsMax, " reps", "Reps")
	case models.UnitSeconds:
		return formatRange(ex.TimeSecondsMin, ex.TimeSecondsMax, "s", "Time")
	case models.UnitSteps:
		if ex.StepsCount != nil {
			return fmt.Sprintf("%d steps", *ex.StepsCount)
		}
		return "Steps"
	}
	return ""
}

func formatRange(lo, hi *int, suffix, fallback string) string {
	switch {
	case lo != nil && hi != nil && *lo != *hi:
		return fmt.Sprintf("%d-%d%s", *lo, *hi, suffix)
	case lo != nil:
		return fmt.Sprintf("%d%s", *lo, suffix)
	}
	return fallback
}

// FormatWeight renders kilograms with at most one decimal; nil renders empty.
func FormatWeight(w *float64) string {
	if w == nil {
		return ""
	}
	if *w == float64(int64(*w)) {
		return strconv.FormatInt(int64(*w), 10) + "kg"
	}
	return strconv.FormatFloat(*w, 'f', 1, 64) + "kg"
}

// FormatRestTime renders seconds as "45s", "2m" or "1m 30s".
func FormatRestTime(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	m, s := seconds/60, seconds%60
	if s == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}

// FormatDuration renders minutes as "45m", "1h" or "1h 5m".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
