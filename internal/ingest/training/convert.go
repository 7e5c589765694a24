package training

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/claude/fittracker/internal/estimate"
	"github.com/claude/fittracker/internal/models"
	"github.com/google/uuid"
)

var (
	// weightRe matches the leading decimal of: 80, 32.5kg, ~20 kg
	weightRe = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

	// setsRe matches the leading integer of: 4, 4 sets, 3x, -1
	setsRe = regexp.MustCompile(`^\s*([+-]?\d+)`)

	nonWordRe = regexp.MustCompile(`[^\w]`)
)

// ErrInvalidSets is returned when the Sets cell is not an integer >= 1.
var ErrInvalidSets = errors.New("invalid sets value")

// MalformedPrescriptionError reports a Reps/Time cell the parser could not classify.
type MalformedPrescriptionError struct {
	Raw string
}

func (e *MalformedPrescriptionError) Error() string {
	return fmt.Sprintf("unable to parse reps/time %q", e.Raw)
}

// Token is the raw cell as shown in the import report.
func (e *MalformedPrescriptionError) Token() string {
	if strings.TrimSpace(e.Raw) == "" {
		return "empty"
	}
	return e.Raw
}

// ExerciseError ties a conversion failure to the exercise name of its row.
type ExerciseError struct {
	Exercise string
	Err      error
}

func (e *ExerciseError) Error() string {
	return fmt.Sprintf("Exercise %q: %v", e.Exercise, e.Err)
}

func (e *ExerciseError) Unwrap() error { return e.Err }

// Converter turns grouped CSV rows into templates.
type Converter struct {
	now   func() time.Time
	newID func() string
}

// NewConverter creates a Converter stamping templates with now.
func NewConverter(now func() time.Time) *Converter {
	return &Converter{now: now, newID: uuid.NewString}
}

// ConvertDayToSessionTemplate builds one template from a day's rows in row
// order. Rows that fail are returned as errors and left out; when no row
// converts the template is nil.
func (c *Converter) ConvertDayToSessionTemplate(dayName string, rows []Row) (*models.SessionTemplate, []error) {
	var failures []error
	exercises := make([]models.SessionExercise, 0, len(rows))
	for _, row := range rows {
		ex, err := c.ConvertRowToSessionExercise(row)
		if err != nil {
			failures = append(failures, &ExerciseError{Exercise: row[ColExercise], Err: err})
			continue
		}
		exercises = append(exercises, ex)
	}
	if len(exercises) == 0 {
		return nil, failures
	}

	tags := ExtractTags(dayName)
	now := c.now()
	return &models.SessionTemplate{
		ID:                       c.newID(),
		Name:                     dayName,
		Description:              fmt.Sprintf("%d exercises targeting %s", len(exercises), strings.ToLower(strings.Join(tags, ", "))),
		Exercises:                exercises,
		EstimatedDurationMinutes: models.Ptr(estimate.EstimateSessionDuration(exercises)),
		Tags:                     tags,
		CreatedAt:                now,
		UpdatedAt:                now,
	}, failures
}

// ConvertRowToSessionExercise converts a single row.
func (c *Converter) ConvertRowToSessionExercise(row Row) (models.SessionExercise, error) {
	name := row[ColExercise]
	if name == "" {
		return models.SessionExercise{}, errors.New("exercise name is required")
	}

	sets, ok := ParseSets(row[ColSets])
	if !ok || sets < 1 {
		return models.SessionExercise{}, fmt.Errorf("%w: %q", ErrInvalidSets, row[ColSets])
	}

	rx := ParsePrescription(row[ColRepsTime])
	if rx.Malformed() {
		return models.SessionExercise{}, &MalformedPrescriptionError{Raw: row[ColRepsTime]}
	}

	group := row[ColMuscleGroup]
	if group == "" {
		return models.SessionExercise{}, errors.New("muscle group is required")
	}
	main := row[ColMainMuscle]
	if main == "" {
		return models.SessionExercise{}, errors.New("main muscle is required")
	}

	ex := models.SessionExercise{
		ID:           c.newID(),
		Name:         name,
		Sets:         sets,
		Weight:       ParseWeight(row[ColWeight]),
		Notes:        row[ColNotes],
		FormGuidance: row[ColFormGuidance],
		MuscleGroup:  group,
		MainMuscle:   main,
		RestSeconds:  models.Ptr(RestSeconds(group, sets)),
	}
	rx.ApplyTo(&ex)

	if err := ex.Validate(); err != nil {
		return models.SessionExercise{}, err
	}
	return ex, nil
}

// ParseWeight extracts the leading decimal from a weight cell. Empty or
// unparseable cells mean no weight.
func ParseWeight(raw string) *float64 {
	m := weightRe.FindString(raw)
	if m == "" {
		return nil
	}
	w, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &w
}

// ParseSets reads the leading integer of a Sets cell, so "4 sets" and "3x"
// are accepted. ok is false when the cell does not start with a number.
func ParseSets(raw string) (int, bool) {
	m := setsRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// RestSeconds is the rest heuristic by muscle group. Compound groups rest
// 120s, or 180s above four sets; isolation groups 90s; conditioning 60s.
func RestSeconds(muscleGroup string, sets int) int {
	group := strings.ToLower(muscleGroup)
	switch {
	case containsAny(group, "chest", "back", "legs"):
		if sets > 4 {
			return 180
		}
		return 120
	case containsAny(group, "shoulders", "triceps", "biceps"):
		return 90
	case containsAny(group, "conditioning", "cardio", "core"):
		return 60
	}
	return 90
}

// dayTags maps day-name keywords to tags, in output order.
var dayTags = []struct {
	keyword, tag string
}{
	{"push", "Push"},
	{"pull", "Pull"},
	{"legs", "Legs"},
	{"shoulders", "Shoulders"},
	{"abs", "Abs"},
	{"cardio", "Cardio"},
	{"arms", "Arms"},
}

// ExtractTags derives template tags from a day label.
func ExtractTags(dayName string) []string {
	name := strings.ToLower(dayName)
	var tags []string
	for _, dt := range dayTags {
		if strings.Contains(name, dt.keyword) {
			tags = append(tags, dt.tag)
		}
	}
	if strings.Contains(name, "cardio") {
		tags = append(tags, "Conditioning")
	}
	if containsAny(name, "strength", "power") {
		tags = append(tags, "Strength")
	}
	if len(tags) == 0 {
		return []string{"General"}
	}
	return tags
}

// DayKey turns a day label into a stable key: "Day 1 - Push" -> "day_1__push".
func DayKey(label string) string {
	return slug(label)
}

// MuscleSlug turns a muscle group into a stable key.
func MuscleSlug(group string) string {
	return slug(group)
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = spaceRe.ReplaceAllString(s, "_")
	return nonWordRe.ReplaceAllString(s, "")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
