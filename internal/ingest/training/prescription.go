package training

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/claude/fittracker/internal/models"
)

var (
	// perSideRe matches: 12/side, 10 per leg, 30s each side
	perSideRe = regexp.MustCompile(`per\s*(?:side|leg)|/side|/leg|each\s*(?:side|leg)`)

	// rangeRe matches: 8-12, 8 – 12, 8—12, 8 to 12
	rangeRe = regexp.MustCompile(`(\d+)\s*(?:-|–|—|to)\s*(\d+)`)

	// minutesRe matches: 2 min, 2min, 3 minutes
	minutesRe = regexp.MustCompile(`(\d+)\s*min`)

	// stepsRe matches: 10 steps, 1 step
	stepsRe = regexp.MustCompile(`(\d+)\s*steps?`)

	// secondsRangeRe matches a canonical range followed by a seconds suffix: 30 to 45s
	secondsRangeRe = regexp.MustCompile(`(\d+) to (\d+)\s*(?:s|secs?|seconds?)\b`)

	// secondsRe matches: 30s, 30 sec, 45 seconds
	secondsRe = regexp.MustCompile(`(\d+)\s*(?:s|secs?|seconds?)\b`)

	// repsRangeRe matches a canonical range: 8 to 12
	repsRangeRe = regexp.MustCompile(`(\d+) to (\d+)`)

	// repsRe matches a bare count, optionally suffixed: 12, 12 reps
	repsRe = regexp.MustCompile(`^(\d+)\s*(?:reps?)?$`)

	spaceRe = regexp.MustCompile(`\s+`)
)

// ParsePrescription normalizes a free-text reps/time cell. It never fails:
// unrecognized input yields the default reps structure with no bounds,
// which callers detect with Prescription.Malformed.
func ParsePrescription(raw string) models.Prescription {
	text := strings.ToLower(strings.TrimSpace(raw))

	p := models.Prescription{Unit: models.UnitReps}
	if perSideRe.MatchString(text) {
		p.PerSide = true
		text = perSideRe.ReplaceAllString(text, " ")
	}
	text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	text = rangeRe.ReplaceAllString(text, "$1 to $2")

	if m := minutesRe.FindStringSubmatch(text); m != nil {
		sec := atoi(m[1]) * 60
		p.Unit = models.UnitSeconds
		p.TimeSecondsMin, p.TimeSecondsMax = models.Ptr(sec), models.Ptr(sec)
		return p
	}

	if m := stepsRe.FindStringSubmatch(text); m != nil {
		p.Unit = models.UnitSteps
		p.StepsCount = models.Ptr(atoi(m[1]))
		return p
	}

	if m := secondsRangeRe.FindStringSubmatch(text); m != nil {
		lo, hi := ordered(atoi(m[1]), atoi(m[2]))
		p.Unit = models.UnitSeconds
		p.TimeSecondsMin, p.TimeSecondsMax = models.Ptr(lo), models.Ptr(hi)
		return p
	}
	if m := secondsRe.FindStringSubmatch(text); m != nil {
		sec := atoi(m[1])
		p.Unit = models.UnitSeconds
		p.TimeSecondsMin, p.TimeSecondsMax = models.Ptr(sec), models.Ptr(sec)
		return p
	}

	if m := repsRangeRe.FindStringSubmatch(text); m != nil {
		lo, hi := ordered(atoi(m[1]), atoi(m[2]))
		p.RepsMin, p.RepsMax = models.Ptr(lo), models.Ptr(hi)
		return p
	}
	if m := repsRe.FindStringSubmatch(text); m != nil {
		n := atoi(m[1])
		p.RepsMin, p.RepsMax = models.Ptr(n), models.Ptr(n)
		return p
	}

	return p
}

// ordered returns a and b with the smaller first.
func ordered(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

// atoi converts a digits-only regex capture.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
