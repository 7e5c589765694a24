package training

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/claude/fittracker/internal/models"
)

// Column names of the training CSV header. Order in the file is irrelevant.
const (
	ColDay          = "Day"
	ColExercise     = "Exercise"
	ColSets         = "Sets"
	ColRepsTime     = "Reps/Time"
	ColWeight       = "Weight"
	ColNotes        = "Notes"
	ColFormGuidance = "Form Guidance"
	ColMuscleGroup  = "Muscle Group"
	ColMainMuscle   = "Main Muscle"
)

// RequiredColumns lists every header a training CSV must carry.
var RequiredColumns = []string{
	ColDay, ColExercise, ColSets, ColRepsTime, ColWeight,
	ColNotes, ColFormGuidance, ColMuscleGroup, ColMainMuscle,
}

var lineSplitRe = regexp.MustCompile(`\r?\n`)

// Row is one data line keyed by header name, values trimmed.
type Row map[string]string

// Stats summarizes a parse for the import report.
type Stats struct {
	TotalRows       int                 `json:"total_rows"`
	ValidRows       int                 `json:"valid_rows"`
	InvalidRows     int                 `json:"invalid_rows"`
	UnitCounts      map[models.Unit]int `json:"unit_counts"`
	MalformedTokens []string            `json:"malformed_tokens"`
	ParsingTime     time.Duration       `json:"parsing_time_ns"`
}

// Report is the result of ParseTrainingCSV. Errors never abort other days.
type Report struct {
	Sessions []models.SessionTemplate `json:"sessions"`
	Errors   []string                 `json:"errors"`
	Stats    Stats                    `json:"stats"`
}

// ParseCSVLine splits one CSV line on commas. A double quote toggles
// quoted mode, in which commas are literal; quotes are not emitted and
// doubled quotes get no special treatment.
func ParseCSVLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(fields, current.String())
}

// ParseTrainingCSV converts training CSV content into one session template
// per distinct Day value, in first-seen order. A missing header column is
// fatal; row and exercise problems are collected in Report.Errors.
func ParseTrainingCSV(content string) *Report {
	return NewConverter(time.Now).Parse(content)
}

// Parse is ParseTrainingCSV using the converter's clock and ids.
func (c *Converter) Parse(content string) *Report {
	start := time.Now()
	rep := &Report{
		Sessions: []models.SessionTemplate{},
		Errors:   []string{},
		Stats: Stats{
			UnitCounts:      map[models.Unit]int{},
			MalformedTokens: []string{},
		},
	}
	defer func() { rep.Stats.ParsingTime = time.Since(start) }()

	lines := lineSplitRe.Split(strings.TrimSpace(content), -1)
	if len(lines) < 2 {
		rep.Errors = append(rep.Errors, "CSV file must have at least a header and one data row")
		return rep
	}

	header := ParseCSVLine(lines[0])
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	for _, col := range RequiredColumns {
		if !present[col] {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Missing required column: %s", col))
		}
	}
	if len(rep.Errors) > 0 {
		return rep
	}

	var order []string
	groups := map[string][]Row{}
	for i, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rep.Stats.TotalRows++
		lineNo := i + 2

		values := ParseCSVLine(line)
		if len(values) != len(header) {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Row %d: expected %d columns, got %d", lineNo, len(header), len(values)))
			rep.Stats.InvalidRows++
			continue
		}
		row := make(Row, len(header))
		for j, col := range header {
			row[col] = strings.TrimSpace(values[j])
		}

		day := row[ColDay]
		if day == "" {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Row %d: exercise %q has no Day specified", lineNo, row[ColExercise]))
			rep.Stats.InvalidRows++
			continue
		}
		if _, ok := groups[day]; !ok {
			order = append(order, day)
		}
		groups[day] = append(groups[day], row)
	}

	for _, day := range order {
		tpl, failures := c.ConvertDayToSessionTemplate(day, groups[day])
		for _, f := range failures {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Error processing %s: %v", day, f))
			rep.Stats.InvalidRows++
			var mp *MalformedPrescriptionError
			if errors.As(f, &mp) {
				rep.Stats.MalformedTokens = append(rep.Stats.MalformedTokens, mp.Token())
			}
		}
		if tpl == nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Error processing %s: no valid exercises", day))
			continue
		}
		for _, ex := range tpl.Exercises {
			rep.Stats.UnitCounts[ex.Unit]++
		}
		rep.Stats.ValidRows += len(tpl.Exercises)
		rep.Sessions = append(rep.Sessions, *tpl)
	}

	return rep
}
