package models

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the calendar date format used for instance dates.
const DateLayout = "2006-01-02"

var (
	dateRe      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	startTimeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// FormatDate renders t as a local calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string in the local time zone.
func ParseDate(s string) (time.Time, error) {
	if !dateRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("date %q is not YYYY-MM-DD", s)
	}
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// AddDays shifts a calendar date by n days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// WeekDates returns the seven dates of the Sunday-started week containing t.
func WeekDates(t time.Time) []string {
	start := t.AddDate(0, 0, -int(t.Weekday()))
	week := make([]string, 7)
	for i := range week {
		week[i] = FormatDate(start.AddDate(0, 0, i))
	}
	return week
}

// ValidStartTime reports whether s is an HH:MM clock time.
func ValidStartTime(s string) bool {
	if !startTimeRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}
