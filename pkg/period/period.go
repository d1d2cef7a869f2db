package period

import (
	"fmt"
	"time"
)

// Type scopes aggregation and payment uniqueness.
type Type string

const (
	Daily   Type = "daily"
	Monthly Type = "monthly"
)

func (t Type) Valid() bool {
	return t == Daily || t == Monthly
}

// Normalize truncates a date to the canonical period date string.
// Daily periods keep the day, monthly periods snap to the first of the month.
func Normalize(t Type, date time.Time) string {
	date = date.UTC()
	switch t {
	case Monthly:
		return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	default:
		return date.Format("2006-01-02")
	}
}

// Canonical parses a period date string and returns the canonical form
// for its period, so every day inside a monthly period addresses the
// same period key.
func Canonical(t Type, periodDate string) (string, error) {
	date, err := time.ParseInLocation("2006-01-02", periodDate, time.UTC)
	if err != nil {
		return "", fmt.Errorf("invalid period date %q: %w", periodDate, err)
	}
	return Normalize(t, date), nil
}

// Window returns the [start, end) range covered by a period date.
func Window(t Type, periodDate string) (time.Time, time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", periodDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period date %q: %w", periodDate, err)
	}

	switch t {
	case Monthly:
		start := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0), nil
	case Daily:
		start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 0, 1), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period type %q", t)
	}
}
