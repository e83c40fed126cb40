package weather

import (
	"regexp"
	"time"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate parses a strict YYYY-MM-DD string into a UTC calendar day.
// Strings like "2024-08-32" or "2024-8-9" are rejected.
func ParseDate(s string) (time.Time, error) {
	if !dateRe.MatchString(s) {
		return time.Time{}, &InvalidInputError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &InvalidInputError{Field: "date", Reason: "not a calendar date"}
	}
	return t, nil
}
