package utils

import (
	"errors"
	"strings"
	"time"
)

// ErrBadDate is returned by ParseDate for values in none of the accepted
// layouts.
var ErrBadDate = errors.New("malformed date")

// ProcDateLayout is the date format expected by the staging procedures.
const ProcDateLayout = "02/01/2006"

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	ProcDateLayout,
}

// ParseDate parses a calendar date sent by the client.  Only the date part
// is kept.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, ErrBadDate
}

// ProcDate formats t as DD/MM/YYYY.
func ProcDate(t time.Time) string { return t.Format(ProcDateLayout) }
