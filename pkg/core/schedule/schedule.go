package schedule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

// acceptedLayouts are tried in order when parsing a service start or end date
var acceptedLayouts = []string{
	db.DateLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDate parses an ISO 8601 date (optionally with a time component) and
// returns it as midnight UTC of that calendar day
func ParseDate(value string) (time.Time, error) {
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
}

// Saturdays returns every Saturday from the first Saturday on or after start
// up to and including end, formatted as YYYY-MM-DD.
// Returns an error wrapping db.ErrMalformedDateRange if either bound cannot be parsed.
// An end before start is not an error and yields no dates.
func Saturdays(start, end string) ([]string, error) {
	startDate, err := ParseDate(start)
	if err != nil {
		return nil, fmt.Errorf("%w: start: %v", db.ErrMalformedDateRange, err)
	}
	endDate, err := ParseDate(end)
	if err != nil {
		return nil, fmt.Errorf("%w: end: %v", db.ErrMalformedDateRange, err)
	}

	if endDate.Before(startDate) {
		return nil, nil
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rrule.SA},
		Dtstart:   startDate,
		Until:     endDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build weekly rule: %w", err)
	}

	occurrences := rule.All()
	dates := make([]string, len(occurrences))
	for i, occurrence := range occurrences {
		dates[i] = occurrence.Format(db.DateLayout)
	}
	return dates, nil
}
