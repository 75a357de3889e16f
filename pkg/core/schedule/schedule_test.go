package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

func TestSaturdays(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected []string
	}{
		{
			name:     "range starting and ending on Saturdays",
			start:    "2024-06-01",
			end:      "2024-06-29",
			expected: []string{"2024-06-01", "2024-06-08", "2024-06-15", "2024-06-22", "2024-06-29"},
		},
		{
			name:     "start midweek advances to next Saturday",
			start:    "2024-06-04",
			end:      "2024-06-20",
			expected: []string{"2024-06-08", "2024-06-15"},
		},
		{
			name:     "single day that is a Saturday",
			start:    "2024-06-08",
			end:      "2024-06-08",
			expected: []string{"2024-06-08"},
		},
		{
			name:     "no Saturday inside range",
			start:    "2024-06-02",
			end:      "2024-06-07",
			expected: nil,
		},
		{
			name:     "end before start",
			start:    "2024-06-29",
			end:      "2024-06-01",
			expected: nil,
		},
		{
			name:     "datetime inputs use their calendar day",
			start:    "2024-06-01T18:30:00",
			end:      "2024-06-08T00:00:00Z",
			expected: []string{"2024-06-01", "2024-06-08"},
		},
		{
			name:     "crosses a year boundary",
			start:    "2024-12-25",
			end:      "2025-01-11",
			expected: []string{"2024-12-28", "2025-01-04", "2025-01-11"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates, err := Saturdays(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, dates)
		})
	}
}

func TestSaturdays_AllGeneratedDatesAreSaturdays(t *testing.T) {
	dates, err := Saturdays("2024-01-01", "2024-12-31")
	require.NoError(t, err)
	require.Len(t, dates, 52)

	for _, d := range dates {
		parsed, err := time.Parse(db.DateLayout, d)
		require.NoError(t, err)
		assert.Equal(t, time.Saturday, parsed.Weekday(), d)
	}
}

func TestSaturdays_MalformedRange(t *testing.T) {
	_, err := Saturdays("not-a-date", "2024-06-29")
	assert.True(t, errors.Is(err, db.ErrMalformedDateRange))

	_, err = Saturdays("2024-06-01", "2024-13-40")
	assert.True(t, errors.Is(err, db.ErrMalformedDateRange))
	assert.Contains(t, err.Error(), "end")
}
