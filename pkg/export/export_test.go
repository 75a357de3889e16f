package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/tamilschool-volunteers/pkg/core/services"
	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

func TestVolunteersCSV(t *testing.T) {
	volunteers := []db.Volunteer{
		{
			ID:              7,
			Name:            "Arun, K",
			Email:           "arun@example.com",
			CommittedWeekly: true,
			CreatedAt:       "2024-05-01T10:00:00.000000+00:00",
			AssignedDates:   db.AssignedDates{2: {"2024-06-15"}, 1: {"2024-06-01", "2024-06-08"}},
		},
	}
	names := map[int64]string{1: "Cleaning", 2: "Kitchen"}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Volunteers(volunteers, names)))

	expected := "id,name,email,phone,committed_weekly,assigned_dates,created_at\n" +
		`7,"Arun, K",arun@example.com,,true,"Cleaning: 2024-06-01, 2024-06-08; Kitchen: 2024-06-15",2024-05-01T10:00:00.000000+00:00` + "\n"
	assert.Equal(t, expected, buf.String())
}

func TestAssignedDatesSummary(t *testing.T) {
	names := map[int64]string{1: "Cleaning"}

	tests := []struct {
		name     string
		mapping  db.AssignedDates
		expected string
	}{
		{"empty", nil, ""},
		{"unknown service uses id", db.AssignedDates{9: {"2024-06-01"}}, "9: 2024-06-01"},
		{"unspecified service", db.AssignedDates{db.UnspecifiedService: {"2024-06-01"}, 1: {"2024-06-08"}}, ": 2024-06-01; Cleaning: 2024-06-08"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AssignedDatesSummary(tt.mapping, names))
		})
	}
}

func TestRoster(t *testing.T) {
	table := Roster([]services.RosterEntry{
		{
			Volunteer:      db.Volunteer{Name: "Arun", Email: "arun@example.com"},
			Services:       []string{"Cleaning", "Kitchen"},
			Subservices:    []string{"Hall"},
			CompletedCount: 1,
		},
	})

	assert.Equal(t, []string{"name", "email", "services", "subservices", "no_of_completed_services"}, table.Header)
	assert.Equal(t, [][]string{{"Arun", "arun@example.com", "Cleaning, Kitchen", "Hall", "1"}}, table.Rows)
}

func TestEligibility(t *testing.T) {
	table := Eligibility([]services.EligibilityRow{
		{
			Volunteer:               db.Volunteer{Name: "Arun", Email: "arun@example.com", Phone: "0700"},
			DistinctSubserviceCount: 3,
			CompletedCount:          2,
			ServiceDatesAttended:    []string{"2024-06-01", "2024-06-08"},
			Eligible:                true,
		},
		{
			Volunteer: db.Volunteer{Name: "Bala", Email: "bala@example.com"},
		},
	})

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Arun", "arun@example.com", "0700", "3", "2", "2024-06-01, 2024-06-08", EligibleText}, table.Rows[0])
	assert.Equal(t, []string{"Bala", "bala@example.com", "", "0", "0", "", ""}, table.Rows[1])

	records := table.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "eligibility", records[0][6])
}
