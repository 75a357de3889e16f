package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jakechorley/tamilschool-volunteers/pkg/core/services"
	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

// EligibleText marks an eligible volunteer in the eligibility report
const EligibleText = "Eligible for Vol. Fees return"

// Table is a header row plus data rows, written as CSV or published to a sheet
type Table struct {
	Header []string
	Rows   [][]string
}

// Records returns the header followed by the data rows
func (t Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, t.Header)
	return append(records, t.Rows...)
}

// WriteCSV writes the table, header first
func WriteCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// Volunteers renders volunteers with their date mapping as "Name: d1, d2; Name2: d3"
func Volunteers(volunteers []db.Volunteer, serviceNames map[int64]string) Table {
	t := Table{Header: []string{"id", "name", "email", "phone", "committed_weekly", "assigned_dates", "created_at"}}
	for _, v := range volunteers {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(v.ID, 10),
			v.Name,
			v.Email,
			v.Phone,
			strconv.FormatBool(v.CommittedWeekly),
			AssignedDatesSummary(v.AssignedDates, serviceNames),
			v.CreatedAt,
		})
	}
	return t
}

// AssignedDatesSummary renders a date mapping in service id order
func AssignedDatesSummary(mapping db.AssignedDates, serviceNames map[int64]string) string {
	parts := make([]string, 0, len(mapping))
	for _, serviceID := range mapping.ServiceIDs() {
		name := services.ServiceName(serviceNames, serviceID)
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(mapping[serviceID], ", ")))
	}
	return strings.Join(parts, "; ")
}

// Roster renders a per-date roster
func Roster(entries []services.RosterEntry) Table {
	t := Table{Header: []string{"name", "email", "services", "subservices", "no_of_completed_services"}}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{
			e.Volunteer.Name,
			e.Volunteer.Email,
			strings.Join(e.Services, ", "),
			strings.Join(e.Subservices, ", "),
			strconv.Itoa(e.CompletedCount),
		})
	}
	return t
}

// Eligibility renders the fee-return eligibility report
func Eligibility(rows []services.EligibilityRow) Table {
	t := Table{Header: []string{"name", "email", "phone", "no_of_subservices", "no_of_completed_services", "service_dates", "eligibility"}}
	for _, r := range rows {
		eligibility := ""
		if r.Eligible {
			eligibility = EligibleText
		}
		t.Rows = append(t.Rows, []string{
			r.Volunteer.Name,
			r.Volunteer.Email,
			r.Volunteer.Phone,
			strconv.Itoa(r.DistinctSubserviceCount),
			strconv.Itoa(r.CompletedCount),
			strings.Join(r.ServiceDatesAttended, ", "),
			eligibility,
		})
	}
	return t
}
