package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

// EligibilityThreshold is the number of distinct sub-services a volunteer must have
// been assigned to before they qualify for the fee return
const EligibilityThreshold = 3

// ReportingStore defines the database operations needed to build reports
type ReportingStore interface {
	ListVolunteers(ctx context.Context, created db.CreatedRange) ([]db.Volunteer, error)
	ListVolunteersForDate(ctx context.Context, date string) ([]db.Volunteer, error)
	ListServices(ctx context.Context) ([]db.Service, error)
	ListSubservices(ctx context.Context, serviceID *int64) ([]db.Subservice, error)
	ListAssignments(ctx context.Context, filter db.AssignmentFilter) ([]db.AssignmentDetail, error)
}

// RosterEntry is one volunteer's line in a per-date roster
type RosterEntry struct {
	Volunteer      db.Volunteer
	Services       []string // names of the services the volunteer selected this date for
	Subservices    []string // names of the sub-services they are assigned to on this date
	CompletedCount int      // assignments on this date marked completed
}

// EligibilityRow is one volunteer's line in the eligibility report
type EligibilityRow struct {
	Volunteer               db.Volunteer
	DistinctSubserviceCount int
	CompletedCount          int
	ServiceDatesAttended    []string // distinct assignment dates, ascending
	Eligible                bool
}

// RosterForDate lists the volunteers who selected date, with the services they chose
// for it, their sub-service assignments on it and how many of those are completed.
// Returns an empty list when nobody selected the date.
func RosterForDate(ctx context.Context, store ReportingStore, logger *zap.Logger, date string) ([]RosterEntry, error) {
	logger.Debug("Building roster", zap.String("date", date))

	volunteers, err := store.ListVolunteersForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteers for %s: %w", date, err)
	}
	if len(volunteers) == 0 {
		logger.Debug("No volunteers for date", zap.String("date", date))
		return []RosterEntry{}, nil
	}

	services, err := store.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	serviceNames := ServiceNames(services)

	subserviceNames, err := subserviceNameLookup(ctx, store)
	if err != nil {
		return nil, err
	}

	assignments, err := store.ListAssignments(ctx, db.AssignmentFilter{Date: date})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments for %s: %w", date, err)
	}
	subsByVolunteer := make(map[int64][]string)
	completedByVolunteer := make(map[int64]int)
	for _, a := range assignments {
		subsByVolunteer[a.VolunteerID] = append(subsByVolunteer[a.VolunteerID], subserviceNames[a.SubserviceID])
		if a.Completed {
			completedByVolunteer[a.VolunteerID]++
		}
	}

	roster := make([]RosterEntry, 0, len(volunteers))
	for _, v := range volunteers {
		var names []string
		for _, serviceID := range v.AssignedDates.ServicesOn(date) {
			names = append(names, ServiceName(serviceNames, serviceID))
		}
		roster = append(roster, RosterEntry{
			Volunteer:      v,
			Services:       names,
			Subservices:    subsByVolunteer[v.ID],
			CompletedCount: completedByVolunteer[v.ID],
		})
	}

	logger.Debug("Roster built",
		zap.String("date", date),
		zap.Int("volunteers", len(roster)),
		zap.Int("assignments", len(assignments)))
	return roster, nil
}

// EligibilityReport computes, for every volunteer, the distinct sub-services they have
// been assigned to, their completed assignments and the dates they served. Rows are
// ordered by distinct sub-service count, highest first; ties keep the newest-first
// volunteer order.
func EligibilityReport(ctx context.Context, store ReportingStore, logger *zap.Logger) ([]EligibilityRow, error) {
	logger.Debug("Building eligibility report")

	volunteers, err := store.ListVolunteers(ctx, db.CreatedRange{})
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteers: %w", err)
	}

	assignments, err := store.ListAssignments(ctx, db.AssignmentFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	subservices := make(map[int64]map[int64]bool)
	dates := make(map[int64]map[string]bool)
	completed := make(map[int64]int)
	for _, a := range assignments {
		if subservices[a.VolunteerID] == nil {
			subservices[a.VolunteerID] = make(map[int64]bool)
			dates[a.VolunteerID] = make(map[string]bool)
		}
		subservices[a.VolunteerID][a.SubserviceID] = true
		if a.Date != "" {
			dates[a.VolunteerID][a.Date] = true
		}
		if a.Completed {
			completed[a.VolunteerID]++
		}
	}

	rows := make([]EligibilityRow, 0, len(volunteers))
	eligible := 0
	for _, v := range volunteers {
		distinct := len(subservices[v.ID])
		attended := make([]string, 0, len(dates[v.ID]))
		for d := range dates[v.ID] {
			attended = append(attended, d)
		}
		sort.Strings(attended)

		row := EligibilityRow{
			Volunteer:               v,
			DistinctSubserviceCount: distinct,
			CompletedCount:          completed[v.ID],
			ServiceDatesAttended:    attended,
			Eligible:                distinct >= EligibilityThreshold,
		}
		if row.Eligible {
			eligible++
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DistinctSubserviceCount > rows[j].DistinctSubserviceCount
	})

	logger.Info("Eligibility report built",
		zap.Int("volunteers", len(rows)),
		zap.Int("eligible", eligible),
		zap.Int("assignments", len(assignments)))
	return rows, nil
}

// ServiceNames maps service ids to names
func ServiceNames(services []db.Service) map[int64]string {
	names := make(map[int64]string, len(services))
	for _, s := range services {
		names[s.ID] = s.Name
	}
	return names
}

// ServiceName resolves a mapping key to a display name. Unknown ids render as the id
// and the unspecified service renders as an empty string.
func ServiceName(names map[int64]string, serviceID int64) string {
	if serviceID == db.UnspecifiedService {
		return ""
	}
	if name, ok := names[serviceID]; ok {
		return name
	}
	return strconv.FormatInt(serviceID, 10)
}

func subserviceNameLookup(ctx context.Context, store ReportingStore) (map[int64]string, error) {
	subservices, err := store.ListSubservices(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-services: %w", err)
	}
	names := make(map[int64]string, len(subservices))
	for _, s := range subservices {
		names[s.ID] = s.Name
	}
	return names, nil
}
