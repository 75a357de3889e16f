package db

import "time"

// DateLayout is the ISO 8601 calendar date format used for every date column
const DateLayout = "2006-01-02"

// TimestampLayout is the fixed-width ISO 8601 format used for created_at columns.
// Fixed width keeps lexicographic comparison equal to chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Now returns the current UTC time formatted with TimestampLayout
func Now() string {
	return time.Now().UTC().Format(TimestampLayout)
}

// Volunteer represents a volunteers record with its decoded date mapping
type Volunteer struct {
	ID              int64
	Name            string
	Email           string
	Phone           string // empty when not provided
	CommittedWeekly bool
	CreatedAt       string
	AssignedDates   AssignedDates
}

// Service represents a services record
type Service struct {
	ID          int64
	Name        string
	MaxCapacity int
	StartDate   string // empty when not set
	EndDate     string // empty when not set
	CreatedAt   string
}

// ServiceRef is the id/name pair returned when listing services for a date
type ServiceRef struct {
	ID   int64
	Name string
}

// Subservice represents a subservices record
type Subservice struct {
	ID          int64
	ServiceID   int64
	Name        string
	MaxCapacity int
	CreatedAt   string
}

// SubserviceAssignment represents a subservice_assignments record
type SubserviceAssignment struct {
	ID           int64
	SubserviceID int64
	VolunteerID  int64
	Date         string
	Completed    bool
	CreatedAt    string
}

// AssignmentDetail is an assignment joined with the assigned volunteer.
// VolunteerName and VolunteerEmail are empty if the volunteer row no longer exists.
type AssignmentDetail struct {
	SubserviceAssignment
	VolunteerName  string
	VolunteerEmail string
}

// AssignmentFilter narrows ListAssignments. Zero values mean "any".
type AssignmentFilter struct {
	SubserviceID int64
	Date         string
}

// CreatedRange bounds volunteers by created_at, compared as strings. Empty bounds are open.
type CreatedRange struct {
	Start string
	End   string
}

// MigrationReport describes the legacy date-mapping backfill performed when a store is opened
type MigrationReport struct {
	Backfilled int     // volunteers whose legacy columns were moved into volunteer_service_dates
	Corrupt    []int64 // volunteers whose legacy JSON could not be decoded (treated as absent)
}
