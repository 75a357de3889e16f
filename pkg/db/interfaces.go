package db

import "context"

// VolunteerStore defines the database operations on volunteers and their date mappings
type VolunteerStore interface {
	InsertVolunteer(ctx context.Context, volunteer *Volunteer) (int64, error)
	ListVolunteers(ctx context.Context, created CreatedRange) ([]Volunteer, error)
	GetVolunteerByEmail(ctx context.Context, email string) (*Volunteer, error)
	ReplaceVolunteerServiceDates(ctx context.Context, email string, serviceID int64, dates []string, committedWeekly bool) (bool, error)
	UpdateVolunteer(ctx context.Context, volunteer *Volunteer) (bool, error)
	DeleteVolunteer(ctx context.Context, volunteerID int64) (bool, error)
	ListVolunteersForDate(ctx context.Context, date string) ([]Volunteer, error)
}

// CatalogStore defines the database operations on services, their dates and sub-services
type CatalogStore interface {
	InsertService(ctx context.Context, service *Service, dates []string) (int64, error)
	UpdateService(ctx context.Context, service *Service) (bool, error)
	DeleteService(ctx context.Context, serviceID int64) (bool, error)
	ListServices(ctx context.Context) ([]Service, error)
	ListServiceDates(ctx context.Context, serviceID int64) ([]string, error)
	ListAllServiceDates(ctx context.Context) ([]string, error)
	ListServicesForDate(ctx context.Context, date string) ([]ServiceRef, error)

	InsertSubservice(ctx context.Context, subservice *Subservice) (int64, error)
	UpdateSubservice(ctx context.Context, subservice *Subservice) (bool, error)
	DeleteSubservice(ctx context.Context, subserviceID int64) (bool, error)
	ListSubservices(ctx context.Context, serviceID *int64) ([]Subservice, error)
}

// AssignmentStore defines the database operations on sub-service assignments
type AssignmentStore interface {
	ReplaceAssignments(ctx context.Context, subserviceID int64, date string, volunteerIDs []int64) (int, error)
	SetAssignmentCompleted(ctx context.Context, assignmentID int64, completed bool) (bool, error)
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]AssignmentDetail, error)
}

// Database defines the interface for all database operations.
// Both sqlite.DB and postgres.DB implement this interface.
type Database interface {
	VolunteerStore
	CatalogStore
	AssignmentStore
	MigrationReport() MigrationReport
	Close()
}
