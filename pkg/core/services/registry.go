package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// RegistrationStore defines the database operation needed to register a volunteer
type RegistrationStore interface {
	InsertVolunteer(ctx context.Context, volunteer *db.Volunteer) (int64, error)
}

// VolunteerInput holds the mutable fields of a volunteer
type VolunteerInput struct {
	Name            string `validate:"required"`
	Email           string `validate:"required,email"`
	Phone           string
	AssignedDates   db.AssignedDates
	CommittedWeekly bool
}

// VolunteerReportFilter narrows ReportVolunteers. Zero values mean "any".
type VolunteerReportFilter struct {
	ServiceID *int64
	Start     string // inclusive lower bound on created_at
	End       string // inclusive upper bound on created_at
}

func (in VolunteerInput) normalize() VolunteerInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.AssignedDates = in.AssignedDates.Normalize()
	return in
}

// RegisterVolunteer validates and stores a new volunteer.
// Returns db.ErrDuplicateEmail if the email is already registered.
func RegisterVolunteer(ctx context.Context, store RegistrationStore, logger *zap.Logger, input VolunteerInput) (*db.Volunteer, error) {
	input = input.normalize()
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid volunteer: %w", err)
	}

	logger.Debug("Registering volunteer",
		zap.String("email", input.Email),
		zap.Int("service_count", len(input.AssignedDates)))

	volunteer := &db.Volunteer{
		Name:            input.Name,
		Email:           input.Email,
		Phone:           input.Phone,
		CommittedWeekly: input.CommittedWeekly,
		AssignedDates:   input.AssignedDates,
	}
	if _, err := store.InsertVolunteer(ctx, volunteer); err != nil {
		return nil, err
	}

	logger.Info("Volunteer registered", zap.Int64("id", volunteer.ID), zap.String("email", volunteer.Email))
	return volunteer, nil
}

// ListVolunteers returns every volunteer, newest first
func ListVolunteers(ctx context.Context, store db.VolunteerStore, logger *zap.Logger) ([]db.Volunteer, error) {
	volunteers, err := store.ListVolunteers(ctx, db.CreatedRange{})
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteers: %w", err)
	}
	logger.Debug("Listed volunteers", zap.Int("count", len(volunteers)))
	return volunteers, nil
}

// FindVolunteerByEmail returns the volunteer with email, or nil if there is none
func FindVolunteerByEmail(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, email string) (*db.Volunteer, error) {
	volunteer, err := store.GetVolunteerByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("failed to find volunteer: %w", err)
	}
	logger.Debug("Looked up volunteer", zap.String("email", email), zap.Bool("found", volunteer != nil))
	return volunteer, nil
}

// ReassignVolunteer sets the dates a volunteer holds for one service and their weekly commitment.
// Empty dates remove the service from the volunteer's mapping. Returns false if the email is unknown.
func ReassignVolunteer(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, email string, serviceID int64, dates []string, committedWeekly bool) (bool, error) {
	logger.Debug("Reassigning volunteer",
		zap.String("email", email),
		zap.Int64("service_id", serviceID),
		zap.Strings("dates", dates))

	found, err := store.ReplaceVolunteerServiceDates(ctx, strings.TrimSpace(email), serviceID, dates, committedWeekly)
	if err != nil {
		return false, fmt.Errorf("failed to reassign volunteer: %w", err)
	}
	if found {
		logger.Info("Volunteer reassigned", zap.String("email", email), zap.Int64("service_id", serviceID))
	}
	return found, nil
}

// UpdateVolunteer overwrites all mutable fields of volunteer id, including the date mapping.
// Returns false if the id is unknown and db.ErrDuplicateEmail if the new email is taken.
func UpdateVolunteer(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, id int64, input VolunteerInput) (bool, error) {
	input = input.normalize()
	if err := validate.Struct(input); err != nil {
		return false, fmt.Errorf("invalid volunteer: %w", err)
	}

	updated, err := store.UpdateVolunteer(ctx, &db.Volunteer{
		ID:              id,
		Name:            input.Name,
		Email:           input.Email,
		Phone:           input.Phone,
		CommittedWeekly: input.CommittedWeekly,
		AssignedDates:   input.AssignedDates,
	})
	if err != nil {
		return false, err
	}
	if updated {
		logger.Info("Volunteer updated", zap.Int64("id", id))
	}
	return updated, nil
}

// DeleteVolunteer removes a volunteer along with their assignments.
// Returns false if the volunteer did not exist.
func DeleteVolunteer(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, id int64) (bool, error) {
	deleted, err := store.DeleteVolunteer(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete volunteer: %w", err)
	}
	if deleted {
		logger.Info("Volunteer deleted", zap.Int64("id", id))
	}
	return deleted, nil
}

// ListVolunteersForDate returns volunteers who selected date for any service, ordered by name
func ListVolunteersForDate(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, date string) ([]db.Volunteer, error) {
	volunteers, err := store.ListVolunteersForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteers for %s: %w", date, err)
	}
	logger.Debug("Listed volunteers for date", zap.String("date", date), zap.Int("count", len(volunteers)))
	return volunteers, nil
}

// ReportVolunteers returns volunteers created within the filter's range, newest first.
// With a service filter only volunteers holding that service remain, and their
// mapping is narrowed to it.
func ReportVolunteers(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, filter VolunteerReportFilter) ([]db.Volunteer, error) {
	volunteers, err := store.ListVolunteers(ctx, db.CreatedRange{Start: filter.Start, End: filter.End})
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteers: %w", err)
	}

	if filter.ServiceID == nil {
		return volunteers, nil
	}

	serviceID := *filter.ServiceID
	var report []db.Volunteer
	for _, v := range volunteers {
		dates, ok := v.AssignedDates[serviceID]
		if !ok || len(dates) == 0 {
			continue
		}
		v.AssignedDates = db.AssignedDates{serviceID: dates}
		report = append(report, v)
	}

	logger.Debug("Built volunteer report",
		zap.Int64("service_id", serviceID),
		zap.Int("matched", len(report)),
		zap.Int("scanned", len(volunteers)))
	return report, nil
}
