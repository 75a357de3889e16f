package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

// defaultServiceSummary is used in the confirmation when no service was chosen
const defaultServiceSummary = "Volunteer"

// SignupStore defines the database operations needed for a volunteer signup
type SignupStore interface {
	RegistrationStore
	ListServices(ctx context.Context) ([]db.Service, error)
}

// Notifier sends the signup confirmation. It reports delivery as a bool and never fails the signup.
type Notifier interface {
	Notify(to, volunteerName, serviceSummary, assignedDatesSummary string) bool
}

// ServiceSelection is one service a volunteer signed up for with the dates they chose
type ServiceSelection struct {
	ServiceID int64
	Dates     []string
}

// SignupInput is a volunteer's self-service registration
type SignupInput struct {
	Name            string
	Email           string
	Phone           string
	CommittedWeekly bool
	Services        []ServiceSelection
}

// SignupResult is the outcome of Signup
type SignupResult struct {
	Volunteer *db.Volunteer
	Notified  bool
}

// Signup registers a volunteer with the services and dates they chose, then sends a
// confirmation summarising them. A failed confirmation does not fail the signup.
func Signup(ctx context.Context, store SignupStore, notifier Notifier, logger *zap.Logger, input SignupInput) (*SignupResult, error) {
	services, err := store.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	names := ServiceNames(services)

	mapping := make(db.AssignedDates, len(input.Services))
	for _, sel := range input.Services {
		mapping[sel.ServiceID] = append(mapping[sel.ServiceID], sel.Dates...)
	}

	volunteer, err := RegisterVolunteer(ctx, store, logger, VolunteerInput{
		Name:            input.Name,
		Email:           input.Email,
		Phone:           input.Phone,
		AssignedDates:   mapping,
		CommittedWeekly: input.CommittedWeekly,
	})
	if err != nil {
		return nil, err
	}

	result := &SignupResult{Volunteer: volunteer}
	if notifier == nil {
		return result, nil
	}

	serviceSummary, datesSummary := signupSummary(input.Services, names)
	result.Notified = notifier.Notify(volunteer.Email, volunteer.Name, serviceSummary, datesSummary)
	if !result.Notified {
		logger.Warn("Signup confirmation not sent", zap.String("email", volunteer.Email))
	}
	return result, nil
}

// signupSummary renders the chosen services as "A, B" and their dates as
// "A: d1, d2; B: No dates selected". Both are empty-safe.
func signupSummary(selections []ServiceSelection, names map[int64]string) (string, string) {
	if len(selections) == 0 {
		return defaultServiceSummary, ""
	}

	serviceNames := make([]string, 0, len(selections))
	dateParts := make([]string, 0, len(selections))
	for _, sel := range selections {
		name := ServiceName(names, sel.ServiceID)
		serviceNames = append(serviceNames, name)

		dates := "No dates selected"
		if len(sel.Dates) > 0 {
			dates = strings.Join(sel.Dates, ", ")
		}
		dateParts = append(dateParts, fmt.Sprintf("%s: %s", name, dates))
	}
	return strings.Join(serviceNames, ", "), strings.Join(dateParts, "; ")
}
