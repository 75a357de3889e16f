package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/tamilschool-volunteers/pkg/core/schedule"
	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

// ServiceInput holds the mutable fields of a service
type ServiceInput struct {
	Name        string `validate:"required"`
	MaxCapacity int    `validate:"min=0"`
	StartDate   string
	EndDate     string
}

// SubserviceInput holds the mutable fields of a sub-service
type SubserviceInput struct {
	Name        string `validate:"required"`
	MaxCapacity int    `validate:"min=0"`
}

// ServiceCreated is the result of CreateService.
// DateRangeErr is set when the start/end dates could not be parsed; the service
// exists but has no generated dates.
type ServiceCreated struct {
	ID           int64
	Dates        []string
	DateRangeErr error
}

// CreateService stores a service and, when both start and end are given, its Saturdays.
// Returns db.ErrDuplicateServiceName if the name is taken.
func CreateService(ctx context.Context, store db.CatalogStore, logger *zap.Logger, input ServiceInput) (*ServiceCreated, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid service: %w", err)
	}

	logger.Debug("Creating service",
		zap.String("name", input.Name),
		zap.String("start", input.StartDate),
		zap.String("end", input.EndDate))

	result := &ServiceCreated{}
	if input.StartDate != "" && input.EndDate != "" {
		dates, err := schedule.Saturdays(input.StartDate, input.EndDate)
		if err != nil {
			logger.Warn("Service date range is malformed, creating service without dates",
				zap.String("name", input.Name), zap.Error(err))
			result.DateRangeErr = err
		} else {
			result.Dates = dates
		}
	}

	id, err := store.InsertService(ctx, &db.Service{
		Name:        input.Name,
		MaxCapacity: input.MaxCapacity,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}, result.Dates)
	if err != nil {
		return nil, err
	}
	result.ID = id

	logger.Info("Service created",
		zap.Int64("id", id),
		zap.String("name", input.Name),
		zap.Int("date_count", len(result.Dates)))
	return result, nil
}

// UpdateService overwrites a service's fields. Dates generated at creation are kept.
func UpdateService(ctx context.Context, store db.CatalogStore, logger *zap.Logger, id int64, input ServiceInput) (bool, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return false, fmt.Errorf("invalid service: %w", err)
	}

	updated, err := store.UpdateService(ctx, &db.Service{
		ID:          id,
		Name:        input.Name,
		MaxCapacity: input.MaxCapacity,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	})
	if err != nil {
		return false, err
	}
	if updated {
		logger.Info("Service updated", zap.Int64("id", id))
	}
	return updated, nil
}

// DeleteService removes a service with its dates, sub-services and their assignments
func DeleteService(ctx context.Context, store db.CatalogStore, logger *zap.Logger, id int64) (bool, error) {
	deleted, err := store.DeleteService(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete service: %w", err)
	}
	if deleted {
		logger.Info("Service deleted", zap.Int64("id", id))
	}
	return deleted, nil
}

// ListServices returns all services ordered by name
func ListServices(ctx context.Context, store db.CatalogStore, logger *zap.Logger) ([]db.Service, error) {
	services, err := store.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	logger.Debug("Listed services", zap.Int("count", len(services)))
	return services, nil
}

// ListServiceDates returns a service's dates, ascending
func ListServiceDates(ctx context.Context, store db.CatalogStore, logger *zap.Logger, serviceID int64) ([]string, error) {
	dates, err := store.ListServiceDates(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dates for service %d: %w", serviceID, err)
	}
	logger.Debug("Listed service dates", zap.Int64("service_id", serviceID), zap.Int("count", len(dates)))
	return dates, nil
}

// ListAllDates returns every distinct service date, ascending
func ListAllDates(ctx context.Context, store db.CatalogStore, logger *zap.Logger) ([]string, error) {
	dates, err := store.ListAllServiceDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list service dates: %w", err)
	}
	logger.Debug("Listed all service dates", zap.Int("count", len(dates)))
	return dates, nil
}

// ServicesForDate returns the services scheduled on date, ordered by name
func ServicesForDate(ctx context.Context, store db.CatalogStore, logger *zap.Logger, date string) ([]db.ServiceRef, error) {
	refs, err := store.ListServicesForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list services for %s: %w", date, err)
	}
	logger.Debug("Listed services for date", zap.String("date", date), zap.Int("count", len(refs)))
	return refs, nil
}

// CreateSubservice stores a sub-service under serviceID
func CreateSubservice(ctx context.Context, store db.CatalogStore, logger *zap.Logger, serviceID int64, input SubserviceInput) (int64, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return 0, fmt.Errorf("invalid sub-service: %w", err)
	}

	id, err := store.InsertSubservice(ctx, &db.Subservice{
		ServiceID:   serviceID,
		Name:        input.Name,
		MaxCapacity: input.MaxCapacity,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create sub-service: %w", err)
	}

	logger.Info("Sub-service created", zap.Int64("id", id), zap.Int64("service_id", serviceID), zap.String("name", input.Name))
	return id, nil
}

// UpdateSubservice overwrites a sub-service's name and capacity
func UpdateSubservice(ctx context.Context, store db.CatalogStore, logger *zap.Logger, id int64, input SubserviceInput) (bool, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return false, fmt.Errorf("invalid sub-service: %w", err)
	}

	updated, err := store.UpdateSubservice(ctx, &db.Subservice{ID: id, Name: input.Name, MaxCapacity: input.MaxCapacity})
	if err != nil {
		return false, fmt.Errorf("failed to update sub-service: %w", err)
	}
	if updated {
		logger.Info("Sub-service updated", zap.Int64("id", id))
	}
	return updated, nil
}

// DeleteSubservice removes a sub-service and its assignments
func DeleteSubservice(ctx context.Context, store db.CatalogStore, logger *zap.Logger, id int64) (bool, error) {
	deleted, err := store.DeleteSubservice(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete sub-service: %w", err)
	}
	if deleted {
		logger.Info("Sub-service deleted", zap.Int64("id", id))
	}
	return deleted, nil
}

// ListSubservices returns sub-services ordered by name, for one service when serviceID is set
func ListSubservices(ctx context.Context, store db.CatalogStore, logger *zap.Logger, serviceID *int64) ([]db.Subservice, error) {
	subservices, err := store.ListSubservices(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-services: %w", err)
	}
	logger.Debug("Listed sub-services", zap.Int("count", len(subservices)))
	return subservices, nil
}
