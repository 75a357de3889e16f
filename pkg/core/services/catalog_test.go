package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

func TestCreateService_GeneratesSaturdays(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	logger := zap.NewNop()

	created, err := CreateService(ctx, store, logger, ServiceInput{Name: "X", MaxCapacity: 10, StartDate: "2024-06-01", EndDate: "2024-06-29"})
	require.NoError(t, err)
	require.NoError(t, created.DateRangeErr)

	expected := []string{"2024-06-01", "2024-06-08", "2024-06-15", "2024-06-22", "2024-06-29"}
	assert.Equal(t, expected, created.Dates)

	dates, err := ListServiceDates(ctx, store, logger, created.ID)
	require.NoError(t, err)
	assert.Equal(t, expected, dates)
}

func TestCreateService_MalformedRangeStillCreates(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	logger := zap.NewNop()

	created, err := CreateService(ctx, store, logger, ServiceInput{Name: "Cleaning", StartDate: "01/06/2024", EndDate: "2024-06-29"})
	require.NoError(t, err)
	assert.True(t, errors.Is(created.DateRangeErr, db.ErrMalformedDateRange))
	assert.Empty(t, created.Dates)

	services, err := ListServices(ctx, store, logger)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "Cleaning", services[0].Name)

	dates, err := ListServiceDates(ctx, store, logger, created.ID)
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestCreateService_WithoutRange(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	created, err := CreateService(ctx, store, zap.NewNop(), ServiceInput{Name: "Library", StartDate: "2024-06-01"})
	require.NoError(t, err)
	assert.NoError(t, created.DateRangeErr)
	assert.Empty(t, created.Dates)
}

func TestCreateService_DuplicateName(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	logger := zap.NewNop()

	_, err := CreateService(ctx, store, logger, ServiceInput{Name: "Cleaning"})
	require.NoError(t, err)

	_, err = CreateService(ctx, store, logger, ServiceInput{Name: "Cleaning"})
	assert.True(t, errors.Is(err, db.ErrDuplicateServiceName))

	_, err = CreateService(ctx, store, logger, ServiceInput{Name: ""})
	assert.Error(t, err)
}

func TestUpdateService_DoesNotRegenerateDates(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	logger := zap.NewNop()

	created, err := CreateService(ctx, store, logger, ServiceInput{Name: "Cleaning", StartDate: "2024-06-01", EndDate: "2024-06-08"})
	require.NoError(t, err)

	updated, err := UpdateService(ctx, store, logger, created.ID, ServiceInput{Name: "Cleaning", MaxCapacity: 3, StartDate: "2024-07-01", EndDate: "2024-07-31"})
	require.NoError(t, err)
	assert.True(t, updated)

	dates, err := ListServiceDates(ctx, store, logger, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-01", "2024-06-08"}, dates)
}

func TestDeleteService_RemovesDescendants(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	logger := zap.NewNop()

	created, err := CreateService(ctx, store, logger, ServiceInput{Name: "Cleaning", StartDate: "2024-06-01", EndDate: "2024-06-08"})
	require.NoError(t, err)
	subID, err := CreateSubservice(ctx, store, logger, created.ID, SubserviceInput{Name: "Hall"})
	require.NoError(t, err)
	v := register(t, store, "Arun", "arun@example.com", db.AssignedDates{created.ID: {"2024-06-01"}})
	_, err = AssignSubservice(ctx, store, logger, subID, "2024-06-01", []int64{v.ID})
	require.NoError(t, err)

	deleted, err := DeleteService(ctx, store, logger, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	dates, err := ListAllDates(ctx, store, logger)
	require.NoError(t, err)
	assert.Empty(t, dates)

	subservices, err := ListSubservices(ctx, store, logger, nil)
	require.NoError(t, err)
	assert.Empty(t, subservices)

	assignments, err := ListAssignments(ctx, store, logger, db.AssignmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestServicesForDate(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	logger := zap.NewNop()

	_, err := CreateService(ctx, store, logger, ServiceInput{Name: "Kitchen", StartDate: "2024-06-01", EndDate: "2024-06-15"})
	require.NoError(t, err)
	_, err = CreateService(ctx, store, logger, ServiceInput{Name: "Cleaning", StartDate: "2024-06-08", EndDate: "2024-06-08"})
	require.NoError(t, err)

	refs, err := ServicesForDate(ctx, store, logger, "2024-06-08")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "Cleaning", refs[0].Name)
	assert.Equal(t, "Kitchen", refs[1].Name)

	all, err := ListAllDates(ctx, store, logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-01", "2024-06-08", "2024-06-15"}, all)
}

func TestSubserviceLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	logger := zap.NewNop()

	created, err := CreateService(ctx, store, logger, ServiceInput{Name: "Cleaning"})
	require.NoError(t, err)

	subID, err := CreateSubservice(ctx, store, logger, created.ID, SubserviceInput{Name: "Toilets"})
	require.NoError(t, err)
	_, err = CreateSubservice(ctx, store, logger, created.ID, SubserviceInput{Name: "Hall", MaxCapacity: 4})
	require.NoError(t, err)

	_, err = CreateSubservice(ctx, store, logger, created.ID, SubserviceInput{Name: "Bad", MaxCapacity: -1})
	assert.Error(t, err)

	subservices, err := ListSubservices(ctx, store, logger, &created.ID)
	require.NoError(t, err)
	require.Len(t, subservices, 2)
	assert.Equal(t, "Hall", subservices[0].Name)
	assert.Equal(t, 4, subservices[0].MaxCapacity)

	updated, err := UpdateSubservice(ctx, store, logger, subID, SubserviceInput{Name: "Washrooms", MaxCapacity: 2})
	require.NoError(t, err)
	assert.True(t, updated)

	deleted, err := DeleteSubservice(ctx, store, logger, subID)
	require.NoError(t, err)
	assert.True(t, deleted)

	subservices, err = ListSubservices(ctx, store, logger, nil)
	require.NoError(t, err)
	require.Len(t, subservices, 1)
	assert.Equal(t, "Hall", subservices[0].Name)
}
