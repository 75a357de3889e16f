package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

func insertService(t *testing.T, store *DB, name string, dates ...string) int64 {
	t.Helper()
	id, err := store.InsertService(context.Background(), &db.Service{Name: name}, dates)
	require.NoError(t, err)
	return id
}

func insertSubservice(t *testing.T, store *DB, serviceID int64, name string) int64 {
	t.Helper()
	id, err := store.InsertSubservice(context.Background(), &db.Subservice{ServiceID: serviceID, Name: name})
	require.NoError(t, err)
	return id
}

func TestInsertService(t *testing.T) {
	ctx := context.Background()
	store := newTestDB(t)

	service := &db.Service{Name: "Cleaning", MaxCapacity: 10, StartDate: "2024-06-01", EndDate: "2024-06-15"}
	id, err := store.InsertService(ctx, service, []string{"2024-06-15", "2024-06-01", "2024-06-08"})
	require.NoError(t, err)
	assert.Equal(t, id, service.ID)

	dates, err := store.ListServiceDates(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-01", "2024-06-08", "2024-06-15"}, dates)

	services, err := store.ListServices(ctx)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "Cleaning", services[0].Name)
	assert.Equal(t, 10, services[0].MaxCapacity)
	assert.Equal(t, "2024-06-01", services[0].StartDate)
	assert.Equal(t, "2024-06-15", services[0].EndDate)

	_, err = store.InsertService(ctx, &db.Service{Name: "Cleaning"}, nil)
	assert.True(t, errors.Is(err, db.ErrDuplicateServiceName))
}

func TestUpdateService_KeepsDates(t *testing.T) {
	ctx := context.Background()
	store := newTestDB(t)

	id := insertService(t, store, "Cleaning", "2024-06-01")
	insertService(t, store, "Kitchen")

	updated, err := store.UpdateService(ctx, &db.Service{ID: id, Name: "Deep Cleaning", MaxCapacity: 4, StartDate: "2025-01-01", EndDate: "2025-02-01"})
	require.NoError(t, err)
	assert.True(t, updated)

	dates, err := store.ListServiceDates(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-01"}, dates)

	_, err = store.UpdateService(ctx, &db.Service{ID: id, Name: "Kitchen"})
	assert.True(t, errors.Is(err, db.ErrDuplicateServiceName))

	updated, err = store.UpdateService(ctx, &db.Service{ID: 999, Name: "Ghost"})
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestDeleteService_Cascades(t *testing.T) {
	ctx := context.Background()
	store := newTestDB(t)

	serviceID := insertService(t, store, "Cleaning", "2024-06-01", "2024-06-08")
	otherID := insertService(t, store, "Kitchen", "2024-06-01")
	subA := insertSubservice(t, store, serviceID, "Hall")
	subB := insertSubservice(t, store, serviceID, "Toilets")
	otherSub := insertSubservice(t, store, otherID, "Cooking")
	volunteerID := insertVolunteer(t, store, "Arun", "arun@example.com", "", db.AssignedDates{serviceID: {"2024-06-01"}})

	_, err := store.ReplaceAssignments(ctx, subA, "2024-06-01", []int64{volunteerID})
	require.NoError(t, err)
	_, err = store.ReplaceAssignments(ctx, subB, "2024-06-08", []int64{volunteerID})
	require.NoError(t, err)
	_, err = store.ReplaceAssignments(ctx, otherSub, "2024-06-01", []int64{volunteerID})
	require.NoError(t, err)

	deleted, err := store.DeleteService(ctx, serviceID)
	require.NoError(t, err)
	assert.True(t, deleted)

	dates, err := store.ListServiceDates(ctx, serviceID)
	require.NoError(t, err)
	assert.Empty(t, dates)

	subservices, err := store.ListSubservices(ctx, &serviceID)
	require.NoError(t, err)
	assert.Empty(t, subservices)

	assignments, err := store.ListAssignments(ctx, db.AssignmentFilter{})
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, otherSub, assignments[0].SubserviceID)

	// The volunteer keeps their dates for the deleted service
	v, err := store.GetVolunteerByEmail(ctx, "arun@example.com")
	require.NoError(t, err)
	assert.Equal(t, db.AssignedDates{serviceID: {"2024-06-01"}}, v.AssignedDates)

	deleted, err = store.DeleteService(ctx, serviceID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestServiceDateQueries(t *testing.T) {
	ctx := context.Background()
	store := newTestDB(t)

	insertService(t, store, "Kitchen", "2024-06-08", "2024-06-01")
	insertService(t, store, "Cleaning", "2024-06-01", "2024-06-15")
	insertService(t, store, "Library")

	all, err := store.ListAllServiceDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-01", "2024-06-08", "2024-06-15"}, all)

	refs, err := store.ListServicesForDate(ctx, "2024-06-01")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "Cleaning", refs[0].Name)
	assert.Equal(t, "Kitchen", refs[1].Name)

	refs, err = store.ListServicesForDate(ctx, "2024-06-22")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestSubservices(t *testing.T) {
	ctx := context.Background()
	store := newTestDB(t)

	cleaning := insertService(t, store, "Cleaning")
	kitchen := insertService(t, store, "Kitchen")
	toilets := insertSubservice(t, store, cleaning, "Toilets")
	insertSubservice(t, store, cleaning, "Hall")
	insertSubservice(t, store, kitchen, "Cooking")

	all, err := store.ListSubservices(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Cooking", "Hall", "Toilets"}, []string{all[0].Name, all[1].Name, all[2].Name})

	forCleaning, err := store.ListSubservices(ctx, &cleaning)
	require.NoError(t, err)
	require.Len(t, forCleaning, 2)
	assert.Equal(t, "Hall", forCleaning[0].Name)

	updated, err := store.UpdateSubservice(ctx, &db.Subservice{ID: toilets, Name: "Bathrooms", MaxCapacity: 2})
	require.NoError(t, err)
	assert.True(t, updated)

	volunteerID := insertVolunteer(t, store, "Arun", "arun@example.com", "", nil)
	_, err = store.ReplaceAssignments(ctx, toilets, "2024-06-01", []int64{volunteerID})
	require.NoError(t, err)

	deleted, err := store.DeleteSubservice(ctx, toilets)
	require.NoError(t, err)
	assert.True(t, deleted)

	assignments, err := store.ListAssignments(ctx, db.AssignmentFilter{SubserviceID: toilets})
	require.NoError(t, err)
	assert.Empty(t, assignments)

	deleted, err = store.DeleteSubservice(ctx, toilets)
	require.NoError(t, err)
	assert.False(t, deleted)
}
