package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockLegacyStore implements LegacyStore
type mockLegacyStore struct {
	rows        []LegacyRow
	hasDates    map[int64]bool
	backfillErr error
	calls       []backfillCall
}

type backfillCall struct {
	volunteerID int64
	mapping     AssignedDates
	keepJSON    bool
}

func (m *mockLegacyStore) LegacyRows(ctx context.Context) ([]LegacyRow, error) {
	return m.rows, nil
}

func (m *mockLegacyStore) BackfillVolunteer(ctx context.Context, volunteerID int64, mapping AssignedDates, keepJSON bool) (bool, error) {
	if m.backfillErr != nil {
		return false, m.backfillErr
	}
	m.calls = append(m.calls, backfillCall{volunteerID, mapping, keepJSON})
	return !m.hasDates[volunteerID] && len(mapping) > 0, nil
}

func TestPlanLegacyBackfill(t *testing.T) {
	tests := []struct {
		name     string
		row      LegacyRow
		mapping  AssignedDates
		keepJSON bool
	}{
		{
			name:    "scalar only maps to the unspecified service",
			row:     LegacyRow{AssignedDate: "2024-06-01"},
			mapping: AssignedDates{UnspecifiedService: {"2024-06-01"}},
		},
		{
			name:    "json payload",
			row:     LegacyRow{AssignedDates: `{"2": ["2024-06-08"], "null": ["2024-06-01"]}`},
			mapping: AssignedDates{2: {"2024-06-08"}, UnspecifiedService: {"2024-06-01"}},
		},
		{
			name:     "corrupt payload keeps json and falls back to scalar",
			row:      LegacyRow{AssignedDate: "2024-06-01", AssignedDates: `{oops`},
			mapping:  AssignedDates{UnspecifiedService: {"2024-06-01"}},
			keepJSON: true,
		},
		{
			name:     "corrupt payload without scalar",
			row:      LegacyRow{AssignedDates: `["2024-06-01"]`},
			keepJSON: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanLegacyBackfill(tt.row)
			assert.Equal(t, tt.mapping, plan.Mapping)
			assert.Equal(t, tt.keepJSON, plan.KeepJSON)
			assert.Equal(t, tt.keepJSON, errors.Is(plan.DecodeErr, ErrCorruptMapping))
		})
	}
}

func TestBackfillLegacyDates(t *testing.T) {
	store := &mockLegacyStore{
		rows: []LegacyRow{
			{VolunteerID: 1, AssignedDate: "2024-06-01"},
			{VolunteerID: 2, AssignedDates: `{"3": ["2024-06-08"]}`},
			{VolunteerID: 3, AssignedDates: `not json`},
			{VolunteerID: 4, AssignedDate: "2024-06-15"},
		},
		hasDates: map[int64]bool{4: true},
	}

	report, err := BackfillLegacyDates(context.Background(), store, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Backfilled)
	assert.Equal(t, []int64{3}, report.Corrupt)

	require.Len(t, store.calls, 4)
	assert.Equal(t, backfillCall{3, nil, true}, store.calls[2])
	assert.False(t, store.calls[3].keepJSON)
}

func TestBackfillLegacyDates_StoreError(t *testing.T) {
	store := &mockLegacyStore{
		rows:        []LegacyRow{{VolunteerID: 7, AssignedDate: "2024-06-01"}},
		backfillErr: errors.New("disk full"),
	}

	_, err := BackfillLegacyDates(context.Background(), store, zap.NewNop())
	assert.ErrorContains(t, err, "failed to backfill volunteer 7")
	assert.ErrorContains(t, err, "disk full")
}
