package db

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// LegacyRow is a volunteers row that still carries the legacy date columns
type LegacyRow struct {
	VolunteerID   int64
	AssignedDate  string
	AssignedDates string
}

// LegacyBackfill is what happens to one LegacyRow
type LegacyBackfill struct {
	Mapping AssignedDates
	// KeepJSON leaves a corrupt assigned_dates payload in place; the scalar column is always cleared
	KeepJSON bool
	// DecodeErr is set when the payload was corrupt
	DecodeErr error
}

// PlanLegacyBackfill decides the mapping for a legacy row and whether its JSON column is kept
func PlanLegacyBackfill(row LegacyRow) LegacyBackfill {
	mapping, err := LegacyMapping(row.AssignedDate, row.AssignedDates)
	if errors.Is(err, ErrCorruptMapping) {
		return LegacyBackfill{Mapping: mapping, KeepJSON: true, DecodeErr: err}
	}
	return LegacyBackfill{Mapping: mapping}
}

// LegacyStore is the engine-specific half of the legacy date backfill
type LegacyStore interface {
	// LegacyRows returns every volunteer with a non-empty legacy date column
	LegacyRows(ctx context.Context) ([]LegacyRow, error)
	// BackfillVolunteer runs in one transaction: it writes mapping to volunteer_service_dates
	// unless the volunteer already has rows there, then clears the legacy columns.
	// Returns true if rows were written.
	BackfillVolunteer(ctx context.Context, volunteerID int64, mapping AssignedDates, keepJSON bool) (bool, error)
}

// BackfillLegacyDates moves legacy assigned_date / assigned_dates values into
// volunteer_service_dates. Volunteers that already have rows there keep them.
// A corrupt JSON payload is treated as absent, left in place and reported.
func BackfillLegacyDates(ctx context.Context, store LegacyStore, logger *zap.Logger) (MigrationReport, error) {
	var report MigrationReport

	rows, err := store.LegacyRows(ctx)
	if err != nil {
		return report, err
	}

	for _, row := range rows {
		plan := PlanLegacyBackfill(row)
		if plan.DecodeErr != nil {
			report.Corrupt = append(report.Corrupt, row.VolunteerID)
			logger.Warn("Legacy assigned_dates payload is corrupt, treating as absent",
				zap.Int64("volunteer_id", row.VolunteerID), zap.Error(plan.DecodeErr))
		}

		inserted, err := store.BackfillVolunteer(ctx, row.VolunteerID, plan.Mapping, plan.KeepJSON)
		if err != nil {
			return report, fmt.Errorf("failed to backfill volunteer %d: %w", row.VolunteerID, err)
		}
		if inserted {
			report.Backfilled++
		}
	}

	if report.Backfilled > 0 || len(report.Corrupt) > 0 {
		logger.Info("Migrated legacy volunteer dates",
			zap.Int("backfilled", report.Backfilled),
			zap.Int("corrupt", len(report.Corrupt)))
	}
	return report, nil
}
