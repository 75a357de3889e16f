package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

// Selection is the sub-service chosen for one volunteer on a date, with its completion state.
// A zero SubserviceID means no sub-service was chosen.
type Selection struct {
	SubserviceID int64
	Completed    bool
}

// SaveResult reports what SaveDateAssignments changed
type SaveResult struct {
	Inserted int // assignment rows written
	Updated  int // completion flags changed
}

// AssignSubservice replaces the assignments of subserviceID on date with volunteerIDs.
// Repeated ids produce repeated rows. Returns the number of rows inserted.
func AssignSubservice(ctx context.Context, store db.AssignmentStore, logger *zap.Logger, subserviceID int64, date string, volunteerIDs []int64) (int, error) {
	logger.Debug("Assigning sub-service",
		zap.Int64("subservice_id", subserviceID),
		zap.String("date", date),
		zap.Int64s("volunteer_ids", volunteerIDs))

	inserted, err := store.ReplaceAssignments(ctx, subserviceID, date, volunteerIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to assign sub-service %d on %s: %w", subserviceID, date, err)
	}

	logger.Info("Sub-service assigned",
		zap.Int64("subservice_id", subserviceID),
		zap.String("date", date),
		zap.Int("inserted", inserted))
	return inserted, nil
}

// MarkCompleted sets the completed flag of one assignment. Returns false if it does not exist.
func MarkCompleted(ctx context.Context, store db.AssignmentStore, logger *zap.Logger, assignmentID int64, completed bool) (bool, error) {
	updated, err := store.SetAssignmentCompleted(ctx, assignmentID, completed)
	if err != nil {
		return false, fmt.Errorf("failed to mark assignment %d: %w", assignmentID, err)
	}
	if updated {
		logger.Info("Assignment completion set", zap.Int64("assignment_id", assignmentID), zap.Bool("completed", completed))
	}
	return updated, nil
}

// ListAssignments returns assignments with volunteer name and email, ordered by date then volunteer name
func ListAssignments(ctx context.Context, store db.AssignmentStore, logger *zap.Logger, filter db.AssignmentFilter) ([]db.AssignmentDetail, error) {
	assignments, err := store.ListAssignments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	logger.Debug("Listed assignments",
		zap.Int64("subservice_id", filter.SubserviceID),
		zap.String("date", filter.Date),
		zap.Int("count", len(assignments)))
	return assignments, nil
}

// SaveDateAssignments applies a whole day's sub-service selections.
// Volunteers are grouped by chosen sub-service and each group replaces that
// sub-service's assignments on date. Every assignment on date then has its
// completed flag set from the selections; volunteers without a selection are
// marked not completed.
func SaveDateAssignments(ctx context.Context, store db.AssignmentStore, logger *zap.Logger, date string, selections map[int64]Selection) (*SaveResult, error) {
	logger.Debug("Saving date assignments", zap.String("date", date), zap.Int("selections", len(selections)))

	bySubservice := make(map[int64][]int64)
	for volunteerID, sel := range selections {
		if sel.SubserviceID == 0 {
			continue
		}
		bySubservice[sel.SubserviceID] = append(bySubservice[sel.SubserviceID], volunteerID)
	}

	subserviceIDs := make([]int64, 0, len(bySubservice))
	for id := range bySubservice {
		subserviceIDs = append(subserviceIDs, id)
	}
	sort.Slice(subserviceIDs, func(i, j int) bool { return subserviceIDs[i] < subserviceIDs[j] })

	result := &SaveResult{}
	for _, subserviceID := range subserviceIDs {
		volunteerIDs := bySubservice[subserviceID]
		sort.Slice(volunteerIDs, func(i, j int) bool { return volunteerIDs[i] < volunteerIDs[j] })

		inserted, err := store.ReplaceAssignments(ctx, subserviceID, date, volunteerIDs)
		if err != nil {
			return result, fmt.Errorf("failed to assign sub-service %d on %s: %w", subserviceID, date, err)
		}
		result.Inserted += inserted
	}

	current, err := store.ListAssignments(ctx, db.AssignmentFilter{Date: date})
	if err != nil {
		return result, fmt.Errorf("failed to list assignments for %s: %w", date, err)
	}

	for _, a := range current {
		desired := selections[a.VolunteerID].Completed
		if a.Completed == desired {
			continue
		}
		updated, err := store.SetAssignmentCompleted(ctx, a.ID, desired)
		if err != nil {
			return result, fmt.Errorf("failed to mark assignment %d: %w", a.ID, err)
		}
		if updated {
			result.Updated++
		}
	}

	logger.Info("Saved date assignments",
		zap.String("date", date),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated))
	return result, nil
}
