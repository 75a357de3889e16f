package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

// ReplaceAssignments makes volunteerIDs the complete assignment set for (subserviceID, date)
func (d *DB) ReplaceAssignments(ctx context.Context, subserviceID int64, date string, volunteerIDs []int64) (int, error) {
	inserted := 0
	err := d.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM subservice_assignments WHERE subservice_id = $1 AND date = $2`, subserviceID, date); err != nil {
			return fmt.Errorf("failed to clear assignments: %w", err)
		}

		createdAt := db.Now()
		for _, volunteerID := range volunteerIDs {
			_, err := tx.Exec(ctx, `
				INSERT INTO subservice_assignments (subservice_id, volunteer_id, date, completed, created_at)
				VALUES ($1, $2, $3, FALSE, $4)
			`, subserviceID, volunteerID, date, createdAt)
			if err != nil {
				return fmt.Errorf("failed to insert assignment for volunteer %d: %w", volunteerID, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// SetAssignmentCompleted sets the completed flag of one assignment
func (d *DB) SetAssignmentCompleted(ctx context.Context, assignmentID int64, completed bool) (bool, error) {
	tag, err := d.pool.Exec(ctx, `UPDATE subservice_assignments SET completed = $2 WHERE id = $1`, assignmentID, completed)
	if err != nil {
		return false, fmt.Errorf("failed to update assignment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListAssignments retrieves assignments joined with their volunteer
func (d *DB) ListAssignments(ctx context.Context, filter db.AssignmentFilter) ([]db.AssignmentDetail, error) {
	query := `
		SELECT a.id, a.subservice_id, a.volunteer_id, a.date, a.completed, a.created_at,
			COALESCE(v.name, ''), COALESCE(v.email, '')
		FROM subservice_assignments a
		LEFT JOIN volunteers v ON v.id = a.volunteer_id
		WHERE TRUE`
	var args []any
	if filter.SubserviceID != 0 {
		args = append(args, filter.SubserviceID)
		query += fmt.Sprintf(` AND a.subservice_id = $%d`, len(args))
	}
	if filter.Date != "" {
		args = append(args, filter.Date)
		query += fmt.Sprintf(` AND a.date = $%d`, len(args))
	}
	query += ` ORDER BY a.date, v.name, a.id`

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []db.AssignmentDetail
	for rows.Next() {
		var a db.AssignmentDetail
		if err := rows.Scan(&a.ID, &a.SubserviceID, &a.VolunteerID, &a.Date, &a.Completed, &a.CreatedAt,
			&a.VolunteerName, &a.VolunteerEmail); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}
	return assignments, nil
}
