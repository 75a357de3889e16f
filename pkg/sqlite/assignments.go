package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

// ReplaceAssignments makes volunteerIDs the complete assignment set for (subserviceID, date).
// Earlier assignments for the pair are deleted in the same transaction. Repeated ids
// produce repeated rows. Returns the number of rows inserted.
func (d *DB) ReplaceAssignments(ctx context.Context, subserviceID int64, date string, volunteerIDs []int64) (int, error) {
	inserted := 0
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM subservice_assignments WHERE subservice_id = ? AND date = ?`, subserviceID, date); err != nil {
			return fmt.Errorf("failed to clear assignments: %w", err)
		}

		createdAt := db.Now()
		for _, volunteerID := range volunteerIDs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO subservice_assignments (subservice_id, volunteer_id, date, completed, created_at)
				VALUES (?, ?, ?, 0, ?)
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
	res, err := d.conn.ExecContext(ctx, `UPDATE subservice_assignments SET completed = ? WHERE id = ?`, completed, assignmentID)
	if err != nil {
		return false, fmt.Errorf("failed to update assignment: %w", err)
	}
	return rowsAffected(res)
}

// ListAssignments retrieves assignments joined with their volunteer,
// ordered by date, volunteer name, then id
func (d *DB) ListAssignments(ctx context.Context, filter db.AssignmentFilter) ([]db.AssignmentDetail, error) {
	query := `
		SELECT a.id, a.subservice_id, a.volunteer_id, a.date, COALESCE(a.completed, 0), a.created_at,
			COALESCE(v.name, ''), COALESCE(v.email, '')
		FROM subservice_assignments a
		LEFT JOIN volunteers v ON v.id = a.volunteer_id
		WHERE 1=1`
	var args []any
	if filter.SubserviceID != 0 {
		query += ` AND a.subservice_id = ?`
		args = append(args, filter.SubserviceID)
	}
	if filter.Date != "" {
		query += ` AND a.date = ?`
		args = append(args, filter.Date)
	}
	query += ` ORDER BY a.date, v.name, a.id`

	rows, err := d.conn.QueryContext(ctx, query, args...)
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
