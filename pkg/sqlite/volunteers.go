package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

const volunteerColumns = `v.id, v.name, v.email, COALESCE(v.phone, ''), COALESCE(v.committed_weekly, 0), v.created_at`

// InsertVolunteer inserts a volunteer and their date mapping in one transaction.
// Returns db.ErrDuplicateEmail if the email is already registered.
func (d *DB) InsertVolunteer(ctx context.Context, volunteer *db.Volunteer) (int64, error) {
	if volunteer.CreatedAt == "" {
		volunteer.CreatedAt = db.Now()
	}

	var id int64
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO volunteers (name, email, phone, committed_weekly, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, volunteer.Name, volunteer.Email, nullString(volunteer.Phone), volunteer.CommittedWeekly, volunteer.CreatedAt)
		if err != nil {
			if uniqueViolation(err, "volunteers.email") {
				return db.ErrDuplicateEmail
			}
			return fmt.Errorf("failed to insert volunteer: %w", err)
		}

		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read volunteer id: %w", err)
		}

		return insertServiceDates(ctx, tx, id, volunteer.AssignedDates)
	})
	if err != nil {
		return 0, err
	}

	volunteer.ID = id
	return id, nil
}

// ListVolunteers retrieves volunteers created within the range, newest first
func (d *DB) ListVolunteers(ctx context.Context, created db.CreatedRange) ([]db.Volunteer, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteers v WHERE 1=1`
	var args []any
	if created.Start != "" {
		query += ` AND v.created_at >= ?`
		args = append(args, created.Start)
	}
	if created.End != "" {
		query += ` AND v.created_at <= ?`
		args = append(args, created.End)
	}
	query += ` ORDER BY v.created_at DESC, v.id DESC`

	return d.queryVolunteers(ctx, query, args...)
}

// GetVolunteerByEmail retrieves a single volunteer, or nil if the email is unknown
func (d *DB) GetVolunteerByEmail(ctx context.Context, email string) (*db.Volunteer, error) {
	volunteers, err := d.queryVolunteers(ctx, `SELECT `+volunteerColumns+` FROM volunteers v WHERE v.email = ?`, email)
	if err != nil {
		return nil, err
	}
	if len(volunteers) == 0 {
		return nil, nil
	}
	return &volunteers[0], nil
}

// ReplaceVolunteerServiceDates replaces the dates held for one service and sets committed_weekly.
// Empty dates remove the service from the mapping. Returns false if the email is unknown.
func (d *DB) ReplaceVolunteerServiceDates(ctx context.Context, email string, serviceID int64, dates []string, committedWeekly bool) (bool, error) {
	found := false
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var volunteerID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM volunteers WHERE email = ?`, email).Scan(&volunteerID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up volunteer: %w", err)
		}
		found = true

		if _, err := tx.ExecContext(ctx, `DELETE FROM volunteer_service_dates WHERE volunteer_id = ? AND service_id = ?`, volunteerID, serviceID); err != nil {
			return fmt.Errorf("failed to clear service dates: %w", err)
		}

		if err := insertServiceDates(ctx, tx, volunteerID, db.AssignedDates{serviceID: dates}); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE volunteers SET committed_weekly = ? WHERE id = ?`, committedWeekly, volunteerID); err != nil {
			return fmt.Errorf("failed to update committed_weekly: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// UpdateVolunteer overwrites every mutable field, including the whole date mapping.
// Returns false if the volunteer does not exist.
func (d *DB) UpdateVolunteer(ctx context.Context, volunteer *db.Volunteer) (bool, error) {
	changed := false
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE volunteers SET name = ?, email = ?, phone = ?, committed_weekly = ? WHERE id = ?
		`, volunteer.Name, volunteer.Email, nullString(volunteer.Phone), volunteer.CommittedWeekly, volunteer.ID)
		if err != nil {
			if uniqueViolation(err, "volunteers.email") {
				return db.ErrDuplicateEmail
			}
			return fmt.Errorf("failed to update volunteer: %w", err)
		}
		if changed, err = rowsAffected(res); err != nil || !changed {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM volunteer_service_dates WHERE volunteer_id = ?`, volunteer.ID); err != nil {
			return fmt.Errorf("failed to clear volunteer dates: %w", err)
		}
		return insertServiceDates(ctx, tx, volunteer.ID, volunteer.AssignedDates)
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// DeleteVolunteer deletes the volunteer's assignments and dates, then the volunteer.
// Returns false if the volunteer did not exist.
func (d *DB) DeleteVolunteer(ctx context.Context, volunteerID int64) (bool, error) {
	deleted := false
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM subservice_assignments WHERE volunteer_id = ?`, volunteerID); err != nil {
			return fmt.Errorf("failed to delete volunteer assignments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM volunteer_service_dates WHERE volunteer_id = ?`, volunteerID); err != nil {
			return fmt.Errorf("failed to delete volunteer dates: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM volunteers WHERE id = ?`, volunteerID)
		if err != nil {
			return fmt.Errorf("failed to delete volunteer: %w", err)
		}
		deleted, err = rowsAffected(res)
		return err
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// ListVolunteersForDate retrieves volunteers holding date for any service, ordered by name
func (d *DB) ListVolunteersForDate(ctx context.Context, date string) ([]db.Volunteer, error) {
	return d.queryVolunteers(ctx, `
		SELECT `+volunteerColumns+` FROM volunteers v
		WHERE EXISTS (
			SELECT 1 FROM volunteer_service_dates d WHERE d.volunteer_id = v.id AND d.date = ?
		)
		ORDER BY v.name, v.id
	`, date)
}

// queryVolunteers runs a volunteer query and attaches each volunteer's date mapping
func (d *DB) queryVolunteers(ctx context.Context, query string, args ...any) ([]db.Volunteer, error) {
	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteers: %w", err)
	}

	var volunteers []db.Volunteer
	for rows.Next() {
		var v db.Volunteer
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.CommittedWeekly, &v.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		volunteers = append(volunteers, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteers: %w", err)
	}

	if len(volunteers) == 0 {
		return volunteers, nil
	}

	mappings, err := d.loadAssignedDates(ctx, volunteers)
	if err != nil {
		return nil, err
	}
	for i := range volunteers {
		volunteers[i].AssignedDates = mappings[volunteers[i].ID]
	}
	return volunteers, nil
}

// loadAssignedDates reads the date mappings of the given volunteers, keyed by volunteer id
func (d *DB) loadAssignedDates(ctx context.Context, volunteers []db.Volunteer) (map[int64]db.AssignedDates, error) {
	placeholders := make([]string, len(volunteers))
	args := make([]any, len(volunteers))
	for i, v := range volunteers {
		placeholders[i] = "?"
		args[i] = v.ID
	}

	rows, err := d.conn.QueryContext(ctx, `
		SELECT volunteer_id, service_id, date FROM volunteer_service_dates
		WHERE volunteer_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY volunteer_id, service_id, position
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteer dates: %w", err)
	}
	defer rows.Close()

	mappings := make(map[int64]db.AssignedDates)
	for rows.Next() {
		var volunteerID, serviceID int64
		var date string
		if err := rows.Scan(&volunteerID, &serviceID, &date); err != nil {
			return nil, fmt.Errorf("failed to scan volunteer date: %w", err)
		}
		if mappings[volunteerID] == nil {
			mappings[volunteerID] = make(db.AssignedDates)
		}
		mappings[volunteerID][serviceID] = append(mappings[volunteerID][serviceID], date)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteer dates: %w", err)
	}
	return mappings, nil
}

// insertServiceDates writes a mapping into volunteer_service_dates, keeping list order in position
func insertServiceDates(ctx context.Context, q querier, volunteerID int64, mapping db.AssignedDates) error {
	normalized := mapping.Normalize()
	for _, serviceID := range normalized.ServiceIDs() {
		for position, date := range normalized[serviceID] {
			_, err := q.ExecContext(ctx, `
				INSERT INTO volunteer_service_dates (volunteer_id, service_id, date, position)
				VALUES (?, ?, ?, ?)
			`, volunteerID, serviceID, date, position)
			if err != nil {
				return fmt.Errorf("failed to insert volunteer date: %w", err)
			}
		}
	}
	return nil
}
