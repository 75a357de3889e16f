package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
)

// InsertService inserts a service and its generated dates in one transaction.
// Returns db.ErrDuplicateServiceName if the name is taken.
func (d *DB) InsertService(ctx context.Context, service *db.Service, dates []string) (int64, error) {
	if service.CreatedAt == "" {
		service.CreatedAt = db.Now()
	}

	var id int64
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO services (name, max_capacity, start_date, end_date, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, service.Name, service.MaxCapacity, nullString(service.StartDate), nullString(service.EndDate), service.CreatedAt)
		if err != nil {
			if uniqueViolation(err, "services.name") {
				return db.ErrDuplicateServiceName
			}
			return fmt.Errorf("failed to insert service: %w", err)
		}

		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read service id: %w", err)
		}

		for _, date := range dates {
			if _, err := tx.ExecContext(ctx, `INSERT INTO service_dates (service_id, date) VALUES (?, ?)`, id, date); err != nil {
				return fmt.Errorf("failed to insert service date %s: %w", date, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	service.ID = id
	return id, nil
}

// UpdateService overwrites name, capacity and range. Stored dates are left as they are.
func (d *DB) UpdateService(ctx context.Context, service *db.Service) (bool, error) {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE services SET name = ?, max_capacity = ?, start_date = ?, end_date = ? WHERE id = ?
	`, service.Name, service.MaxCapacity, nullString(service.StartDate), nullString(service.EndDate), service.ID)
	if err != nil {
		if uniqueViolation(err, "services.name") {
			return false, db.ErrDuplicateServiceName
		}
		return false, fmt.Errorf("failed to update service: %w", err)
	}
	return rowsAffected(res)
}

// DeleteService removes a service with its dates, sub-services and their assignments
func (d *DB) DeleteService(ctx context.Context, serviceID int64) (bool, error) {
	deleted := false
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		statements := []struct {
			what  string
			query string
		}{
			{"service dates", `DELETE FROM service_dates WHERE service_id = ?`},
			{"sub-service assignments", `DELETE FROM subservice_assignments WHERE subservice_id IN (SELECT id FROM subservices WHERE service_id = ?)`},
			{"sub-services", `DELETE FROM subservices WHERE service_id = ?`},
		}
		for _, s := range statements {
			if _, err := tx.ExecContext(ctx, s.query, serviceID); err != nil {
				return fmt.Errorf("failed to delete %s: %w", s.what, err)
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, serviceID)
		if err != nil {
			return fmt.Errorf("failed to delete service: %w", err)
		}
		deleted, err = rowsAffected(res)
		return err
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// ListServices retrieves all services ordered by name
func (d *DB) ListServices(ctx context.Context) ([]db.Service, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, name, COALESCE(max_capacity, 0), COALESCE(start_date, ''), COALESCE(end_date, ''), created_at
		FROM services
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	var services []db.Service
	for rows.Next() {
		var s db.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.MaxCapacity, &s.StartDate, &s.EndDate, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating services: %w", err)
	}
	return services, nil
}

// ListServiceDates retrieves the dates of one service, ascending
func (d *DB) ListServiceDates(ctx context.Context, serviceID int64) ([]string, error) {
	return d.queryDates(ctx, `SELECT date FROM service_dates WHERE service_id = ? ORDER BY date`, serviceID)
}

// ListAllServiceDates retrieves every distinct service date, ascending
func (d *DB) ListAllServiceDates(ctx context.Context) ([]string, error) {
	return d.queryDates(ctx, `SELECT DISTINCT date FROM service_dates ORDER BY date`)
}

// ListServicesForDate retrieves the services scheduled on date, ordered by name
func (d *DB) ListServicesForDate(ctx context.Context, date string) ([]db.ServiceRef, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT DISTINCT s.id, s.name
		FROM services s
		JOIN service_dates sd ON sd.service_id = s.id
		WHERE sd.date = ?
		ORDER BY s.name, s.id
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query services for date: %w", err)
	}
	defer rows.Close()

	var refs []db.ServiceRef
	for rows.Next() {
		var ref db.ServiceRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating services: %w", err)
	}
	return refs, nil
}

// InsertSubservice inserts a sub-service under an existing service
func (d *DB) InsertSubservice(ctx context.Context, subservice *db.Subservice) (int64, error) {
	if subservice.CreatedAt == "" {
		subservice.CreatedAt = db.Now()
	}

	res, err := d.conn.ExecContext(ctx, `
		INSERT INTO subservices (service_id, name, max_capacity, created_at) VALUES (?, ?, ?, ?)
	`, subservice.ServiceID, subservice.Name, subservice.MaxCapacity, subservice.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sub-service: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read sub-service id: %w", err)
	}
	subservice.ID = id
	return id, nil
}

// UpdateSubservice overwrites name and capacity
func (d *DB) UpdateSubservice(ctx context.Context, subservice *db.Subservice) (bool, error) {
	res, err := d.conn.ExecContext(ctx, `UPDATE subservices SET name = ?, max_capacity = ? WHERE id = ?`,
		subservice.Name, subservice.MaxCapacity, subservice.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update sub-service: %w", err)
	}
	return rowsAffected(res)
}

// DeleteSubservice removes a sub-service and its assignments
func (d *DB) DeleteSubservice(ctx context.Context, subserviceID int64) (bool, error) {
	deleted := false
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM subservice_assignments WHERE subservice_id = ?`, subserviceID); err != nil {
			return fmt.Errorf("failed to delete sub-service assignments: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM subservices WHERE id = ?`, subserviceID)
		if err != nil {
			return fmt.Errorf("failed to delete sub-service: %w", err)
		}
		deleted, err = rowsAffected(res)
		return err
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// ListSubservices retrieves sub-services ordered by name, optionally for one service
func (d *DB) ListSubservices(ctx context.Context, serviceID *int64) ([]db.Subservice, error) {
	query := `SELECT id, service_id, name, COALESCE(max_capacity, 0), created_at FROM subservices`
	var args []any
	if serviceID != nil {
		query += ` WHERE service_id = ?`
		args = append(args, *serviceID)
	}
	query += ` ORDER BY name, id`

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sub-services: %w", err)
	}
	defer rows.Close()

	var subservices []db.Subservice
	for rows.Next() {
		var s db.Subservice
		if err := rows.Scan(&s.ID, &s.ServiceID, &s.Name, &s.MaxCapacity, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sub-service: %w", err)
		}
		subservices = append(subservices, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sub-services: %w", err)
	}
	return subservices, nil
}

func (d *DB) queryDates(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dates: %w", err)
	}
	return dates, nil
}
