package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kilianp07/opsplan/core/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS schedules (
    id TEXT PRIMARY KEY,
    driver_id TEXT NOT NULL,
    bus_id TEXT NOT NULL,
    route_id TEXT NOT NULL,
    date TEXT NOT NULL,
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL,
    is_repeating INTEGER NOT NULL DEFAULT 0,
    repeat_days INTEGER NOT NULL DEFAULT 0,
    repeat_end_date TEXT
);
CREATE INDEX IF NOT EXISTS schedules_date ON schedules(date);
CREATE TABLE IF NOT EXISTS drivers (
    id TEXT PRIMARY KEY,
    name TEXT,
    driver_number TEXT
);
CREATE TABLE IF NOT EXISTS buses (
    id TEXT PRIMARY KEY,
    number TEXT,
    company TEXT
);
CREATE TABLE IF NOT EXISTS routes (
    id TEXT PRIMARY KEY,
    name TEXT,
    operation_start_time TEXT,
    operation_end_time TEXT
);
CREATE TABLE IF NOT EXISTS external_bus_assignments (
    bus_number TEXT,
    date TEXT,
    company TEXT,
    start_time TEXT,
    end_time TEXT
);`

// SQLiteStore persists schedules and reference data in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) ListSchedules(ctx context.Context) ([]model.BaseSchedule, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, driver_id, bus_id, route_id, date, start_time, end_time,
        is_repeating, repeat_days, repeat_end_date FROM schedules ORDER BY date, start_time, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.BaseSchedule
	for rows.Next() {
		var sc model.BaseSchedule
		var date string
		var endDate sql.NullString
		var repeating bool
		var days int64
		if err := rows.Scan(&sc.ID, &sc.DriverID, &sc.BusID, &sc.RouteID, &date, &sc.StartTime, &sc.EndTime,
			&repeating, &days, &endDate); err != nil {
			return nil, err
		}
		if sc.Date, err = model.ParseDate(date); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", sc.ID, err)
		}
		if endDate.Valid && endDate.String != "" {
			if sc.RepeatEndDate, err = model.ParseDate(endDate.String); err != nil {
				return nil, fmt.Errorf("schedule %s: %w", sc.ID, err)
			}
		}
		sc.IsRepeating = repeating
		sc.RepeatDays = model.WeekdaySet(days)
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateSchedule(ctx context.Context, sc model.BaseSchedule) (model.BaseSchedule, error) {
	sc.ID = uuid.NewString()
	if err := s.insert(ctx, s.db, sc); err != nil {
		return model.BaseSchedule{}, err
	}
	return sc, nil
}

func (s *SQLiteStore) UpdateSchedule(ctx context.Context, sc model.BaseSchedule) (model.BaseSchedule, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE schedules SET driver_id = ?, bus_id = ?, route_id = ?, date = ?,
        start_time = ?, end_time = ?, is_repeating = ?, repeat_days = ?, repeat_end_date = ? WHERE id = ?`,
		sc.DriverID, sc.BusID, sc.RouteID, sc.Date.String(), sc.StartTime, sc.EndTime,
		sc.IsRepeating, int64(sc.RepeatDays), nullDate(sc.RepeatEndDate), sc.ID)
	if err != nil {
		return model.BaseSchedule{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.BaseSchedule{}, ErrNotFound
	}
	return sc, nil
}

func (s *SQLiteStore) DeleteSchedule(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Import(ctx context.Context, list []model.BaseSchedule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, sc := range list {
		if sc.ID == "" {
			sc.ID = uuid.NewString()
		}
		if err := s.insert(ctx, tx, sc); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("import %s: %w", sc.ID, err)
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) insert(ctx context.Context, db execer, sc model.BaseSchedule) error {
	_, err := db.ExecContext(ctx, `INSERT INTO schedules (id, driver_id, bus_id, route_id, date, start_time, end_time,
        is_repeating, repeat_days, repeat_end_date) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.DriverID, sc.BusID, sc.RouteID, sc.Date.String(), sc.StartTime, sc.EndTime,
		sc.IsRepeating, int64(sc.RepeatDays), nullDate(sc.RepeatEndDate))
	return err
}

func nullDate(d model.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

// ReplaceReference swaps all reference tables in one transaction.
func (s *SQLiteStore) ReplaceReference(ctx context.Context, ref model.Reference) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	rollback := func(err error) error {
		_ = tx.Rollback()
		return err
	}
	for _, table := range []string{"drivers", "buses", "routes", "external_bus_assignments"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return rollback(err)
		}
	}
	for _, d := range ref.Drivers {
		if _, err := tx.ExecContext(ctx, `INSERT INTO drivers (id, name, driver_number) VALUES (?, ?, ?)`,
			d.ID, d.Name, d.DriverNumber); err != nil {
			return rollback(err)
		}
	}
	for _, b := range ref.Buses {
		if _, err := tx.ExecContext(ctx, `INSERT INTO buses (id, number, company) VALUES (?, ?, ?)`,
			b.ID, b.Number, b.Company); err != nil {
			return rollback(err)
		}
	}
	for _, r := range ref.Routes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO routes (id, name, operation_start_time, operation_end_time) VALUES (?, ?, ?, ?)`,
			r.ID, r.Name, r.OperationStartTime, r.OperationEndTime); err != nil {
			return rollback(err)
		}
	}
	for _, x := range ref.Externals {
		if _, err := tx.ExecContext(ctx, `INSERT INTO external_bus_assignments (bus_number, date, company, start_time, end_time)
            VALUES (?, ?, ?, ?, ?)`, x.BusNumber, x.Date.String(), x.Company, x.StartTime, x.EndTime); err != nil {
			return rollback(err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListDrivers(ctx context.Context) ([]model.Driver, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, driver_number FROM drivers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Driver
	for rows.Next() {
		var d model.Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.DriverNumber); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListBuses(ctx context.Context) ([]model.Bus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, number, company FROM buses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Bus
	for rows.Next() {
		var b model.Bus
		if err := rows.Scan(&b.ID, &b.Number, &b.Company); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListRoutes(ctx context.Context) ([]model.Route, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, operation_start_time, operation_end_time FROM routes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Route
	for rows.Next() {
		var r model.Route
		if err := rows.Scan(&r.ID, &r.Name, &r.OperationStartTime, &r.OperationEndTime); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListExternalBusAssignments(ctx context.Context) ([]model.ExternalBusAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bus_number, date, company, start_time, end_time
        FROM external_bus_assignments ORDER BY date, start_time`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.ExternalBusAssignment
	for rows.Next() {
		var x model.ExternalBusAssignment
		var date string
		if err := rows.Scan(&x.BusNumber, &date, &x.Company, &x.StartTime, &x.EndTime); err != nil {
			return nil, err
		}
		if x.Date, err = model.ParseDate(date); err != nil {
			return nil, fmt.Errorf("external assignment %s: %w", x.BusNumber, err)
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
