package measurement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

var ErrDBNotAvailable = fmt.Errorf("SQLite DB is not available")

const schema = `
CREATE TABLE IF NOT EXISTS measurements (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	unit TEXT NOT NULL,
	description TEXT
);
CREATE TABLE IF NOT EXISTS samples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	measurement_id INTEGER NOT NULL REFERENCES measurements(id),
	timestamp INTEGER NOT NULL,
	value REAL NOT NULL,
	kind TEXT NOT NULL DEFAULT '',
	flag TEXT NOT NULL DEFAULT '',
	refcode TEXT NOT NULL DEFAULT '',
	UNIQUE (measurement_id, timestamp, kind)
);
CREATE INDEX IF NOT EXISTS idx_samples_timestamp ON samples(measurement_id, timestamp);
`

type SQLRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSqliteDB opens (or creates) the archive at path; ":memory:" is
// accepted for tests.
func OpenSqliteDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	// single connection keeps ":memory:" databases alive and serialises writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite DB: %w", err)
	}

	return db, nil
}

func NewSqlRepository(db *sql.DB, logger *slog.Logger) (*SQLRepository, error) {
	if db == nil {
		logger.Error("SQL DB is not initialized")
		return nil, ErrDBNotAvailable
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	return &SQLRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *SQLRepository) IsReady() bool {
	if r.logger == nil {
		fmt.Println("Logger of SQLRepository is not initialized")
		return false
	}

	if r.db == nil {
		r.logger.Error("SQLite DB is not initialized")
		return false
	}

	return true
}

func (r *SQLRepository) Close() error {
	if r.db == nil {
		return ErrDBNotAvailable
	}

	if err := r.db.Close(); err != nil {
		r.logger.Error("Failed to close SQLite DB", "error", err)
		return err
	}

	r.logger.Debug("SQLite DB closed successfully")
	return nil
}

// AddTimeseries stores the samples under the series name, creating the
// measurement on first use. Samples already stored are skipped.
func (r *SQLRepository) AddTimeseries(ctx context.Context, timeseries *Timeseries) error {
	if timeseries == nil {
		return fmt.Errorf("timeseries cannot be nil")
	}

	if !r.IsReady() {
		return ErrDBNotAvailable
	}

	m, err := r.getMeasurementByName(ctx, timeseries.Name)
	if err != nil {
		return err
	}

	if m == nil {
		newMeasurement := timeseries.Measurement
		if newMeasurement == nil {
			newMeasurement = &Measurement{Name: timeseries.Name, Unit: UnitCM}
		}
		newMeasurement.Name = timeseries.Name

		if err := r.AddMeasurement(ctx, newMeasurement); err != nil {
			return err
		}

		if m, err = r.getMeasurementByName(ctx, timeseries.Name); err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("measurement not found after adding: %s", timeseries.Name)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, sample := range timeseries.Samples {
		result, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO samples (measurement_id, timestamp, value, kind, flag, refcode) VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, sample.Time.Unix(), sample.Value, sample.Kind, sample.Flag, sample.RefCode,
		)
		if err != nil {
			r.logger.Error("Failed to insert sample", "sample", sample, "error", err)
			return err
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit samples: %w", err)
	}

	r.logger.Info("Timeseries stored", "name", timeseries.Name, "received", len(timeseries.Samples), "inserted", inserted)
	return nil
}

// GetTimeseries returns nil when the measurement is unknown.
func (r *SQLRepository) GetTimeseries(ctx context.Context, measurementName string, period Period) (*Timeseries, error) {
	m, err := r.getMeasurementByName(ctx, measurementName)
	if err != nil {
		return nil, err
	}
	if m == nil {
		r.logger.Debug("Measurement not found", "name", measurementName)
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT timestamp, value, kind, flag, refcode
FROM samples
WHERE measurement_id = ?
	AND timestamp >= ? AND timestamp <= ?
ORDER BY timestamp ASC, id ASC`,
		m.ID, period.Start.Unix(), period.End.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var (
			epoch  int64
			sample Sample
		)
		if err := rows.Scan(&epoch, &sample.Value, &sample.Kind, &sample.Flag, &sample.RefCode); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		sample.Time = time.Unix(epoch, 0).UTC()
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Timeseries{
		Name:        m.Name,
		Samples:     samples,
		Start:       period.Start,
		End:         period.End,
		Measurement: m,
	}, nil
}

func (r *SQLRepository) AddMeasurement(ctx context.Context, measurement *Measurement) error {
	if measurement == nil {
		return fmt.Errorf("measurement cannot be nil")
	}

	if measurement.Unit == "" {
		measurement.Unit = UnitCM
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO measurements (name, unit, description) VALUES (?, ?, ?)`,
		measurement.Name, measurement.Unit, measurement.Description,
	)
	if err != nil {
		r.logger.Error("Failed to insert measurement", "name", measurement.Name, "error", err)
		return err
	}

	if id, err := result.LastInsertId(); err == nil {
		measurement.ID = id
	}

	r.logger.Debug("Measurement added", "name", measurement.Name, "id", measurement.ID)
	return nil
}

func (r *SQLRepository) GetMeasurements(ctx context.Context) ([]Measurement, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, unit, COALESCE(description, '') FROM measurements ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer rows.Close()

	var measurements []Measurement
	for rows.Next() {
		var m Measurement
		if err := rows.Scan(&m.ID, &m.Name, &m.Unit, &m.Description); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		measurements = append(measurements, m)
	}

	return measurements, rows.Err()
}

func (r *SQLRepository) getMeasurementByName(ctx context.Context, name string) (*Measurement, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, unit, COALESCE(description, '') FROM measurements WHERE name = ?`, name)

	var m Measurement
	if err := row.Scan(&m.ID, &m.Name, &m.Unit, &m.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load measurement %s: %w", name, err)
	}
	return &m, nil
}
