// Package store mirrors the long-format record stream into SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store is a SQLite database of instruments and their time series.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// ImportStats counts the outcome of one Import.
type ImportStats struct {
	RunID       string
	Instruments int
	Inserted    int
	Updated     int
	Failed      int
}

// Instrument is one row of the instrument table.
type Instrument struct {
	Code string
	Name string
}

// Open creates or opens the database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS etf_info (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS etf_timeseries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL,
		date TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		name TEXT NOT NULL,
		value REAL NOT NULL,
		is_aggregate INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL,
		UNIQUE (code, date, metric_type)
	);
	CREATE INDEX IF NOT EXISTS idx_timeseries_date ON etf_timeseries(date);
	CREATE INDEX IF NOT EXISTS idx_timeseries_metric ON etf_timeseries(metric_type);

	CREATE TABLE IF NOT EXISTS import_runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		inserted INTEGER NOT NULL,
		updated INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Import upserts records keyed by (code, date, metric_type). Instrument
// names of non-aggregate rows are upserted into the instrument table.
func (s *Store) Import(ctx context.Context, records []models.Record, source string) (ImportStats, error) {
	stats := ImportStats{RunID: uuid.NewString()}
	started := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	instruments := make(map[string]string)
	for _, r := range records {
		if !r.IsAggregate && r.Code != "" {
			instruments[r.Code] = r.Name
		}
	}
	for code, name := range instruments {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO etf_info (code, name, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(code) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
			code, name, started); err != nil {
			return stats, fmt.Errorf("failed to upsert instrument %s: %w", code, err)
		}
		stats.Instruments++
	}

	for _, r := range records {
		date := r.DateKey()
		var id int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM etf_timeseries WHERE code = ? AND date = ? AND metric_type = ?`,
			r.Code, date, r.MetricType).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			_, err = tx.ExecContext(ctx, `
				INSERT INTO etf_timeseries (code, date, metric_type, name, value, is_aggregate, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				r.Code, date, r.MetricType, r.Name, r.Value, r.IsAggregate, started)
			if err == nil {
				stats.Inserted++
			}
		case err == nil:
			_, err = tx.ExecContext(ctx, `
				UPDATE etf_timeseries SET name = ?, value = ?, is_aggregate = ?, updated_at = ? WHERE id = ?`,
				r.Name, r.Value, r.IsAggregate, started, id)
			if err == nil {
				stats.Updated++
			}
		}
		if err != nil {
			stats.Failed++
			s.logger.Error("Failed to import record",
				zap.String("code", r.Code),
				zap.String("date", date),
				zap.String("metric", r.MetricType),
				zap.Error(err))
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO import_runs (id, source, started_at, inserted, updated, failed) VALUES (?, ?, ?, ?, ?, ?)`,
		stats.RunID, source, started, stats.Inserted, stats.Updated, stats.Failed); err != nil {
		return stats, fmt.Errorf("failed to record import run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit import: %w", err)
	}

	s.logger.Info("Imported records",
		zap.String("run", stats.RunID),
		zap.Int("inserted", stats.Inserted),
		zap.Int("updated", stats.Updated),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

// Records returns the stored record stream ordered by date, code and metric.
func (s *Store) Records(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, date, metric_type, value, is_aggregate
		FROM etf_timeseries
		ORDER BY date, code, metric_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var r models.Record
		var date string
		if err := rows.Scan(&r.Code, &r.Name, &date, &r.MetricType, &r.Value, &r.IsAggregate); err != nil {
			return nil, err
		}
		t, err := time.Parse(models.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("record %s/%s has invalid date %q: %w", r.Code, r.MetricType, date, err)
		}
		r.Date = t
		records = append(records, r)
	}
	return records, rows.Err()
}

// Instruments returns the instrument table ordered by code.
func (s *Store) Instruments(ctx context.Context) ([]Instrument, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name FROM etf_info ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Instrument
	for rows.Next() {
		var in Instrument
		if err := rows.Scan(&in.Code, &in.Name); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// DateRange returns the first and last stored dates. ok is false when the
// store holds no records.
func (s *Store) DateRange(ctx context.Context) (first, last time.Time, ok bool, err error) {
	var minDate, maxDate sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MIN(date), MAX(date) FROM etf_timeseries`).Scan(&minDate, &maxDate); err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if !minDate.Valid || !maxDate.Valid {
		return time.Time{}, time.Time{}, false, nil
	}
	if first, err = time.Parse(models.DateLayout, minDate.String); err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if last, err = time.Parse(models.DateLayout, maxDate.String); err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return first, last, true, nil
}
