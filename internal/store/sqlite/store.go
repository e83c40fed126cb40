// Package sqlite provides a SQLite-backed weather record store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/i474232898/weather-history-cache/internal/store/sqlite/migrations"
	"github.com/i474232898/weather-history-cache/internal/weather"
)

var _ weather.Store = (*Store)(nil)

// Store persists weather records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite weather store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Lookup returns the lowest-id record for city and date.
func (s *Store) Lookup(ctx context.Context, city string, date time.Time) (weather.Record, bool, error) {
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, city, date, min_temp, max_temp, avg_temp, humidity
		   FROM weather
		  WHERE city = ? AND date = ?
		  ORDER BY id
		  LIMIT 1`,
		city,
		weather.Day(date).Format(weather.DateLayout),
	)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return weather.Record{}, false, nil
		}
		return weather.Record{}, false, &weather.StoreError{Op: "lookup", Err: err}
	}
	return rec, true, nil
}

// Store inserts one record and reads it back inside a single transaction.
// Nothing is committed unless every step succeeds.
func (s *Store) Store(ctx context.Context, in weather.RecordInput) (weather.Record, error) {
	rec, err := s.insert(ctx, in)
	if err != nil {
		return weather.Record{}, &weather.StoreError{Op: "store", Err: err}
	}
	return rec, nil
}

func (s *Store) insert(ctx context.Context, in weather.RecordInput) (weather.Record, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return weather.Record{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO weather (city, date, min_temp, max_temp, avg_temp, humidity, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.City,
		weather.Day(in.Date).Format(weather.DateLayout),
		in.MinTemp,
		in.MaxTemp,
		in.AvgTemp,
		in.Humidity,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return weather.Record{}, fmt.Errorf("insert weather record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return weather.Record{}, fmt.Errorf("last insert id: %w", err)
	}

	row := tx.QueryRowContext(
		ctx,
		`SELECT id, city, date, min_temp, max_temp, avg_temp, humidity
		   FROM weather
		  WHERE id = ?`,
		id,
	)
	rec, err := scanRecord(row)
	if err != nil {
		return weather.Record{}, fmt.Errorf("read back weather record %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return weather.Record{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

func scanRecord(row *sql.Row) (weather.Record, error) {
	var (
		rec  weather.Record
		date string
	)
	if err := row.Scan(&rec.ID, &rec.City, &date, &rec.MinTemp, &rec.MaxTemp, &rec.AvgTemp, &rec.Humidity); err != nil {
		return weather.Record{}, err
	}
	d, err := time.Parse(weather.DateLayout, date)
	if err != nil {
		return weather.Record{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	rec.Date = d
	return rec, nil
}
