// Package store persists canonical measurement records and session metadata
// to the analytical store, an embedded SQLite database. Both tables are
// append-only: re-running ingestion for an already loaded subject-session
// appends new rows, it never updates in place.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	apperrors "physioload/internal/errors"
	"physioload/pkg/contracts/domain"
)

// timestampLayout keeps sub-second precision and the UTC offset in the
// stored text form.
const timestampLayout = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS fact_physiological_measurements (
	measurement_id        TEXT NOT NULL,
	subject_id            TEXT NOT NULL,
	session_id            TEXT NOT NULL,
	measurement_timestamp TEXT NOT NULL,
	signal_type           TEXT NOT NULL,
	value                 REAL NOT NULL,
	session_type          TEXT NOT NULL,
	data_quality_flag     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_measurements_session
	ON fact_physiological_measurements (session_id, signal_type);

CREATE TABLE IF NOT EXISTS dim_sessions (
	session_id         TEXT NOT NULL,
	subject_id         TEXT NOT NULL,
	session_type       TEXT NOT NULL,
	protocol_version   TEXT NOT NULL,
	session_date       TEXT NOT NULL,
	session_start_time TEXT NOT NULL,
	session_end_time   TEXT NOT NULL,
	duration_minutes   REAL NOT NULL,
	data_quality_notes TEXT
);

CREATE TABLE IF NOT EXISTS dim_subjects (
	subject_id      TEXT PRIMARY KEY,
	cohort          TEXT NOT NULL,
	age             INTEGER,
	weight_kg       REAL,
	height_cm       REAL,
	bmi             REAL,
	gender          TEXT,
	enrollment_date TEXT
);
`

// Writer is the subset of store operations the ingestion pipeline needs.
type Writer interface {
	InsertMeasurements(ctx context.Context, records []domain.Measurement) error
	InsertSession(ctx context.Context, meta domain.SessionMetadata) error
}

// DB is the SQLite-backed analytical store.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the store at path and ensures the schema exists.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, apperrors.NewStorageError("failed to create store directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open analytical store", err)
	}

	// modernc's driver serializes writes per connection; a single connection
	// matches the pipeline's fully sequential write model.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("failed to create store schema", err)
	}

	logger.Info("analytical store opened", slog.String("path", path))

	return &DB{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *DB) Close() error {
	return s.db.Close()
}

// InsertMeasurements appends one batch of measurement rows inside a single
// transaction. The caller controls batch sizing.
func (s *DB) InsertMeasurements(ctx context.Context, records []domain.Measurement) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("failed to begin measurement insert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fact_physiological_measurements
			(measurement_id, subject_id, session_id, measurement_timestamp,
			 signal_type, value, session_type, data_quality_flag)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return apperrors.NewStorageError("failed to prepare measurement insert", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.MeasurementID,
			rec.SubjectID,
			rec.SessionID,
			rec.Timestamp.UTC().Format(timestampLayout),
			string(rec.SignalType),
			rec.Value,
			string(rec.SessionType),
			string(rec.QualityFlag),
		); err != nil {
			return apperrors.NewStorageError("failed to insert measurement row", err).
				WithContext("measurement_id", rec.MeasurementID)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("failed to commit measurement batch", err)
	}

	return nil
}

// InsertSession appends one session metadata row.
func (s *DB) InsertSession(ctx context.Context, meta domain.SessionMetadata) error {
	var notes interface{}
	if meta.QualityNotes != "" {
		notes = meta.QualityNotes
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dim_sessions
			(session_id, subject_id, session_type, protocol_version, session_date,
			 session_start_time, session_end_time, duration_minutes, data_quality_notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.SessionID,
		meta.SubjectID,
		string(meta.SessionType),
		meta.ProtocolVersion,
		meta.SessionDate.UTC().Format("2006-01-02"),
		meta.SessionStartTime.UTC().Format(timestampLayout),
		meta.SessionEndTime.UTC().Format(timestampLayout),
		meta.DurationMinutes,
		notes,
	)
	if err != nil {
		return apperrors.NewStorageError("failed to insert session metadata", err).
			WithContext("session_id", meta.SessionID)
	}

	return nil
}

// CountMeasurements returns the number of measurement rows for one session.
func (s *DB) CountMeasurements(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fact_physiological_measurements WHERE session_id = ?`,
		sessionID).Scan(&count)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to count measurements", err)
	}
	return count, nil
}

// Sessions returns the metadata rows recorded for one session ID in insert
// order. Re-runs append, so more than one row per session is possible.
func (s *DB) Sessions(ctx context.Context, sessionID string) ([]domain.SessionMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, subject_id, session_type, protocol_version, session_date,
		       session_start_time, session_end_time, duration_minutes, data_quality_notes
		FROM dim_sessions WHERE session_id = ? ORDER BY rowid`,
		sessionID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query sessions", err)
	}
	defer rows.Close()

	var sessions []domain.SessionMetadata
	for rows.Next() {
		var (
			meta     domain.SessionMetadata
			sessType string
			date     string
			start    string
			end      string
			notes    sql.NullString
		)
		if err := rows.Scan(&meta.SessionID, &meta.SubjectID, &sessType, &meta.ProtocolVersion,
			&date, &start, &end, &meta.DurationMinutes, &notes); err != nil {
			return nil, apperrors.NewStorageError("failed to scan session row", err)
		}

		meta.SessionType = domain.SessionType(sessType)
		meta.QualityNotes = notes.String
		if meta.SessionDate, err = time.Parse("2006-01-02", date); err != nil {
			return nil, apperrors.NewStorageError("failed to parse session date", err)
		}
		if meta.SessionStartTime, err = time.Parse(timestampLayout, start); err != nil {
			return nil, apperrors.NewStorageError("failed to parse session start time", err)
		}
		if meta.SessionEndTime, err = time.Parse(timestampLayout, end); err != nil {
			return nil, apperrors.NewStorageError("failed to parse session end time", err)
		}

		sessions = append(sessions, meta)
	}

	return sessions, rows.Err()
}

// Measurements returns the measurement rows for one session in insert order.
func (s *DB) Measurements(ctx context.Context, sessionID string) ([]domain.Measurement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT measurement_id, subject_id, session_id, measurement_timestamp,
		       signal_type, value, session_type, data_quality_flag
		FROM fact_physiological_measurements WHERE session_id = ? ORDER BY rowid`,
		sessionID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query measurements", err)
	}
	defer rows.Close()

	var records []domain.Measurement
	for rows.Next() {
		var (
			rec      domain.Measurement
			ts       string
			sigType  string
			sessType string
			flag     string
		)
		if err := rows.Scan(&rec.MeasurementID, &rec.SubjectID, &rec.SessionID, &ts,
			&sigType, &rec.Value, &sessType, &flag); err != nil {
			return nil, apperrors.NewStorageError("failed to scan measurement row", err)
		}

		if rec.Timestamp, err = time.Parse(timestampLayout, ts); err != nil {
			return nil, apperrors.NewStorageError("failed to parse measurement timestamp", err)
		}
		rec.SignalType = domain.SignalType(sigType)
		rec.SessionType = domain.SessionType(sessType)
		rec.QualityFlag = domain.QualityFlag(flag)

		records = append(records, rec)
	}

	return records, rows.Err()
}

// TableStats reports row counts for the store's tables, the shape consumed by
// the schema optimization advisor.
func (s *DB) TableStats(ctx context.Context) ([]domain.TableStats, error) {
	tables := []string{"fact_physiological_measurements", "dim_sessions", "dim_subjects"}

	stats := make([]domain.TableStats, 0, len(tables))
	for _, table := range tables {
		var count int64
		if err := s.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			return nil, apperrors.NewStorageError("failed to count table rows", err).
				WithContext("table", table)
		}
		stats = append(stats, domain.TableStats{TableName: table, RowCount: count})
	}

	return stats, nil
}
