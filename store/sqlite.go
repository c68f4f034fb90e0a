package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"reelops/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS operations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL DEFAULT 0,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	timeslot TEXT NOT NULL,
	technician_name TEXT NOT NULL,
	button_name TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_operations_created_at ON operations(created_at);
`

// SQLiteStore keeps the log in the operations table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the schema if missing.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("create operations table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, records []models.OperationRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO operations (batch_id, position, date, time, timeslot, technician_name, button_name, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.BatchID, r.Position, r.Date, r.Time, r.Timeslot,
			r.TechnicianName, r.ButtonName, r.Status, r.CreatedAt); err != nil {
			return fmt.Errorf("insert %q: %w", r.ButtonName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.OperationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, position, date, time, timeslot, technician_name, button_name, status, created_at
		FROM operations
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var records []models.OperationRecord
	for rows.Next() {
		var (
			r  models.OperationRecord
			id int64
		)
		if err := rows.Scan(&id, &r.BatchID, &r.Position, &r.Date, &r.Time, &r.Timeslot,
			&r.TechnicianName, &r.ButtonName, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		r.ID = strconv.FormatInt(id, 10)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM operations`); err != nil {
		return fmt.Errorf("delete operations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
