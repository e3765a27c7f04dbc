package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/inamate/whiteboard/internal/typeid"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS board_snapshots (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	version    INTEGER NOT NULL,
	document   BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE (name, version)
);
CREATE INDEX IF NOT EXISTS board_snapshots_name ON board_snapshots (name, version DESC);
`

// SQLite keeps every saved version of a project in an embedded database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path (":memory:" works).
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// WriteBytes stores data as the next version of name.
func (s *SQLite) WriteBytes(ctx context.Context, name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var version int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM board_snapshots WHERE name = ?`, name).Scan(&version)
	if err != nil {
		return fmt.Errorf("next version of %s: %w", name, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO board_snapshots (id, name, version, document, created_at) VALUES (?, ?, ?, ?, ?)`,
		typeid.NewSnapshotID(), name, version+1, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert snapshot of %s: %w", name, err)
	}
	return tx.Commit()
}

// ReadBytes returns the latest version of name.
func (s *SQLite) ReadBytes(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM board_snapshots WHERE name = ? ORDER BY version DESC LIMIT 1`, name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (s *SQLite) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, version, LENGTH(document), created_at
		FROM board_snapshots b
		WHERE version = (SELECT MAX(version) FROM board_snapshots WHERE name = b.name)
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&e.Name, &e.Version, &e.Size, &ms); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		e.UpdatedAt = time.UnixMilli(ms).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
