package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/whiteboard/internal/typeid"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS board_snapshots (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	version    INTEGER NOT NULL,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (name, version)
);
`

// Postgres keeps versioned project snapshots in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPool connects to databaseURL and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewPostgres migrates the schema and returns a store on pool.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) WriteBytes(ctx context.Context, name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		var version int32
		err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(version), 0) FROM board_snapshots WHERE name = $1`, name).Scan(&version)
		if err != nil {
			return fmt.Errorf("next version of %s: %w", name, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO board_snapshots (id, name, version, document) VALUES ($1, $2, $3, $4)`,
			typeid.NewSnapshotID(), name, version+1, data)
		if err != nil {
			return fmt.Errorf("insert snapshot of %s: %w", name, err)
		}
		return nil
	})
}

func (p *Postgres) ReadBytes(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	var data []byte
	err := p.pool.QueryRow(ctx,
		`SELECT document FROM board_snapshots WHERE name = $1 ORDER BY version DESC LIMIT 1`, name).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (p *Postgres) List(ctx context.Context) ([]Entry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT DISTINCT ON (name) name, version, octet_length(document::text), created_at
		FROM board_snapshots
		ORDER BY name, version DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var version, size int32
		if err := rows.Scan(&e.Name, &version, &size, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		e.Version, e.Size = int(version), int(size)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
