package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	fields     JSONB NOT NULL DEFAULT '{}',
	PRIMARY KEY (collection, id)
)`

// Postgres keeps documents in a single jsonb-backed table.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the given DSN and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (Fields, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx,
		`SELECT fields FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s/%s: %w", collection, id, err)
	}
	return decodeFields(raw)
}

func (p *Postgres) Set(ctx context.Context, collection, id string, fields Fields) error {
	raw, err := encodeFields(fields)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO documents (collection, id, fields) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE SET fields = EXCLUDED.fields
	`, collection, id, raw)
	if err != nil {
		return fmt.Errorf("store: set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *Postgres) MergeSet(ctx context.Context, collection, id string, fields Fields) error {
	raw, err := encodeFields(fields)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO documents (collection, id, fields) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE SET fields = documents.fields || EXCLUDED.fields
	`, collection, id, raw)
	if err != nil {
		return fmt.Errorf("store: merge set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, collection string) ([]Record, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, fields FROM documents WHERE collection = $1 ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", collection, err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Query matches documents whose named top-level field equals value, using
// jsonb containment.
func (p *Postgres) Query(ctx context.Context, collection, field string, value any) ([]Record, error) {
	probe, err := json.Marshal(map[string]any{field: value})
	if err != nil {
		return nil, fmt.Errorf("store: encode query probe: %w", err)
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id, fields FROM documents
		WHERE collection = $1 AND fields @> $2::jsonb
		ORDER BY id
	`, collection, probe)
	if err != nil {
		return nil, fmt.Errorf("store: query %s.%s: %w", collection, field, err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (p *Postgres) SetAll(ctx context.Context, collection string, docs map[string]Fields) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort on failure path

	for id, fields := range docs {
		raw, err := encodeFields(fields)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO documents (collection, id, fields) VALUES ($1, $2, $3::jsonb)
			ON CONFLICT (collection, id) DO UPDATE SET fields = EXCLUDED.fields
		`, collection, id, raw)
		if err != nil {
			return fmt.Errorf("store: batch set %s/%s: %w", collection, id, err)
		}
	}
	return tx.Commit(ctx)
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, Record{ID: id, Fields: fields})
	}
	return out, rows.Err()
}
