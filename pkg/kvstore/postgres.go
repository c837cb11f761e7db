package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Postgres is a Store backed by a single kv_entries table, for
// deployments that want durable state without running Redis.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an existing database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the backing table if it does not exist yet.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv_entries (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			version    BIGINT NOT NULL DEFAULT 1,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("kvstore: migrate: %w", err)
	}
	return nil
}

// Get returns the entry stored under key, or ErrNotFound.
func (p *Postgres) Get(ctx context.Context, key string) (Entry, error) {
	var entry Entry
	err := p.db.QueryRowContext(ctx,
		`SELECT value, version FROM kv_entries WHERE key = $1`,
		key,
	).Scan(&entry.Value, &entry.Version)
	if errors.Is(err, sql.ErrNoRows) {
		observe("postgres", "get", ErrNotFound)
		return Entry{}, ErrNotFound
	}
	if err != nil {
		observe("postgres", "get", err)
		return Entry{}, fmt.Errorf("kvstore: postgres get %q: %w", key, err)
	}

	observe("postgres", "get", nil)
	return entry, nil
}

// Put writes value under key, enforcing the version check when version >= 0.
func (p *Postgres) Put(ctx context.Context, key string, value []byte, version int64) (int64, error) {
	var (
		next int64
		err  error
	)

	switch {
	case version == VersionAny:
		err = p.db.QueryRowContext(ctx, `
			INSERT INTO kv_entries (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value, version = kv_entries.version + 1, updated_at = NOW()
			RETURNING version`,
			key, string(value),
		).Scan(&next)
	case version == 0:
		err = p.db.QueryRowContext(ctx, `
			INSERT INTO kv_entries (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO NOTHING
			RETURNING version`,
			key, string(value),
		).Scan(&next)
		if errors.Is(err, sql.ErrNoRows) {
			observe("postgres", "put", ErrVersionConflict)
			return 0, ErrVersionConflict
		}
	default:
		err = p.db.QueryRowContext(ctx, `
			UPDATE kv_entries
			SET value = $2, version = version + 1, updated_at = NOW()
			WHERE key = $1 AND version = $3
			RETURNING version`,
			key, string(value), version,
		).Scan(&next)
		if errors.Is(err, sql.ErrNoRows) {
			observe("postgres", "put", ErrVersionConflict)
			return 0, ErrVersionConflict
		}
	}

	if err != nil {
		observe("postgres", "put", err)
		return 0, fmt.Errorf("kvstore: postgres put %q: %w", key, err)
	}

	observe("postgres", "put", nil)
	return next, nil
}

// Delete removes key.
func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		observe("postgres", "delete", err)
		return fmt.Errorf("kvstore: postgres delete %q: %w", key, err)
	}
	observe("postgres", "delete", nil)
	return nil
}
