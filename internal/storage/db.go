package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgGet    = `SELECT value FROM kv WHERE key = $1`
	pgDelete = `DELETE FROM kv WHERE key = $1`
	pgUpsert = `INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
)

// DB is the postgres KV backend. The kv table comes from migrations/.
type DB struct {
	Pool *pgxpool.Pool
}

// New connects a pool to dsn and checks it is reachable.
func New(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	switch err := db.Pool.QueryRow(ctx, pgGet, key).Scan(&value); {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrKeyNotFound
	case err != nil:
		return nil, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return value, nil
}

func (db *DB) Set(ctx context.Context, key string, value []byte) error {
	if _, err := db.Pool.Exec(ctx, pgUpsert, key, value); err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.Pool.Exec(ctx, pgDelete, key); err != nil {
		return fmt.Errorf("postgres delete %s: %w", key, err)
	}
	return nil
}

func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

// RunMigrations brings the schema in dir up to date. No pending migrations
// is not an error.
func RunMigrations(dsn, dir string) error {
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return fmt.Errorf("opening migrations in %s: %w", dir, err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
