package db

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"autoapply/migrations"
)

// pipelineRunLockKey is the advisory lock key serializing pipeline runs.
// Arbitrary but fixed; all processes sharing the database contend on it.
const pipelineRunLockKey = 7441_2209

// DB wraps a pgxpool connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// RunMigrations runs all embedded SQL migrations.
func (d *DB) RunMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

// Close closes the connection pool.
func (d *DB) Close() {
	d.Pool.Close()
}

// AcquireRunLock tries to take the advisory lock that serializes pipeline
// runs. On success it returns a release function; ok is false when another
// run already holds the lock. The lock is session-scoped, so the acquiring
// connection is held out of the pool until release.
func (d *DB) AcquireRunLock(ctx context.Context) (release func(), ok bool, err error) {
	conn, err := d.Pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire connection for run lock: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", pipelineRunLockKey).Scan(&locked); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("failed to take run lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, false, nil
	}

	release = func() {
		// Unlock on the same session; ignore errors since releasing the
		// connection ends the session and drops the lock anyway.
		conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", pipelineRunLockKey)
		conn.Release()
	}
	return release, true, nil
}
