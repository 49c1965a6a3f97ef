package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
)

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version bigint PRIMARY KEY,
	name varchar NOT NULL,
	applied_at timestamptz NOT NULL DEFAULT now()
)`

// ErrNoMigration is returned by Down when nothing has been applied.
var ErrNoMigration = errors.New("postgres: no applied migration")

// MigrationStatus reports whether one migration has been applied.
type MigrationStatus struct {
	Migration
	AppliedAt *time.Time
}

type Migrator struct {
	pool       *pgxpool.Pool
	migrations []Migration
	log        observability.Logger
}

// NewMigrator uses Migrations when migrations is nil.
func NewMigrator(pool *pgxpool.Pool, migrations []Migration, logger observability.Logger) *Migrator {
	if migrations == nil {
		migrations = Migrations
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Migrator{
		pool:       pool,
		migrations: sorted(migrations),
		log:        logger.With(observability.F("component", "migrator")),
	}
}

func sorted(ms []Migration) []Migration {
	out := slices.Clone(ms)
	slices.SortFunc(out, func(a, b Migration) int {
		switch {
		case a.Version < b.Version:
			return -1
		case a.Version > b.Version:
			return 1
		}
		return 0
	})
	return out
}

// Up applies every pending migration in version order and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		err := pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
			for _, stmt := range mig.Up {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
				mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return n, fmt.Errorf("postgres: migrate up %d %s: %w", mig.Version, mig.Name, err)
		}
		m.log.Info("migration_applied",
			observability.F("version", mig.Version),
			observability.F("name", mig.Name),
		)
		n++
	}
	return n, nil
}

// Down reverts the most recently applied migration.
func (m *Migrator) Down(ctx context.Context) (*Migration, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		mig := m.migrations[i]
		if _, ok := applied[mig.Version]; !ok {
			continue
		}
		err := pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
			for _, stmt := range mig.Down {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, mig.Version)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("postgres: migrate down %d %s: %w", mig.Version, mig.Name, err)
		}
		m.log.Info("migration_reverted",
			observability.F("version", mig.Version),
			observability.F("name", mig.Name),
		)
		return &mig, nil
	}
	return nil, ErrNoMigration
}

func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, 0, len(m.migrations))
	for _, mig := range m.migrations {
		st := MigrationStatus{Migration: mig}
		if at, ok := applied[mig.Version]; ok {
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

func (m *Migrator) applied(ctx context.Context) (map[int64]time.Time, error) {
	if _, err := m.pool.Exec(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("postgres: create schema_migrations: %w", err)
	}
	rows, err := m.pool.Query(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]time.Time)
	for rows.Next() {
		var v int64
		var at time.Time
		if err := rows.Scan(&v, &at); err != nil {
			return nil, fmt.Errorf("postgres: scan migration: %w", err)
		}
		out[v] = at
	}
	return out, rows.Err()
}
