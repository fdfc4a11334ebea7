package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/baseplate/backoffice/config"
)

// Migration is one schema step. Each driver gets its own DDL because column
// types differ (JSONB/TIMESTAMPTZ on Postgres, TEXT on SQLite).
type Migration struct {
	Version     string
	Description string
	Postgres    string
	SQLite      string
}

func (m Migration) statement(driver string) string {
	if driver == config.DriverSQLite {
		return m.SQLite
	}
	return m.Postgres
}

var Migrations = []Migration{
	{
		Version:     "1.0.0",
		Description: "create records table",
		Postgres: `
CREATE TABLE IF NOT EXISTS records (
    module     TEXT        NOT NULL,
    id         TEXT        NOT NULL,
    data       JSONB       NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (module, id)
);
CREATE INDEX IF NOT EXISTS idx_records_module_created ON records(module, created_at);`,
		SQLite: `
CREATE TABLE IF NOT EXISTS records (
    module     TEXT      NOT NULL,
    id         TEXT      NOT NULL,
    data       TEXT      NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (module, id)
);
CREATE INDEX IF NOT EXISTS idx_records_module_created ON records(module, created_at);`,
	},
	{
		Version:     "1.1.0",
		Description: "index records by update time",
		Postgres:    `CREATE INDEX IF NOT EXISTS idx_records_module_updated ON records(module, updated_at);`,
		SQLite:      `CREATE INDEX IF NOT EXISTS idx_records_module_updated ON records(module, updated_at);`,
	},
}

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// CurrentVersion returns the highest applied schema version, or 0.0.0 on a
// fresh database.
func (c *Client) CurrentVersion(ctx context.Context) (*semver.Version, error) {
	if _, err := c.DB.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	rows, err := c.DB.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	current := semver.MustParse("0.0.0")
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		v, err := semver.NewVersion(s)
		if err != nil {
			return nil, fmt.Errorf("invalid applied schema version %s: %w", s, err)
		}
		if v.GreaterThan(current) {
			current = v
		}
	}
	return current, rows.Err()
}

// Migrate applies every migration newer than the current version in version
// order, each inside its own transaction, and returns the versions applied.
func (c *Client) Migrate(ctx context.Context) ([]string, error) {
	return c.apply(ctx, Migrations)
}

func (c *Client) apply(ctx context.Context, migrations []Migration) ([]string, error) {
	current, err := c.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	type step struct {
		version *semver.Version
		m       Migration
	}
	steps := make([]step, 0, len(migrations))
	for _, m := range migrations {
		v, err := semver.NewVersion(m.Version)
		if err != nil {
			return nil, fmt.Errorf("invalid migration version %s: %w", m.Version, err)
		}
		steps = append(steps, step{version: v, m: m})
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].version.LessThan(steps[j].version) })

	var applied []string
	for _, s := range steps {
		if !current.LessThan(s.version) {
			continue
		}
		if err := c.applyOne(ctx, s.m); err != nil {
			return applied, err
		}
		applied = append(applied, s.m.Version)
		current = s.version
	}
	return applied, nil
}

func (c *Client) applyOne(ctx context.Context, m Migration) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, m.statement(c.Driver)); err != nil {
		return fmt.Errorf("failed to apply migration %s: %w", m.Version, err)
	}
	if _, err = tx.ExecContext(ctx, c.Rebind("INSERT INTO schema_migrations (version) VALUES ($1)"), m.Version); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
	}
	return tx.Commit()
}
