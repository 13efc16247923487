package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// migration is a single schema step. Statements must be valid for both
// sqlite and postgres.
type migration struct {
	Version    int
	Name       string
	Statements []string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS records (
				id                 TEXT PRIMARY KEY,
				thread_id          TEXT NOT NULL DEFAULT '',
				from_addr          TEXT NOT NULL DEFAULT '',
				subject            TEXT NOT NULL DEFAULT '',
				sent_at            BIGINT NOT NULL DEFAULT 0,
				snippet            TEXT NOT NULL DEFAULT '',
				label_ids          TEXT NOT NULL DEFAULT '[]',
				size_estimate      BIGINT NOT NULL DEFAULT 0,
				has_unsubscribe    BOOLEAN NOT NULL DEFAULT FALSE,
				unsubscribe_link   TEXT,
				rate_score         INTEGER,
				rate_calculated_at BIGINT,
				fetched_at         BIGINT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_records_sent_at ON records (sent_at)`,
			`CREATE INDEX IF NOT EXISTS idx_records_from_addr ON records (from_addr)`,
			`CREATE INDEX IF NOT EXISTS idx_records_rate_score ON records (rate_score)`,
			`CREATE TABLE IF NOT EXISTS sender_profiles (
				email        TEXT PRIMARY KEY,
				delete_count INTEGER NOT NULL DEFAULT 0,
				keep_count   INTEGER NOT NULL DEFAULT 0,
				open_count   INTEGER NOT NULL DEFAULT 0,
				total_count  INTEGER NOT NULL DEFAULT 0,
				last_seen    BIGINT NOT NULL DEFAULT 0
			)`,
			`CREATE TABLE IF NOT EXISTS metadata (
				key        TEXT PRIMARY KEY,
				value      TEXT NOT NULL DEFAULT '',
				updated_at BIGINT NOT NULL
			)`,
		},
	},
}

// MigrationRunner applies pending migrations and records them in schema_migrations.
type MigrationRunner struct {
	db         *sqlx.DB
	migrations []migration
}

func NewMigrationRunner(db *sqlx.DB) *MigrationRunner {
	return &MigrationRunner{db: db, migrations: migrations}
}

// Run applies every migration that has not been recorded yet, in order.
func (r *MigrationRunner) Run(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at BIGINT NOT NULL
		)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range r.migrations {
		applied, err := r.isApplied(ctx, m.Version)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if applied {
			continue
		}

		if err := r.apply(ctx, m); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// Applied returns the recorded migration versions in ascending order.
func (r *MigrationRunner) Applied(ctx context.Context) ([]int, error) {
	var versions []int
	err := r.db.SelectContext(ctx, &versions, "SELECT version FROM schema_migrations ORDER BY version")
	return versions, err
}

func (r *MigrationRunner) isApplied(ctx context.Context, version int) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		r.db.Rebind("SELECT COUNT(*) FROM schema_migrations WHERE version = ?"), version)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MigrationRunner) apply(ctx context.Context, m migration) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		tx.Rebind("INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)"),
		m.Version, m.Name, time.Now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	return tx.Commit()
}
