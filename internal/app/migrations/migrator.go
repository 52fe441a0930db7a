package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolsphere/internal/pkg/logger"
)

//go:embed sql/public/*.sql sql/tenant/*.sql
var embedded embed.FS

const (
	publicDir = "sql/public"
	tenantDir = "sql/tenant"
)

// Migrator applies versioned SQL files to the public schema or to a tenant
// schema. Each schema keeps its own schema_migrations table.
type Migrator struct {
	db    *sql.DB
	files fs.FS
}

// NewMigrator creates a migrator over the embedded migration files
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db, files: embedded}
}

func newMigratorFS(db *sql.DB, files fs.FS) *Migrator {
	return &Migrator{db: db, files: files}
}

// MigratePublic applies the platform migrations to the public schema.
func (m *Migrator) MigratePublic(ctx context.Context) error {
	return m.migrate(ctx, "public", publicDir)
}

// MigrateTenant applies the school migrations inside schema.
func (m *Migrator) MigrateTenant(ctx context.Context, schema string) error {
	return m.migrate(ctx, schema, tenantDir)
}

func (m *Migrator) migrate(ctx context.Context, schema, dir string) error {
	if err := m.ensureMigrationTableExists(ctx, schema); err != nil {
		return err
	}

	files, err := m.listFiles(dir)
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := m.migrateFile(ctx, schema, dir, file); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) listFiles(dir string) ([]string, error) {
	entries, err := fs.ReadDir(m.files, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)
	return sqlFiles, nil
}

func migrationsTable(schema string) string {
	return pgx.Identifier{schema, "schema_migrations"}.Sanitize()
}

// ensureMigrationTableExists creates the migration tracking table if it doesn't exist
func (m *Migrator) ensureMigrationTableExists(ctx context.Context, schema string) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, migrationsTable(schema))

	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migration tracking table in %s: %w", schema, err)
	}
	return nil
}

func (m *Migrator) isMigrationApplied(ctx context.Context, schema, version string) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE version = $1)`, migrationsTable(schema))
	if err := m.db.QueryRowContext(ctx, query, version).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return exists, nil
}

// migrateFile runs one file in its own transaction with search_path pinned to schema,
// so unqualified DDL lands in the right place.
func (m *Migrator) migrateFile(ctx context.Context, schema, dir, file string) error {
	version := strings.Split(file, "_")[0]

	applied, err := m.isMigrationApplied(ctx, schema, version)
	if err != nil {
		return err
	}
	if applied {
		logger.Debug().Str("schema", schema).Str("file", file).Msg("Migration already applied, skipping")
		return nil
	}

	content, err := fs.ReadFile(m.files, path.Join(dir, file))
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	searchPath := fmt.Sprintf("SET LOCAL search_path TO %s", pgx.Identifier{schema}.Sanitize())
	if _, err := tx.ExecContext(ctx, searchPath); err != nil {
		return fmt.Errorf("failed to set search_path to %s: %w", schema, err)
	}

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("migration %s failed in schema %s: %w", file, schema, err)
	}

	record := fmt.Sprintf(`INSERT INTO %s (version, applied_at) VALUES ($1, $2)`, migrationsTable(schema))
	if _, err := tx.ExecContext(ctx, record, version, time.Now()); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Info().Str("schema", schema).Str("file", file).Msg("Migration applied")
	return nil
}
