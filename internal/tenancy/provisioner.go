package tenancy

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/logger"
	"github.com/yigit/schoolsphere/internal/pkg/validation"
)

// SchemaMigrator applies the school migrations inside a schema.
type SchemaMigrator interface {
	MigrateTenant(ctx context.Context, schema string) error
}

// Provisioner creates, migrates and drops tenant schemas.
type Provisioner struct {
	db       *sql.DB
	migrator SchemaMigrator
}

func NewProvisioner(db *sql.DB, migrator SchemaMigrator) *Provisioner {
	return &Provisioner{db: db, migrator: migrator}
}

// Provision creates schema when missing and brings it to the latest migration.
// Running it again on an existing schema only applies pending files.
func (p *Provisioner) Provision(ctx context.Context, schema string) error {
	if !validation.IsSchemaName(schema) {
		return apperrors.NewValidationError("schemaName", fmt.Sprintf("invalid schema name %q", schema))
	}

	stmt := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{schema}.Sanitize())
	if _, err := p.db.ExecContext(ctx, stmt); err != nil {
		logger.Error().Err(err).Str("schema", schema).Msg("Failed to create tenant schema")
		return fmt.Errorf("failed to create schema %s: %w", schema, err)
	}

	if err := p.migrator.MigrateTenant(ctx, schema); err != nil {
		logger.Error().Err(err).Str("schema", schema).Msg("Failed to migrate tenant schema")
		return fmt.Errorf("failed to migrate schema %s: %w", schema, err)
	}

	logger.Info().Str("schema", schema).Msg("Tenant schema provisioned")
	return nil
}

// Drop removes schema and everything in it.
func (p *Provisioner) Drop(ctx context.Context, schema string) error {
	if !validation.IsSchemaName(schema) {
		return apperrors.NewValidationError("schemaName", fmt.Sprintf("invalid schema name %q", schema))
	}

	stmt := fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pgx.Identifier{schema}.Sanitize())
	if _, err := p.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to drop schema %s: %w", schema, err)
	}

	logger.Warn().Str("schema", schema).Msg("Tenant schema dropped")
	return nil
}

// Exists reports whether schema is present in the database.
func (p *Provisioner) Exists(ctx context.Context, schema string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`, schema,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check schema %s: %w", schema, err)
	}
	return exists, nil
}
