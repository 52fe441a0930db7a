// Package jobs runs periodic maintenance across every school schema.
package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

// SchemaLister returns the tenant schemas to visit.
type SchemaLister interface {
	ListSchemas(ctx context.Context) ([]string, error)
}

// SchemaChecker skips schemas that were never provisioned.
type SchemaChecker interface {
	Exists(ctx context.Context, schema string) (bool, error)
}

// RefreshTokenPurger deletes expired or revoked refresh tokens.
type RefreshTokenPurger interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// ResetTokenPurger deletes used or expired password reset tokens.
type ResetTokenPurger interface {
	DeleteExpiredTokens(ctx context.Context) (int64, error)
}

// TokenCleaner purges stale auth tokens from the public schema and each
// school schema.
type TokenCleaner struct {
	schemas SchemaLister
	checker SchemaChecker
	refresh RefreshTokenPurger
	resets  ResetTokenPurger
	logger  zerolog.Logger
}

func NewTokenCleaner(schemas SchemaLister, checker SchemaChecker, refresh RefreshTokenPurger, resets ResetTokenPurger, logger zerolog.Logger) *TokenCleaner {
	return &TokenCleaner{
		schemas: schemas,
		checker: checker,
		refresh: refresh,
		resets:  resets,
		logger:  logger,
	}
}

// Result counts the rows removed by one pass.
type Result struct {
	Schemas       int
	RefreshTokens int64
	ResetTokens   int64
}

// RunOnce visits public and then every provisioned school schema. A failing
// schema is logged and skipped.
func (c *TokenCleaner) RunOnce(ctx context.Context) (Result, error) {
	var res Result

	schemas, err := c.schemas.ListSchemas(tenancy.WithTenant(ctx, tenancy.Public()))
	if err != nil {
		return res, err
	}

	targets := []*tenancy.Tenant{tenancy.Public()}
	for _, schema := range schemas {
		exists, err := c.checker.Exists(ctx, schema)
		if err != nil {
			c.logger.Warn().Err(err).Str("schema", schema).Msg("Skipping schema")
			continue
		}
		if exists {
			targets = append(targets, &tenancy.Tenant{SchemaName: schema})
		}
	}

	for _, t := range targets {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		tctx := tenancy.WithTenant(ctx, t)

		n, err := c.refresh.CleanupExpiredTokens(tctx)
		if err != nil {
			c.logger.Warn().Err(err).Str("schema", t.SchemaName).Msg("Refresh token cleanup failed")
			continue
		}
		res.RefreshTokens += n

		n, err = c.resets.DeleteExpiredTokens(tctx)
		if err != nil {
			c.logger.Warn().Err(err).Str("schema", t.SchemaName).Msg("Password reset token cleanup failed")
			continue
		}
		res.ResetTokens += n
		res.Schemas++
	}

	c.logger.Info().
		Int("schemas", res.Schemas).
		Int64("refresh_tokens", res.RefreshTokens).
		Int64("reset_tokens", res.ResetTokens).
		Msg("Token cleanup finished")
	return res, nil
}

// Start runs a pass every interval until ctx is cancelled.
func (c *TokenCleaner) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.RunOnce(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("Token cleanup pass failed")
			}
		}
	}
}
