package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/yigit/schoolsphere/internal/config"
	"github.com/yigit/schoolsphere/internal/pkg/logger"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// PostgresDB holds the pgx pool and a traced database/sql handle over it.
// Repositories use SQL; Pool is kept for health checks and shutdown.
type PostgresDB struct {
	Pool *pgxpool.Pool
	SQL  *sql.DB
}

// NewPostgresDB creates a new PostgreSQL connection pool
func NewPostgresDB(cfg *config.Config) (*PostgresDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.GetPostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgxpool config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime()

	poolConfig.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
		if err := conn.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("Unhealthy connection detected")
			return false
		}
		return true
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to establish database connection: %w", err)
	}

	return &PostgresDB{Pool: pool, SQL: OpenSQL(pool)}, nil
}

// OpenSQL exposes the pool through database/sql with OpenTelemetry spans and
// sqlcommenter trace context on every statement.
func OpenSQL(pool *pgxpool.Pool) *sql.DB {
	return otelsql.OpenDB(stdlib.GetPoolConnector(pool),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSQLCommenter(true),
	)
}

// Ping checks the database is reachable.
func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.SQL.PingContext(ctx)
}

// Close closing method
func (db *PostgresDB) Close() {
	if db.SQL != nil {
		_ = db.SQL.Close()
	}
	if db.Pool != nil {
		db.Pool.Close()
	}
}
