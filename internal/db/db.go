package db

import (
	"context"
	"fmt"
	"strings"

	"aura-finance/internal/core"
	"aura-finance/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool connects to PostgreSQL and verifies the connection.
func NewPool(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	if connStr == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// IsPostgres reports whether url names a PostgreSQL database.
func IsPostgres(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

// SQLitePath strips the sqlite:// scheme, leaving a path or file: DSN.
func SQLitePath(url string) string {
	return strings.TrimPrefix(url, "sqlite://")
}

// OpenStore opens the store named by url: postgres:// URLs use pgx with the
// embedded schema applied, anything else is treated as a SQLite database.
func OpenStore(ctx context.Context, url string) (core.Store, error) {
	if IsPostgres(url) {
		pool, err := NewPool(ctx, url)
		if err != nil {
			return nil, err
		}
		if err := migrations.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
		return core.NewPostgresStore(pool), nil
	}
	return core.NewSQLiteStore(SQLitePath(url))
}
