// Package migrations holds the PostgreSQL schema. Every file is idempotent and
// is applied in name order at startup or via `aura migrate`.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"aura-finance/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed *.sql
var files embed.FS

// lockKey serializes servers bootstrapping the same database.
const lockKey = 7462839

type script struct {
	name string
	sql  string
}

// scripts returns the embedded .sql files in name order.
func scripts() ([]script, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list schema files: %w", err)
	}
	sort.Strings(names)

	out := make([]script, 0, len(names))
	for _, name := range names {
		data, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		out = append(out, script{name: name, sql: string(data)})
	}
	return out, nil
}

// Apply executes every embedded .sql file against the pool while holding an
// advisory lock.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	log := logger.WithComponent("migrations")

	all, err := scripts()
	if err != nil {
		return err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", lockKey); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	defer conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", lockKey) //nolint:errcheck

	for _, s := range all {
		if _, err := conn.Exec(ctx, s.sql); err != nil {
			return fmt.Errorf("apply %s: %w", s.name, err)
		}
		log.Debug().Str("file", s.name).Msg("schema applied")
	}
	return nil
}
