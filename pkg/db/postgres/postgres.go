package postgres

import (
	"context"
	"fmt"

	"github.com/exaring/otelpgx"
	pgxuuid "github.com/jackc/pgx-gofrs-uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolConfigOption func(cfg *pgxpool.Config)

func WithTracer(tracer pgx.QueryTracer) PoolConfigOption {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.Tracer = tracer
	}
}

func WithMaxConns(n int32) PoolConfigOption {
	return func(cfg *pgxpool.Config) {
		if n > 0 {
			cfg.MaxConns = n
		}
	}
}

// InitWithURL creates a pool and checks the connection.
func InitWithURL(ctx context.Context, url string, opts ...PoolConfigOption) (
	*pgxpool.Pool, error,
) {
	dbConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	dbConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}
	for _, opt := range opts {
		opt(dbConfig)
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create the database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to get a valid database connection: %w", err)
	}
	return pool, nil
}

func NewOtlpTracer() pgx.QueryTracer {
	return otelpgx.NewTracer(otelpgx.WithIncludeQueryParameters())
}
