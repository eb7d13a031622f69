package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/myscheduling/seedload/pkg/configuration"
)

const connectTimeout = 10 * time.Second

func connectDB(ctx context.Context, opts *configuration.DatabaseOptions) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(opts.URL())
	if err != nil {
		return nil, fmt.Errorf("parse connection string for %s: %w", opts.Redacted(), err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("db connect failed (%s): %w", opts.Redacted(), err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db connect failed (%s): %w", opts.Redacted(), err)
	}
	return pool, nil
}
