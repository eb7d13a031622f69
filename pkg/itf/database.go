// Package itf holds integration test fixtures that need a live Postgres.
package itf

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const (
	maxDBNameLength  = 63
	hashSuffixLength = 9
)

var dbNameReplacer = strings.NewReplacer(
	"/", "_", " ", "_", "-", "_", ".", "_", "(", "_", ")", "_", "[", "_", "]", "_",
)

func sanitizeDBName(name string) string {
	sanitized := dbNameReplacer.Replace(strings.ToLower(name))
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "test_db"
	}
	if len(sanitized) <= maxDBNameLength {
		return sanitized
	}

	sum := sha256.Sum256([]byte(name))
	prefix := strings.TrimRight(sanitized[:maxDBNameLength-hashSuffixLength], "_")
	return fmt.Sprintf("%s_%x", prefix, sum[:4])
}

// CreateDB drops and recreates a database named after name on the server
// behind adminURL and returns a URL pointing at it. The database is dropped
// again when the test ends.
func CreateDB(tb testing.TB, adminURL, name string) string {
	tb.Helper()

	dbName := sanitizeDBName(name)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, adminURL)
	require.NoError(tb, err)
	defer func() { _ = conn.Close(context.Background()) }()

	ident := pgx.Identifier{dbName}.Sanitize()
	_, err = conn.Exec(ctx, "DROP DATABASE IF EXISTS "+ident)
	require.NoError(tb, err)
	_, err = conn.Exec(ctx, "CREATE DATABASE "+ident)
	require.NoError(tb, err)

	tb.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c, err := pgx.Connect(ctx, adminURL)
		if err != nil {
			tb.Logf("drop %s: %v", dbName, err)
			return
		}
		defer func() { _ = c.Close(context.Background()) }()
		if _, err := c.Exec(ctx, "DROP DATABASE IF EXISTS "+ident+" WITH (FORCE)"); err != nil {
			tb.Logf("drop %s: %v", dbName, err)
		}
	})

	u, err := url.Parse(adminURL)
	require.NoError(tb, err)
	u.Path = "/" + dbName
	return u.String()
}

// NewPool opens a small pool for a test and closes it on cleanup.
func NewPool(tb testing.TB, dsn string) *pgxpool.Pool {
	tb.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	require.NoError(tb, err)
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	require.NoError(tb, err)
	tb.Cleanup(pool.Close)
	return pool
}
