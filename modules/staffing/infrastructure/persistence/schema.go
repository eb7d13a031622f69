package persistence

import (
	"context"
	"embed"
	"sync"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// goose keeps its base FS, dialect and logger in package globals.
var gooseMu sync.Mutex

// gooseLogger adapts a logrus logger to goose.Logger; goose's Fatalf must not
// exit the process here.
type gooseLogger struct {
	log logrus.FieldLogger
}

func (l gooseLogger) Printf(format string, v ...any) { l.log.Debugf(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...any) { l.log.Errorf(format, v...) }

// migrate applies the embedded schema. Every statement is idempotent and no
// version table is kept, so the bootstrap runs in full on every load.
func migrate(ctx context.Context, pool *pgxpool.Pool, logger logrus.FieldLogger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{log: logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}

	// The sql.DB keeps no idle connections of its own; the pool owns them.
	db := stdlib.OpenDBFromPool(pool)
	if err := goose.UpContext(ctx, db, migrationsDir, goose.WithNoVersioning()); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}
