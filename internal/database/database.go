// Package database runs schema migrations with goose. Migrations are
// embedded at compile time, so the binary needs no external SQL files.
package database

import (
	"context"
	"database/sql"
	"embed"

	"github.com/go-faster/errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations
var embedMigrations embed.FS

// Migrate applies all pending migrations against the given connection
// string. goose drives a database/sql connection via the pgx stdlib shim;
// the application pool itself stays native pgx.
func Migrate(ctx context.Context, connString string, log *logrus.Logger) error {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return errors.Wrap(err, "open migration connection")
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "ping database")
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return errors.Wrap(err, "apply migrations")
	}

	log.Info("database migrations applied")
	return nil
}
