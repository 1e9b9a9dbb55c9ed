package main

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/noah-isme/postgrad-supervision-api/migrations"
)

func gooseMigrator(db *sql.DB) migrateFunc {
	return func(ctx context.Context, command string, args ...string) error {
		goose.SetBaseFS(migrations.FS)
		if err := goose.SetDialect("postgres"); err != nil {
			return err
		}
		return goose.RunContext(ctx, command, db, ".", args...)
	}
}
