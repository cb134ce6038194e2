package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

const createQuestionSetsSQL = `
CREATE TABLE IF NOT EXISTS question_sets (
	id       text PRIMARY KEY,
	data     jsonb NOT NULL,
	position integer NOT NULL DEFAULT 0,
	disabled boolean NOT NULL DEFAULT false
)`

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createQuestionSetsSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS question_sets`)
			return err
		},
	)
}
