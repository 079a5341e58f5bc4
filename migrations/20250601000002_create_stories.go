package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS stories (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users (id),
				title TEXT NOT NULL,
				content TEXT NOT NULL,
				image TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'generating',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_stories_user_created
				ON stories (user_id, created_at DESC);
		`)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS stories;`)
		return err
	})
}
