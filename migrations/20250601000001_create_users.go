package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL,
				display_name TEXT NOT NULL DEFAULT '',
				credits BIGINT NOT NULL DEFAULT 0 CHECK (credits >= 0),
				is_onboarded BOOLEAN NOT NULL DEFAULT FALSE,
				stripe_customer_id TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_users_stripe_customer_id
				ON users (stripe_customer_id)
				WHERE stripe_customer_id IS NOT NULL;
		`)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS users;`)
		return err
	})
}
