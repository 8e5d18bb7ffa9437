package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// users are stored as JSONB documents; seq keeps insertion order for listing.
const usersTableDDL = `
CREATE TABLE IF NOT EXISTS users (
	id         UUID PRIMARY KEY,
	seq        BIGINT GENERATED ALWAYS AS IDENTITY,
	doc        JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, usersTableDDL)
	return err
}
