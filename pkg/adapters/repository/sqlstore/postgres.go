package sqlstore

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// NewPostgres connects to a Postgres database, typically the one behind a
// Supabase project.
func NewPostgres(ctx context.Context, dbURL string) (*Store, error) {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, unavailable("open postgres", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, unavailable("ping postgres", err)
	}

	if err := migrate(db, postgresSchema); err != nil {
		db.Close()
		return nil, err
	}

	return newStore(db, dialectPostgres), nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL UNIQUE,
	public_link TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	bio TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT '',
	theme_id TEXT NOT NULL DEFAULT '',
	background_color TEXT NOT NULL DEFAULT '',
	text_color TEXT NOT NULL DEFAULT '',
	button_color TEXT NOT NULL DEFAULT '',
	avatar_radius INTEGER NOT NULL DEFAULT 0,
	button_radius INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS links (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL,
	position INTEGER NOT NULL,
	clicks BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_links_owner_position ON links(owner_id, position);

CREATE TABLE IF NOT EXISTS layout_blocks (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	component TEXT NOT NULL,
	visible BOOLEAN NOT NULL DEFAULT TRUE,
	alignment TEXT NOT NULL DEFAULT 'center',
	position INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_layout_blocks_owner_position ON layout_blocks(owner_id, position);

CREATE TABLE IF NOT EXISTS link_clicks (
	id TEXT PRIMARY KEY,
	link_id TEXT NOT NULL,
	referer TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	ip_hash TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_link_clicks_link_id ON link_clicks(link_id);
`
