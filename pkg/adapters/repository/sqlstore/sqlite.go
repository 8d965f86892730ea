package sqlstore

import (
	"database/sql"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver
)

// NewSQLite opens a local SQLite file (or in-memory database) or, for
// libsql:// and wss:// URLs, a remote Turso database.
func NewSQLite(dbURL string) (*Store, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, unavailable("open sqlite", err)
	}
	if driverName == "sqlite" {
		// A single writer avoids SQLITE_BUSY on concurrent transactions.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, unavailable("ping sqlite", err)
	}

	if err := migrate(db, sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}

	return newStore(db, dialectSQLite), nil
}

const sqliteSchema = `
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
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS links (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL,
	position INTEGER NOT NULL,
	clicks INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_links_owner_position ON links(owner_id, position);

CREATE TABLE IF NOT EXISTS layout_blocks (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	component TEXT NOT NULL,
	visible INTEGER NOT NULL DEFAULT 1,
	alignment TEXT NOT NULL DEFAULT 'center',
	position INTEGER NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_layout_blocks_owner_position ON layout_blocks(owner_id, position);

CREATE TABLE IF NOT EXISTS link_clicks (
	id TEXT PRIMARY KEY,
	link_id TEXT NOT NULL,
	referer TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	ip_hash TEXT NOT NULL DEFAULT '',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_link_clicks_link_id ON link_clicks(link_id);
`
