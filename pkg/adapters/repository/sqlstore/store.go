// Package sqlstore persists profiles, links and layout blocks in a SQL
// database. The same queries run against SQLite (local file or libsql) and
// Postgres; only placeholders and schema differ.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store owns the connection pool and hands out one repository per table.
type Store struct {
	db      *sql.DB
	dialect dialect

	links    *LinkRepository
	layout   *LayoutRepository
	profiles *ProfileRepository
}

func newStore(db *sql.DB, d dialect) *Store {
	s := &Store{db: db, dialect: d}
	s.links = &LinkRepository{s: s}
	s.layout = &LayoutRepository{s: s}
	s.profiles = &ProfileRepository{s: s}
	return s
}

// Open picks the driver from the URL scheme: postgres:// and
// postgresql:// go to Postgres, everything else to SQLite/libsql.
func Open(ctx context.Context, dbURL string) (*Store, error) {
	if strings.HasPrefix(dbURL, "postgres://") || strings.HasPrefix(dbURL, "postgresql://") {
		return NewPostgres(ctx, dbURL)
	}
	return NewSQLite(dbURL)
}

func (s *Store) Links() *LinkRepository { return s.links }

func (s *Store) Layout() *LayoutRepository { return s.layout }

func (s *Store) Profiles() *ProfileRepository { return s.profiles }

// DB exposes the pool for tooling such as the CLI.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// q rewrites ? placeholders into $n for Postgres.
func (s *Store) q(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Ensure interface compliance
var (
	_ ports.LinkRepository    = (*LinkRepository)(nil)
	_ ports.LayoutRepository  = (*LayoutRepository)(nil)
	_ ports.ProfileRepository = (*ProfileRepository)(nil)
)
