package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/core/ordering"
)

const linkColumns = `id, owner_id, title, url, position, clicks, created_at, updated_at`

// LinkRepository stores the links of every profile.
type LinkRepository struct {
	s *Store
}

func (r *LinkRepository) Positions(ctx context.Context, ownerID string) ([]ordering.Slot, error) {
	return r.s.positions(ctx, "links", ownerID)
}

func (r *LinkRepository) ApplyPositions(ctx context.Context, ownerID string, plan []ordering.Slot) error {
	return r.s.applyPositions(ctx, "links", ownerID, plan)
}

func (r *LinkRepository) Create(ctx context.Context, link *domain.Link) error {
	query := r.s.q(`INSERT INTO links (` + linkColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.s.db.ExecContext(ctx, query,
		link.ID, link.OwnerID, link.Title, link.URL, link.Position, link.Clicks,
		link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		return unavailable("insert link", err)
	}
	return nil
}

func (r *LinkRepository) GetByID(ctx context.Context, id string) (*domain.Link, error) {
	query := r.s.q(`SELECT ` + linkColumns + ` FROM links WHERE id = ?`)
	link, err := scanLink(r.s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("get link", err)
	}
	return link, nil
}

// ListByOwner returns the owner's links sorted by position.
func (r *LinkRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Link, error) {
	query := r.s.q(`SELECT ` + linkColumns + ` FROM links WHERE owner_id = ? ORDER BY position ASC, id ASC`)
	rows, err := r.s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, unavailable("list links", err)
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, unavailable("scan link", err)
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list links", err)
	}
	return links, nil
}

// Update writes the payload of a link. The position is left alone.
func (r *LinkRepository) Update(ctx context.Context, link *domain.Link) error {
	query := r.s.q(`UPDATE links SET title = ?, url = ?, updated_at = ? WHERE id = ? AND owner_id = ?`)
	res, err := r.s.db.ExecContext(ctx, query, link.Title, link.URL, link.UpdatedAt, link.ID, link.OwnerID)
	if err != nil {
		return unavailable("update link", err)
	}
	return expectOne(res, "link", link.ID)
}

// Delete removes a link and its clicks. Survivors keep their positions.
func (r *LinkRepository) Delete(ctx context.Context, ownerID, id string) error {
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin delete link", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, r.s.q(`DELETE FROM links WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err != nil {
		return unavailable("delete link", err)
	}
	if err := expectOne(res, "link", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, r.s.q(`DELETE FROM link_clicks WHERE link_id = ?`), id); err != nil {
		return unavailable("delete link clicks", err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit delete link", err)
	}
	return nil
}

// RecordClick stores the click and bumps the link's counter atomically.
func (r *LinkRepository) RecordClick(ctx context.Context, click *domain.Click) error {
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin click", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, r.s.q(`UPDATE links SET clicks = clicks + 1 WHERE id = ?`), click.LinkID)
	if err != nil {
		return unavailable("count click", err)
	}
	if err := expectOne(res, "link", click.LinkID); err != nil {
		return err
	}

	query := r.s.q(`INSERT INTO link_clicks (id, link_id, referer, user_agent, ip_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err = tx.ExecContext(ctx, query,
		click.ID, click.LinkID, click.Referer, click.UserAgent, click.IPHash, click.CreatedAt,
	)
	if err != nil {
		return unavailable("insert click", err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit click", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*domain.Link, error) {
	var l domain.Link
	err := row.Scan(&l.ID, &l.OwnerID, &l.Title, &l.URL, &l.Position, &l.Clicks, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// expectOne turns a write that matched no row into ErrNotFound.
func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}
