package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/core/ordering"
)

const layoutColumns = `id, owner_id, component, visible, alignment, position, created_at, updated_at`

// LayoutRepository stores the layout blocks of every profile.
type LayoutRepository struct {
	s *Store
}

func (r *LayoutRepository) Positions(ctx context.Context, ownerID string) ([]ordering.Slot, error) {
	return r.s.positions(ctx, "layout_blocks", ownerID)
}

func (r *LayoutRepository) ApplyPositions(ctx context.Context, ownerID string, plan []ordering.Slot) error {
	return r.s.applyPositions(ctx, "layout_blocks", ownerID, plan)
}

// CreateBatch inserts blocks all-or-nothing.
func (r *LayoutRepository) CreateBatch(ctx context.Context, blocks []domain.LayoutBlock) error {
	if len(blocks) == 0 {
		return nil
	}

	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin layout insert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.s.q(`INSERT INTO layout_blocks (`+layoutColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return unavailable("prepare layout insert", err)
	}
	defer stmt.Close()

	for _, b := range blocks {
		_, err := stmt.ExecContext(ctx,
			b.ID, b.OwnerID, string(b.Component), b.Visible, string(b.Alignment), b.Position,
			b.CreatedAt, b.UpdatedAt,
		)
		if err != nil {
			return unavailable("insert layout block", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit layout insert", err)
	}
	return nil
}

func (r *LayoutRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.LayoutBlock, error) {
	query := r.s.q(`SELECT ` + layoutColumns + ` FROM layout_blocks WHERE id = ? AND owner_id = ?`)
	block, err := scanBlock(r.s.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("layout block %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("get layout block", err)
	}
	return block, nil
}

func (r *LayoutRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.LayoutBlock, error) {
	query := r.s.q(`SELECT ` + layoutColumns + ` FROM layout_blocks WHERE owner_id = ? ORDER BY position ASC, id ASC`)
	rows, err := r.s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, unavailable("list layout", err)
	}
	defer rows.Close()

	blocks := []domain.LayoutBlock{}
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, unavailable("scan layout block", err)
		}
		blocks = append(blocks, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list layout", err)
	}
	return blocks, nil
}

// Update writes visibility and alignment only.
func (r *LayoutRepository) Update(ctx context.Context, block *domain.LayoutBlock) error {
	query := r.s.q(`UPDATE layout_blocks SET visible = ?, alignment = ?, updated_at = ? WHERE id = ? AND owner_id = ?`)
	res, err := r.s.db.ExecContext(ctx, query,
		block.Visible, string(block.Alignment), block.UpdatedAt, block.ID, block.OwnerID,
	)
	if err != nil {
		return unavailable("update layout block", err)
	}
	return expectOne(res, "layout block", block.ID)
}

func scanBlock(row rowScanner) (*domain.LayoutBlock, error) {
	var (
		b         domain.LayoutBlock
		component string
		alignment string
	)
	err := row.Scan(&b.ID, &b.OwnerID, &component, &b.Visible, &alignment, &b.Position, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Component = domain.Component(component)
	b.Alignment = domain.Alignment(alignment)
	return &b, nil
}
