package sqlstore

import (
	"context"
	"fmt"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/core/ordering"
)

// positions reads the (id, position) pairs of one owner's rows in table.
func (s *Store) positions(ctx context.Context, table, ownerID string) ([]ordering.Slot, error) {
	query := s.q(`SELECT id, position FROM ` + table + ` WHERE owner_id = ? ORDER BY position ASC, id ASC`)
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, unavailable("read "+table+" positions", err)
	}
	defer rows.Close()

	slots := []ordering.Slot{}
	for rows.Next() {
		var slot ordering.Slot
		if err := rows.Scan(&slot.ID, &slot.Position); err != nil {
			return nil, unavailable("scan "+table+" position", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read "+table+" positions", err)
	}
	return slots, nil
}

// applyPositions writes plan in a single transaction. Every row must belong
// to ownerID; a row that matches nothing (foreign or concurrently deleted)
// rolls the whole plan back.
func (s *Store) applyPositions(ctx context.Context, table, ownerID string, plan []ordering.Slot) error {
	if len(plan) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin reorder", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.q(`UPDATE `+table+` SET position = ? WHERE id = ? AND owner_id = ?`))
	if err != nil {
		return unavailable("prepare reorder", err)
	}
	defer stmt.Close()

	for _, slot := range plan {
		res, err := stmt.ExecContext(ctx, slot.Position, slot.ID, ownerID)
		if err != nil {
			return unavailable("update "+table+" position", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return unavailable("update "+table+" position", err)
		}
		if n != 1 {
			return fmt.Errorf("%w: %s %q does not belong to owner", domain.ErrInvalidReference, table, slot.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit reorder", err)
	}
	return nil
}
