package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/core/ordering"
	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

// Reorderer maintains the positions of one kind of owner-scoped collection.
// Appends and reorders of the same owner are serialized through the
// locker, so concurrent creates never mint the same position.
type Reorderer struct {
	name    string
	repo    ports.OrderedCollection
	locker  ports.OwnerLocker
	metrics ports.CollectionMetrics
	logger  *zap.Logger
}

func NewReorderer(name string, repo ports.OrderedCollection, locker ports.OwnerLocker, metrics ports.CollectionMetrics, logger *zap.Logger) *Reorderer {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Reorderer{
		name:    name,
		repo:    repo,
		locker:  locker,
		metrics: metrics,
		logger:  logger,
	}
}

func (r *Reorderer) lock(ctx context.Context, ownerID string) (func(), error) {
	return r.locker.Lock(ctx, r.name+":"+ownerID)
}

// AssignNextPosition returns max+1 over the owner's current positions, 1
// for an empty collection. It does not lock; use Append to insert.
func (r *Reorderer) AssignNextPosition(ctx context.Context, ownerID string) (int, error) {
	slots, err := r.repo.Positions(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return ordering.NextPosition(slots), nil
}

// Append assigns the next position and calls insert with it while holding
// the owner lock.
func (r *Reorderer) Append(ctx context.Context, ownerID string, insert func(position int) error) error {
	unlock, err := r.lock(ctx, ownerID)
	if err != nil {
		return err
	}
	defer unlock()

	pos, err := r.AssignNextPosition(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := insert(pos); err != nil {
		return err
	}
	r.metrics.ItemCreated(r.name)
	return nil
}

// Reconcile makes the owner's collection read back in the order of ids.
// Listed ids take positions 0..k-1; the rest follow in their prior order.
// An empty ids is a no-op. Any id the owner does not have fails the call
// with domain.ErrInvalidReference and nothing is written.
func (r *Reorderer) Reconcile(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		r.metrics.Reordered(r.name, "noop")
		return nil
	}

	err := r.reconcile(ctx, ownerID, ids)
	switch {
	case err == nil:
		r.metrics.Reordered(r.name, "ok")
	case errors.Is(err, domain.ErrInvalidReference):
		r.metrics.Reordered(r.name, "invalid")
	default:
		r.metrics.Reordered(r.name, "error")
		r.logger.Error("Reorder failed",
			zap.String("collection", r.name),
			zap.String("owner_id", ownerID),
			zap.Error(err),
		)
	}
	return err
}

func (r *Reorderer) reconcile(ctx context.Context, ownerID string, ids []string) error {
	unlock, err := r.lock(ctx, ownerID)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := r.repo.Positions(ctx, ownerID)
	if err != nil {
		return err
	}
	plan, err := ordering.Plan(current, ids)
	if err != nil {
		return fmt.Errorf("reorder %s: %w", r.name, err)
	}
	return r.repo.ApplyPositions(ctx, ownerID, ordering.Changed(current, plan))
}

// Normalize rewrites the owner's positions to 0..n-1 in their current
// order. It repairs collections that hold duplicate positions.
func (r *Reorderer) Normalize(ctx context.Context, ownerID string) (int, error) {
	unlock, err := r.lock(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	current, err := r.repo.Positions(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	changed := ordering.Changed(current, ordering.Dense(current))
	if err := r.repo.ApplyPositions(ctx, ownerID, changed); err != nil {
		return 0, err
	}
	return len(changed), nil
}

type noopMetrics struct{}

func (noopMetrics) ItemCreated(string) {}

func (noopMetrics) Reordered(string, string) {}
