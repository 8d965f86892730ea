package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

const layoutCollection = "layout"

type LayoutService struct {
	repo  ports.LayoutRepository
	order *Reorderer
	now   func() time.Time
}

func NewLayoutService(repo ports.LayoutRepository, locker ports.OwnerLocker, metrics ports.CollectionMetrics, logger *zap.Logger) *LayoutService {
	return &LayoutService{
		repo:  repo,
		order: NewReorderer(layoutCollection, repo, locker, metrics, logger),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// InitializeLayout creates the default blocks at positions 0..4. An owner
// that already has blocks keeps them.
func (s *LayoutService) InitializeLayout(ctx context.Context, ownerID string) ([]domain.LayoutBlock, error) {
	unlock, err := s.order.lock(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	now := s.now()
	blocks := make([]domain.LayoutBlock, len(domain.DefaultLayout))
	for i, c := range domain.DefaultLayout {
		blocks[i] = domain.LayoutBlock{
			ID:        uuid.NewString(),
			OwnerID:   ownerID,
			Component: c,
			Visible:   true,
			Alignment: domain.AlignCenter,
			Position:  i,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	if err := s.repo.CreateBatch(ctx, blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (s *LayoutService) ListLayout(ctx context.Context, ownerID string) ([]domain.LayoutBlock, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *LayoutService) ReorderLayout(ctx context.Context, ownerID string, ids []string) ([]domain.LayoutBlock, error) {
	if err := s.order.Reconcile(ctx, ownerID, ids); err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// NormalizeLayout rewrites block positions to 0..n-1.
func (s *LayoutService) NormalizeLayout(ctx context.Context, ownerID string) (int, error) {
	return s.order.Normalize(ctx, ownerID)
}

// UpdateBlock changes visibility and/or alignment. Positions are never
// touched here.
func (s *LayoutService) UpdateBlock(ctx context.Context, ownerID, id string, visible *bool, alignment *domain.Alignment) (*domain.LayoutBlock, error) {
	if alignment != nil {
		switch *alignment {
		case domain.AlignLeft, domain.AlignCenter, domain.AlignRight:
		default:
			return nil, fmt.Errorf("%w: alignment must be left, center or right", domain.ErrValidation)
		}
	}

	block, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if visible != nil {
		block.Visible = *visible
	}
	if alignment != nil {
		block.Alignment = *alignment
	}
	block.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

var _ ports.LayoutService = (*LayoutService)(nil)
