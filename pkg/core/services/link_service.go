package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

const linksCollection = "links"

type LinkService struct {
	repo  ports.LinkRepository
	order *Reorderer
	now   func() time.Time
}

func NewLinkService(repo ports.LinkRepository, locker ports.OwnerLocker, metrics ports.CollectionMetrics, logger *zap.Logger) *LinkService {
	return &LinkService{
		repo:  repo,
		order: NewReorderer(linksCollection, repo, locker, metrics, logger),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateLink appends a link to the end of the owner's list.
func (s *LinkService) CreateLink(ctx context.Context, ownerID, title, rawURL string) (*domain.Link, error) {
	title, rawURL = strings.TrimSpace(title), strings.TrimSpace(rawURL)
	if err := validateLink(title, rawURL); err != nil {
		return nil, err
	}

	now := s.now()
	link := &domain.Link{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		URL:       rawURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.order.Append(ctx, ownerID, func(position int) error {
		link.Position = position
		return s.repo.Create(ctx, link)
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *LinkService) ListLinks(ctx context.Context, ownerID string) ([]domain.Link, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// UpdateLink changes title and url. The link keeps its position.
func (s *LinkService) UpdateLink(ctx context.Context, ownerID, id, title, rawURL string) (*domain.Link, error) {
	title, rawURL = strings.TrimSpace(title), strings.TrimSpace(rawURL)
	if err := validateLink(title, rawURL); err != nil {
		return nil, err
	}

	link, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	link.Title = title
	link.URL = rawURL
	link.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *LinkService) DeleteLink(ctx context.Context, ownerID, id string) error {
	return s.repo.Delete(ctx, ownerID, id)
}

// ReorderLinks applies ids as the new order and returns the resulting list.
func (s *LinkService) ReorderLinks(ctx context.Context, ownerID string, ids []string) ([]domain.Link, error) {
	if err := s.order.Reconcile(ctx, ownerID, ids); err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// NormalizeLinks rewrites the owner's link positions to 0..n-1 and reports
// how many rows moved.
func (s *LinkService) NormalizeLinks(ctx context.Context, ownerID string) (int, error) {
	return s.order.Normalize(ctx, ownerID)
}

// RecordClick stores a visit through a public link. The client address is
// only kept as a sha256 digest.
func (s *LinkService) RecordClick(ctx context.Context, linkID, referer, userAgent, ip string) error {
	click := &domain.Click{
		ID:        uuid.NewString(),
		LinkID:    linkID,
		Referer:   referer,
		UserAgent: userAgent,
		IPHash:    hashIP(ip),
		CreatedAt: s.now(),
	}
	return s.repo.RecordClick(ctx, click)
}

func (s *LinkService) owned(ctx context.Context, ownerID, id string) (*domain.Link, error) {
	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if link.OwnerID != ownerID {
		return nil, fmt.Errorf("link %q: %w", id, domain.ErrNotFound)
	}
	return link, nil
}

func validateLink(title, rawURL string) error {
	if n := len([]rune(title)); n < 3 || n > 100 {
		return fmt.Errorf("%w: title must be 3-100 characters", domain.ErrValidation)
	}
	if n := len(rawURL); n < 6 || n > 300 {
		return fmt.Errorf("%w: url must be 6-300 characters", domain.ErrValidation)
	}
	u, err := url.ParseRequestURI(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an absolute http(s) address", domain.ErrValidation)
	}
	return nil
}

func hashIP(ip string) string {
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

var _ ports.LinkService = (*LinkService)(nil)
