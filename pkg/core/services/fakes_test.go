package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/core/ordering"
)

type memLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMemLocker() *memLocker {
	return &memLocker{locks: map[string]*sync.Mutex{}}
}

func (l *memLocker) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock, nil
}

type countingMetrics struct {
	mu       sync.Mutex
	created  map[string]int
	reorders map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{created: map[string]int{}, reorders: map[string]int{}}
}

func (m *countingMetrics) ItemCreated(c string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created[c]++
}

func (m *countingMetrics) Reordered(c, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reorders[c+":"+result]++
}

// positioned is the part of an item the fake collection needs.
type positioned interface {
	owner() string
	position() int
	setPosition(int)
}

// memCollection is an in-memory OrderedCollection over any item type.
type memCollection[T positioned] struct {
	mu      sync.Mutex
	items   map[string]T
	failing bool
	writes  int
}

func newMemCollection[T positioned]() *memCollection[T] {
	return &memCollection[T]{items: map[string]T{}}
}

func (c *memCollection[T]) Positions(_ context.Context, ownerID string) ([]ordering.Slot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return nil, fmt.Errorf("read: %w", domain.ErrStorageUnavailable)
	}
	slots := []ordering.Slot{}
	for id, it := range c.items {
		if it.owner() == ownerID {
			slots = append(slots, ordering.Slot{ID: id, Position: it.position()})
		}
	}
	ordering.Sort(slots)
	return slots, nil
}

func (c *memCollection[T]) ApplyPositions(_ context.Context, ownerID string, plan []ordering.Slot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return fmt.Errorf("write: %w", domain.ErrStorageUnavailable)
	}
	for _, s := range plan {
		it, ok := c.items[s.ID]
		if !ok || it.owner() != ownerID {
			return fmt.Errorf("%w: %s", domain.ErrInvalidReference, s.ID)
		}
	}
	for _, s := range plan {
		c.items[s.ID].setPosition(s.Position)
	}
	c.writes++
	return nil
}

func (c *memCollection[T]) sorted(ownerID string) []T {
	out := []T{}
	for _, it := range c.items {
		if it.owner() == ownerID {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].position() < out[j].position() })
	return out
}

type linkItem struct{ domain.Link }

func (l *linkItem) owner() string     { return l.OwnerID }
func (l *linkItem) position() int      { return l.Position }
func (l *linkItem) setPosition(p int) { l.Position = p }

type memLinks struct {
	*memCollection[*linkItem]
	clicks []domain.Click
}

func newMemLinks() *memLinks {
	return &memLinks{memCollection: newMemCollection[*linkItem]()}
}

func (r *memLinks) Create(_ context.Context, link *domain.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return fmt.Errorf("insert: %w", domain.ErrStorageUnavailable)
	}
	r.items[link.ID] = &linkItem{*link}
	return nil
}

func (r *memLinks) GetByID(_ context.Context, id string) (*domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	l := it.Link
	return &l, nil
}

func (r *memLinks) ListByOwner(_ context.Context, ownerID string) ([]domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Link{}
	for _, it := range r.sorted(ownerID) {
		out = append(out, it.Link)
	}
	return out, nil
}

func (r *memLinks) Update(_ context.Context, link *domain.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[link.ID]
	if !ok || it.OwnerID != link.OwnerID {
		return domain.ErrNotFound
	}
	it.Title, it.URL, it.UpdatedAt = link.Title, link.URL, link.UpdatedAt
	return nil
}

func (r *memLinks) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memLinks) RecordClick(_ context.Context, click *domain.Click) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[click.LinkID]
	if !ok {
		return domain.ErrNotFound
	}
	it.Clicks++
	r.clicks = append(r.clicks, *click)
	return nil
}

type blockItem struct{ domain.LayoutBlock }

func (b *blockItem) owner() string     { return b.OwnerID }
func (b *blockItem) position() int      { return b.Position }
func (b *blockItem) setPosition(p int) { b.Position = p }

type memLayout struct {
	*memCollection[*blockItem]
}

func newMemLayout() *memLayout {
	return &memLayout{memCollection: newMemCollection[*blockItem]()}
}

func (r *memLayout) CreateBatch(_ context.Context, blocks []domain.LayoutBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return fmt.Errorf("insert: %w", domain.ErrStorageUnavailable)
	}
	for _, b := range blocks {
		r.items[b.ID] = &blockItem{b}
	}
	return nil
}

func (r *memLayout) GetByID(_ context.Context, ownerID, id string) (*domain.LayoutBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	b := it.LayoutBlock
	return &b, nil
}

func (r *memLayout) ListByOwner(_ context.Context, ownerID string) ([]domain.LayoutBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return nil, fmt.Errorf("read: %w", domain.ErrStorageUnavailable)
	}
	out := []domain.LayoutBlock{}
	for _, it := range r.sorted(ownerID) {
		out = append(out, it.LayoutBlock)
	}
	return out, nil
}

func (r *memLayout) Update(_ context.Context, block *domain.LayoutBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[block.ID]
	if !ok || it.OwnerID != block.OwnerID {
		return domain.ErrNotFound
	}
	it.Visible, it.Alignment, it.UpdatedAt = block.Visible, block.Alignment, block.UpdatedAt
	return nil
}

type memProfiles struct {
	mu    sync.Mutex
	items map[string]domain.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{items: map[string]domain.Profile{}}
}

func (r *memProfiles) Create(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.items {
		if o.PublicLink == p.PublicLink || o.UserID == p.UserID {
			return domain.ErrConflict
		}
	}
	r.items[p.ID] = *p
	return nil
}

func (r *memProfiles) find(match func(domain.Profile) bool) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if match(p) {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	return r.find(func(p domain.Profile) bool { return p.ID == id })
}

func (r *memProfiles) GetByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	return r.find(func(p domain.Profile) bool { return p.UserID == userID })
}

func (r *memProfiles) GetByPublicLink(_ context.Context, link string) (*domain.Profile, error) {
	return r.find(func(p domain.Profile) bool { return p.PublicLink == link })
}

func (r *memProfiles) PublicLinkTaken(ctx context.Context, link string) (bool, error) {
	_, err := r.GetByPublicLink(ctx, link)
	return err == nil, nil
}

func (r *memProfiles) Update(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.items[p.ID] = *p
	return nil
}

func (r *memProfiles) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type fakeIdentity struct {
	deleted []string
}

func (f *fakeIdentity) Verify(context.Context, string) (*domain.Identity, error) {
	return nil, domain.ErrUnauthorized
}

func (f *fakeIdentity) DeleteUser(_ context.Context, userID string) error {
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeAvatars struct {
	got string
}

func (f *fakeAvatars) Upload(_ context.Context, userID, filename, _ string, data io.Reader) (string, error) {
	b, _ := io.ReadAll(data)
	f.got = string(b)
	return "https://cdn.example.com/" + userID + "/" + filename, nil
}
