package ports

import (
	"context"
	"io"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/core/ordering"
)

// OrderedCollection is the positional view of one table of owner-scoped
// items.
type OrderedCollection interface {
	// Positions returns the owner's slots sorted by position. An owner
	// with no items yields an empty slice.
	Positions(ctx context.Context, ownerID string) ([]ordering.Slot, error)
	// ApplyPositions writes every slot of plan in one transaction. A slot
	// that does not belong to ownerID aborts the whole write with
	// domain.ErrInvalidReference.
	ApplyPositions(ctx context.Context, ownerID string, plan []ordering.Slot) error
}

// LinkRepository defines storage operations for links
type LinkRepository interface {
	OrderedCollection

	Create(ctx context.Context, link *domain.Link) error
	GetByID(ctx context.Context, id string) (*domain.Link, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Link, error)
	Update(ctx context.Context, link *domain.Link) error
	Delete(ctx context.Context, ownerID, id string) error // no renumbering

	// Clicks
	RecordClick(ctx context.Context, click *domain.Click) error
}

// LayoutRepository defines storage operations for layout blocks
type LayoutRepository interface {
	OrderedCollection

	CreateBatch(ctx context.Context, blocks []domain.LayoutBlock) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.LayoutBlock, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.LayoutBlock, error)
	Update(ctx context.Context, block *domain.LayoutBlock) error
}

// ProfileRepository defines storage operations for profiles
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	GetByPublicLink(ctx context.Context, publicLink string) (*domain.Profile, error)
	PublicLinkTaken(ctx context.Context, publicLink string) (bool, error)
	Update(ctx context.Context, profile *domain.Profile) error
	Delete(ctx context.Context, id string) error // also drops links, layout and clicks
}

// OwnerLocker serializes mutations of one owner's collections.
type OwnerLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// CollectionMetrics counts collection writes.
type CollectionMetrics interface {
	ItemCreated(collection string)
	Reordered(collection, result string)
}

// IdentityProvider verifies access tokens and manages accounts.
type IdentityProvider interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
	DeleteUser(ctx context.Context, userID string) error
}

// AvatarStore keeps profile pictures and hands out public URLs.
type AvatarStore interface {
	Upload(ctx context.Context, userID, filename, contentType string, data io.Reader) (string, error)
}

// LinkService defines the business logic for a profile's links
type LinkService interface {
	CreateLink(ctx context.Context, ownerID, title, url string) (*domain.Link, error)
	ListLinks(ctx context.Context, ownerID string) ([]domain.Link, error)
	UpdateLink(ctx context.Context, ownerID, id, title, url string) (*domain.Link, error)
	DeleteLink(ctx context.Context, ownerID, id string) error
	ReorderLinks(ctx context.Context, ownerID string, ids []string) ([]domain.Link, error)
	RecordClick(ctx context.Context, linkID, referer, userAgent, ip string) error
}

// LayoutService defines the business logic for a profile's layout blocks
type LayoutService interface {
	InitializeLayout(ctx context.Context, ownerID string) ([]domain.LayoutBlock, error)
	ListLayout(ctx context.Context, ownerID string) ([]domain.LayoutBlock, error)
	ReorderLayout(ctx context.Context, ownerID string, ids []string) ([]domain.LayoutBlock, error)
	UpdateBlock(ctx context.Context, ownerID, id string, visible *bool, alignment *domain.Alignment) (*domain.LayoutBlock, error)
}

// ProfileService defines the business logic for profiles
type ProfileService interface {
	CheckPublicLink(ctx context.Context, publicLink string) (bool, error)
	CreateProfile(ctx context.Context, userID, publicLink, displayName string) (*domain.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	GetPublicPage(ctx context.Context, publicLink string) (*domain.PublicPage, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*domain.Profile, error)
	UpdateTheme(ctx context.Context, userID string, theme domain.Theme) (*domain.Profile, error)
	DeleteAccount(ctx context.Context, userID string) error
}

// ProfileUpdate carries the optional fields of a profile edit. Nil fields
// are left as they are.
type ProfileUpdate struct {
	PublicLink  *string
	DisplayName *string
	Bio         *string
	Avatar      *AvatarUpload
}

// AvatarUpload is a picture sent along with a profile edit.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}
