package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

// ProfileService owns profiles and ties them to their links and layout.
// identity and avatars may be nil when Supabase is not configured.
type ProfileService struct {
	profiles ports.ProfileRepository
	links    ports.LinkRepository
	layout   *LayoutService
	identity ports.IdentityProvider
	avatars  ports.AvatarStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewProfileService(
	profiles ports.ProfileRepository,
	links ports.LinkRepository,
	layout *LayoutService,
	identity ports.IdentityProvider,
	avatars ports.AvatarStore,
	logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		links:    links,
		layout:   layout,
		identity: identity,
		avatars:  avatars,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CheckPublicLink reports whether publicLink is still free.
func (s *ProfileService) CheckPublicLink(ctx context.Context, publicLink string) (bool, error) {
	publicLink = strings.ToLower(strings.TrimSpace(publicLink))
	if err := validatePublicLink(publicLink); err != nil {
		return false, err
	}
	taken, err := s.profiles.PublicLinkTaken(ctx, publicLink)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// CreateProfile creates the caller's profile and its default layout. A user
// has at most one profile.
func (s *ProfileService) CreateProfile(ctx context.Context, userID, publicLink, displayName string) (*domain.Profile, error) {
	publicLink = domain.NormalizePublicLink(publicLink)
	if err := validatePublicLink(publicLink); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName != "" {
		if err := checkLength("display name", displayName, 3, 100); err != nil {
			return nil, err
		}
	}

	if _, err := s.profiles.GetByUserID(ctx, userID); err == nil {
		return nil, fmt.Errorf("profile for user: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	profile := &domain.Profile{
		ID:          uuid.NewString(),
		UserID:      userID,
		PublicLink:  publicLink,
		DisplayName: displayName,
		Theme:       domain.DefaultTheme,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}

	if _, err := s.layout.InitializeLayout(ctx, profile.ID); err != nil {
		if delErr := s.profiles.Delete(ctx, profile.ID); delErr != nil {
			s.logger.Error("Failed to roll back profile without layout",
				zap.String("profile_id", profile.ID),
				zap.Error(delErr),
			)
		}
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

// GetPublicPage loads a profile with its ordered links and visible blocks.
func (s *ProfileService) GetPublicPage(ctx context.Context, publicLink string) (*domain.PublicPage, error) {
	profile, err := s.profiles.GetByPublicLink(ctx, strings.ToLower(strings.TrimSpace(publicLink)))
	if err != nil {
		return nil, err
	}

	links, err := s.links.ListByOwner(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.layout.ListLayout(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	visible := make([]domain.LayoutBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Visible {
			visible = append(visible, b)
		}
	}

	return &domain.PublicPage{Profile: *profile, Links: links, Layout: visible}, nil
}

// UpdateProfile applies the non-nil fields of update. A new avatar is
// uploaded before anything is written.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, update ports.ProfileUpdate) (*domain.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.PublicLink != nil {
		link := domain.NormalizePublicLink(*update.PublicLink)
		if err := validatePublicLink(link); err != nil {
			return nil, err
		}
		if link != profile.PublicLink {
			taken, err := s.profiles.PublicLinkTaken(ctx, link)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, fmt.Errorf("public link %q: %w", link, domain.ErrConflict)
			}
			profile.PublicLink = link
		}
	}
	if update.DisplayName != nil {
		name := strings.TrimSpace(*update.DisplayName)
		if err := checkLength("display name", name, 3, 100); err != nil {
			return nil, err
		}
		profile.DisplayName = name
	}
	if update.Bio != nil {
		bio := strings.TrimSpace(*update.Bio)
		if err := checkLength("bio", bio, 3, 300); err != nil {
			return nil, err
		}
		profile.Bio = bio
	}

	if update.Avatar != nil {
		if s.avatars == nil {
			return nil, fmt.Errorf("avatar upload: %w: no avatar store configured", domain.ErrStorageUnavailable)
		}
		url, err := s.avatars.Upload(ctx, userID, update.Avatar.Filename, update.Avatar.ContentType, update.Avatar.Data)
		if err != nil {
			return nil, err
		}
		profile.AvatarURL = url
	}

	profile.UpdatedAt = s.now()
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) UpdateTheme(ctx context.Context, userID string, theme domain.Theme) (*domain.Profile, error) {
	if strings.TrimSpace(theme.ThemeID) == "" {
		return nil, fmt.Errorf("%w: theme id is required", domain.ErrValidation)
	}
	if theme.AvatarRadius < 0 || theme.AvatarRadius > 100 || theme.ButtonRadius < 0 || theme.ButtonRadius > 100 {
		return nil, fmt.Errorf("%w: radius must be between 0 and 100", domain.ErrValidation)
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Theme = theme
	profile.UpdatedAt = s.now()

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// DeleteAccount drops the caller's profile data, then the account at the
// identity provider. A caller without a profile only loses the account.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID string) error {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		if err := s.profiles.Delete(ctx, profile.ID); err != nil {
			return err
		}
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	if s.identity == nil {
		s.logger.Warn("No identity provider configured, account kept", zap.String("user_id", userID))
		return nil
	}
	return s.identity.DeleteUser(ctx, userID)
}

func validatePublicLink(link string) error {
	if err := checkLength("public link", link, 3, 100); err != nil {
		return err
	}
	for _, r := range link {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return fmt.Errorf("%w: public link must be alphanumeric", domain.ErrValidation)
		}
	}
	return nil
}

func checkLength(field, v string, min, max int) error {
	if n := len([]rune(v)); n < min || n > max {
		return fmt.Errorf("%w: %s must be %d-%d characters", domain.ErrValidation, field, min, max)
	}
	return nil
}

var _ ports.ProfileService = (*ProfileService)(nil)
