package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
)

const profileColumns = `id, user_id, public_link, display_name, bio, avatar_url,
	theme_id, background_color, text_color, button_color, avatar_radius, button_radius,
	created_at, updated_at`

// ProfileRepository stores profiles. A profile's id is the owner id of its
// links and layout blocks.
type ProfileRepository struct {
	s *Store
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	query := r.s.q(`INSERT INTO profiles (` + profileColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.s.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.PublicLink, p.DisplayName, p.Bio, p.AvatarURL,
		p.Theme.ThemeID, p.Theme.BackgroundColor, p.Theme.TextColor, p.Theme.ButtonColor,
		p.Theme.AvatarRadius, p.Theme.ButtonRadius,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("profile %q: %w", p.PublicLink, domain.ErrConflict)
		}
		return unavailable("insert profile", err)
	}
	return nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return r.getBy(ctx, "id", id)
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	return r.getBy(ctx, "user_id", userID)
}

func (r *ProfileRepository) GetByPublicLink(ctx context.Context, publicLink string) (*domain.Profile, error) {
	return r.getBy(ctx, "public_link", publicLink)
}

func (r *ProfileRepository) getBy(ctx context.Context, column, value string) (*domain.Profile, error) {
	query := r.s.q(`SELECT ` + profileColumns + ` FROM profiles WHERE ` + column + ` = ?`)

	var p domain.Profile
	err := r.s.db.QueryRowContext(ctx, query, value).Scan(
		&p.ID, &p.UserID, &p.PublicLink, &p.DisplayName, &p.Bio, &p.AvatarURL,
		&p.Theme.ThemeID, &p.Theme.BackgroundColor, &p.Theme.TextColor, &p.Theme.ButtonColor,
		&p.Theme.AvatarRadius, &p.Theme.ButtonRadius,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("get profile", err)
	}
	return &p, nil
}

func (r *ProfileRepository) PublicLinkTaken(ctx context.Context, publicLink string) (bool, error) {
	var n int
	err := r.s.db.QueryRowContext(ctx, r.s.q(`SELECT COUNT(*) FROM profiles WHERE public_link = ?`), publicLink).Scan(&n)
	if err != nil {
		return false, unavailable("check public link", err)
	}
	return n > 0, nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *domain.Profile) error {
	query := r.s.q(`UPDATE profiles SET public_link = ?, display_name = ?, bio = ?, avatar_url = ?,
		theme_id = ?, background_color = ?, text_color = ?, button_color = ?,
		avatar_radius = ?, button_radius = ?, updated_at = ?
		WHERE id = ?`)
	res, err := r.s.db.ExecContext(ctx, query,
		p.PublicLink, p.DisplayName, p.Bio, p.AvatarURL,
		p.Theme.ThemeID, p.Theme.BackgroundColor, p.Theme.TextColor, p.Theme.ButtonColor,
		p.Theme.AvatarRadius, p.Theme.ButtonRadius, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("public link %q: %w", p.PublicLink, domain.ErrConflict)
		}
		return unavailable("update profile", err)
	}
	return expectOne(res, "profile", p.ID)
}

// Delete drops the profile together with its links, clicks and layout.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin delete profile", err)
	}
	defer tx.Rollback()

	cascade := []string{
		`DELETE FROM link_clicks WHERE link_id IN (SELECT id FROM links WHERE owner_id = ?)`,
		`DELETE FROM links WHERE owner_id = ?`,
		`DELETE FROM layout_blocks WHERE owner_id = ?`,
	}
	for _, stmt := range cascade {
		if _, err := tx.ExecContext(ctx, r.s.q(stmt), id); err != nil {
			return unavailable("delete profile data", err)
		}
	}

	res, err := tx.ExecContext(ctx, r.s.q(`DELETE FROM profiles WHERE id = ?`), id)
	if err != nil {
		return unavailable("delete profile", err)
	}
	if err := expectOne(res, "profile", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit delete profile", err)
	}
	return nil
}
