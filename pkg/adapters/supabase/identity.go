package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

// IdentityProvider verifies access tokens against GoTrue.
type IdentityProvider struct {
	c *Client
}

func NewIdentityProvider(c *Client) *IdentityProvider {
	return &IdentityProvider{c: c}
}

// Verify asks GoTrue who owns token. The gotrue client takes no context, so
// ctx is only checked before the call.
func (p *IdentityProvider) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := p.c.execute("verify token", func() (any, error) {
		user, err := p.c.sb.Auth.WithToken(token).GetUser()
		if err != nil {
			return nil, classify(err)
		}
		return user, nil
	})
	if err != nil {
		if errors.As(err, new(*rejection)) {
			return nil, fmt.Errorf("verify token: %w", domain.ErrUnauthorized)
		}
		if errors.Is(err, domain.ErrStorageUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("verify token: %w: %w", domain.ErrStorageUnavailable, err)
	}

	user := res.(*types.UserResponse)
	return &domain.Identity{UserID: user.ID.String(), Email: user.Email}, nil
}

// DeleteUser removes the account from GoTrue using the service role key.
func (p *IdentityProvider) DeleteUser(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("user id %q: %w", userID, domain.ErrValidation)
	}

	_, err = p.c.execute("delete user", func() (any, error) {
		if err := p.c.sb.Auth.WithToken(p.c.serviceKey).AdminDeleteUser(types.AdminDeleteUserRequest{UserID: id}); err != nil {
			return nil, classify(err)
		}
		return nil, nil
	})
	if err != nil {
		if errors.As(err, new(*rejection)) {
			p.c.logger.Warn("Identity provider refused account deletion", zap.String("user_id", userID), zap.Error(err))
			return fmt.Errorf("delete user: %w", domain.ErrNotFound)
		}
		if errors.Is(err, domain.ErrStorageUnavailable) {
			return err
		}
		return fmt.Errorf("delete user: %w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// classify wraps 4xx answers of the gotrue client, which only reports the
// status inside the error text.
func classify(err error) error {
	if strings.Contains(err.Error(), "response status code 4") {
		return &rejection{err: err}
	}
	return err
}

var _ ports.IdentityProvider = (*IdentityProvider)(nil)
