// Package app wires configuration, storage, locks and services into the
// HTTP handler shared by the server binary and the serverless entrypoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/adapters/handler"
	"github.com/wadjakorntonsri/linkhub/pkg/adapters/lock"
	"github.com/wadjakorntonsri/linkhub/pkg/adapters/repository/sqlstore"
	"github.com/wadjakorntonsri/linkhub/pkg/adapters/supabase"
	"github.com/wadjakorntonsri/linkhub/pkg/config"
	"github.com/wadjakorntonsri/linkhub/pkg/core/services"
	"github.com/wadjakorntonsri/linkhub/pkg/observability"
	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

// Container holds the application's long lived dependencies.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   *sqlstore.Store
	Metrics *observability.Collector

	Links    *services.LinkService
	Layout   *services.LayoutService
	Profiles *services.ProfileService

	identity ports.IdentityProvider
	closers  []func() error
}

// NewContainer opens the store and builds every service. Redis and
// Supabase are only used when configured.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewCollector("linkhub"),
	}

	store, err := sqlstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	c.Store = store
	c.closers = append(c.closers, store.Close)

	locker, err := c.newLocker()
	if err != nil {
		c.Close()
		return nil, err
	}

	var avatars ports.AvatarStore
	if cfg.SupabaseEnabled() {
		client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("supabase client: %w", err)
		}
		c.identity = supabase.NewIdentityProvider(client)
		avatars = supabase.NewAvatarStore(client, cfg.AvatarBucket)
		logger.Info("Supabase identity and avatar storage enabled", zap.String("bucket", cfg.AvatarBucket))
	}

	c.Links = services.NewLinkService(store.Links(), locker, c.Metrics, logger)
	c.Layout = services.NewLayoutService(store.Layout(), locker, c.Metrics, logger)
	c.Profiles = services.NewProfileService(store.Profiles(), store.Links(), c.Layout, c.identity, avatars, logger)
	return c, nil
}

func (c *Container) newLocker() (ports.OwnerLocker, error) {
	if c.Config.RedisURL == "" {
		c.Logger.Info("Using in-process owner locks")
		return lock.NewLocalLocker(c.Config.LockWait), nil
	}

	locker, err := lock.NewRedisLocker(c.Config.RedisURL, c.Config.LockTTL, c.Config.LockWait, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("redis locker: %w", err)
	}
	c.closers = append(c.closers, locker.Close)
	c.Logger.Info("Using redis owner locks", zap.Duration("ttl", c.Config.LockTTL))
	return locker, nil
}

// Handler builds the HTTP router over the container's services.
func (c *Container) Handler() http.Handler {
	return handler.NewRouter(c.Config, handler.Services{
		Links:    c.Links,
		Layout:   c.Layout,
		Profiles: c.Profiles,
		Identity: c.identity,
	}, c.Metrics, c.Logger)
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}
