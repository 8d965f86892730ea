// Package supabase adapts a Supabase project (GoTrue auth and Storage) to
// the identity and avatar ports.
package supabase

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	supa "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
)

// Client is a Supabase client whose calls go through a circuit breaker.
type Client struct {
	sb         *supa.Client
	serviceKey string
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient connects with the service role key. It does not perform any
// request.
func NewClient(url, serviceKey string, logger *zap.Logger) (*Client, error) {
	sb, err := supa.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}

	c := &Client{sb: sb, serviceKey: serviceKey, logger: logger}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "supabase",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A rejected token or a missing object is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.As(err, new(*rejection))
		},
	})
	return c, nil
}

// rejection marks a 4xx answer from Supabase.
type rejection struct {
	err error
}

func (r *rejection) Error() string { return r.err.Error() }
func (r *rejection) Unwrap() error { return r.err }

// execute runs fn through the breaker. Open or half-open rejections are
// reported as ErrStorageUnavailable.
func (c *Client) execute(op string, fn func() (any, error)) (any, error) {
	res, err := c.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
	}
	return res, err
}
