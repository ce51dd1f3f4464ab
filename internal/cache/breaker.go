package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/resilience"
	"github.com/sony/gobreaker/v2"
)

var _ FeaturedCache = (*BreakerCache)(nil)

// BreakerCache guards a FeaturedCache with a circuit breaker.
// While the breaker is open calls fail fast with ErrCacheUnavailable.
type BreakerCache struct {
	next FeaturedCache
	cb   *gobreaker.CircuitBreaker[[]byte]
}

func NewBreakerCache(next FeaturedCache, cfg config.CircuitBreakerConfig, logger *slog.Logger) *BreakerCache {
	isSuccessful := func(err error) bool {
		return err == nil || errors.Is(err, ErrCacheMiss) || errors.Is(err, context.Canceled)
	}
	return &BreakerCache{
		next: next,
		cb:   resilience.NewCircuitBreaker[[]byte]("featured-cache", cfg, isSuccessful, logger),
	}
}

func (c *BreakerCache) Get(ctx context.Context) ([]byte, error) {
	data, err := c.cb.Execute(func() ([]byte, error) {
		return c.next.Get(ctx)
	})
	return data, translate(err)
}

func (c *BreakerCache) Set(ctx context.Context, snapshot []byte) error {
	_, err := c.cb.Execute(func() ([]byte, error) {
		return nil, c.next.Set(ctx, snapshot)
	})
	return translate(err)
}

func translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", catalogerrors.ErrCacheUnavailable, err)
	}
	return err
}
