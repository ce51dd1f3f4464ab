// Package cache holds the serialized snapshot of the featured products.
package cache

import (
	"context"
	"errors"
)

// FeaturedKey names the single cache slot that holds the featured snapshot.
const FeaturedKey = "featured_products"

// ErrCacheMiss reports an absent slot. An empty snapshot is a hit.
var ErrCacheMiss = errors.New("featured cache miss")

// FeaturedCache stores one serialized snapshot with no expiry.
// Backend failures wrap errors.ErrCacheUnavailable.
type FeaturedCache interface {
	// Get returns the current snapshot or ErrCacheMiss.
	Get(ctx context.Context) ([]byte, error)
	// Set replaces the snapshot unconditionally.
	Set(ctx context.Context, snapshot []byte) error
}
