// Package store provides the authoritative product record set.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog product as persisted by a ProductStore.
type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	// Image is the public locator of the product image, empty when absent.
	Image string
	// ImageKey is the asset store key recorded at upload, empty for rows created without it.
	ImageKey   string
	IsFeatured bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Recommendation is the display projection returned by SampleRandom.
type Recommendation struct {
	ID          uuid.UUID
	Name        string
	Description string
	Image       string
	Price       decimal.Decimal
}

// CreateParams holds the fields of a new product.
type CreateParams struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Image       string
	ImageKey    string
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
// Failures other than not-found wrap ErrStoreFailure.
type ProductStore interface {
	// ListAll returns all products in no particular order.
	ListAll(ctx context.Context) ([]Product, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByCategory returns the products whose category equals category.
	FindByCategory(ctx context.Context, category string) ([]Product, error)

	// FindFeatured returns detached copies of all featured products ordered by creation time, then id.
	FindFeatured(ctx context.Context) ([]Product, error)

	// SampleRandom returns a uniformly random subset of min(n, |store|) products.
	SampleRandom(ctx context.Context, n int) ([]Recommendation, error)

	// Insert stores a new product with a store-assigned id. New products are never featured.
	Insert(ctx context.Context, params CreateParams) (*Product, error)

	// ToggleIsFeatured atomically negates the featured flag and returns the updated product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	ToggleIsFeatured(ctx context.Context, id uuid.UUID) (*Product, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}
