package store

import (
	"context"
	"errors"
	"fmt"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var _ ProductStore = (*PgStore)(nil)

const productColumns = `id, name, description, price::text, category, image, image_key, is_featured, created_at, updated_at`

const (
	listAllQuery          = `SELECT ` + productColumns + ` FROM products`
	findByIDQuery         = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	findByCategoryQuery   = `SELECT ` + productColumns + ` FROM products WHERE category = $1 ORDER BY created_at, id`
	findFeaturedQuery     = `SELECT ` + productColumns + ` FROM products WHERE is_featured ORDER BY created_at, id`
	sampleRandomQuery     = `SELECT id, name, description, image, price::text FROM products ORDER BY random() LIMIT $1`
	insertQuery           = `INSERT INTO products (name, description, price, category, image, image_key) VALUES ($1, $2, $3::numeric, $4, $5, $6) RETURNING ` + productColumns
	toggleIsFeaturedQuery = `UPDATE products SET is_featured = NOT is_featured, updated_at = NOW() WHERE id = $1 RETURNING ` + productColumns
	deleteByIDQuery       = `DELETE FROM products WHERE id = $1`
)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// ListAll retrieves all products.
func (p *PgStore) ListAll(ctx context.Context) ([]Product, error) {
	return p.queryProducts(ctx, "list all products", listAllQuery)
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	product, err := scanProduct(p.db.QueryRow(ctx, findByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalogerrors.ErrProductNotFound
		}
		return nil, storeFailure("find product by ID", err)
	}
	return &product, nil
}

// FindByCategory retrieves the products of a category.
func (p *PgStore) FindByCategory(ctx context.Context, category string) ([]Product, error) {
	return p.queryProducts(ctx, "find products by category", findByCategoryQuery, category)
}

// FindFeatured retrieves the featured products. Rows are scanned into fresh values.
func (p *PgStore) FindFeatured(ctx context.Context) ([]Product, error) {
	return p.queryProducts(ctx, "find featured products", findFeaturedQuery)
}

// SampleRandom retrieves up to n random products projected to display fields.
func (p *PgStore) SampleRandom(ctx context.Context, n int) ([]Recommendation, error) {
	if n <= 0 {
		return []Recommendation{}, nil
	}
	rows, err := p.db.Query(ctx, sampleRandomQuery, n)
	if err != nil {
		return nil, storeFailure("sample products", err)
	}
	sample, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Recommendation, error) {
		var r Recommendation
		var price string
		if err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Image, &price); err != nil {
			return r, err
		}
		r.Price, err = decimal.NewFromString(price)
		return r, err
	})
	if err != nil {
		return nil, storeFailure("sample products", err)
	}
	return sample, nil
}

// Insert adds a new product.
func (p *PgStore) Insert(ctx context.Context, params CreateParams) (*Product, error) {
	product, err := scanProduct(p.db.QueryRow(ctx, insertQuery,
		params.Name,
		params.Description,
		params.Price.String(),
		params.Category,
		params.Image,
		params.ImageKey,
	))
	if err != nil {
		return nil, storeFailure("insert product", err)
	}
	return &product, nil
}

// ToggleIsFeatured negates the featured flag of a product in a single statement.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) ToggleIsFeatured(ctx context.Context, id uuid.UUID) (*Product, error) {
	product, err := scanProduct(p.db.QueryRow(ctx, toggleIsFeaturedQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalogerrors.ErrProductNotFound
		}
		return nil, storeFailure("toggle featured flag", err)
	}
	return &product, nil
}

// DeleteByID deletes a product by its ID.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	tag, err := p.db.Exec(ctx, deleteByIDQuery, id)
	if err != nil {
		return storeFailure("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerrors.ErrProductNotFound
	}
	return nil
}

func (p *PgStore) queryProducts(ctx context.Context, op, query string, args ...any) ([]Product, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeFailure(op, err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, storeFailure(op, err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var product Product
	var price string
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&price,
		&product.Category,
		&product.Image,
		&product.ImageKey,
		&product.IsFeatured,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return product, err
	}
	product.Price, err = decimal.NewFromString(price)
	if err != nil {
		return product, fmt.Errorf("invalid price %q: %w", price, err)
	}
	return product, nil
}

func storeFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", catalogerrors.ErrStoreFailure, op, err)
}
