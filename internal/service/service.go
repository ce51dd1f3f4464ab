// Package service implements the catalog operations and keeps the featured
// cache coherent with the product store.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/abgdnv/catalog/internal/assetstore"
	"github.com/abgdnv/catalog/internal/cache"
	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/messaging/events"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// RecommendationSampleSize is the number of products returned by SampleRecommended.
const RecommendationSampleSize = 4

const instrumentationName = "github.com/abgdnv/catalog/internal/service"

// CatalogService defines the catalog operations.
// Callers are authenticated and authorized before reaching it.
type CatalogService interface {
	// ListAll returns every product.
	ListAll(ctx context.Context) ([]ProductDto, error)

	// GetFeatured returns the serialized featured snapshot, reading through the cache.
	// Returns ErrNoFeaturedProducts when no product is featured.
	GetFeatured(ctx context.Context) ([]byte, error)

	// ByCategory returns the products of a category.
	ByCategory(ctx context.Context, category string) ([]ProductDto, error)

	// SampleRecommended returns up to RecommendationSampleSize random products.
	SampleRecommended(ctx context.Context) ([]RecommendationDto, error)

	// Create validates and stores a new product, uploading its image first.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// ToggleFeatured flips the featured flag and rebuilds the featured cache.
	// Returns ErrProductNotFound if no product exists with the given ID.
	ToggleFeatured(ctx context.Context, id uuid.UUID) (*ProductDto, error)

	// Delete removes the product image, then the product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ CatalogService = (*Service)(nil)

// Service implements CatalogService.
type Service struct {
	store     store.ProductStore
	cache     cache.FeaturedCache
	assets    assetstore.AssetStore
	publisher messaging.Publisher
	validate  *validator.Validate
	logger    *slog.Logger

	assetFolder string
	fill        singleflight.Group

	tracer       trace.Tracer
	cacheLookups metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithAssetFolder sets the folder used to derive asset keys of products stored without one.
func WithAssetFolder(folder string) Option {
	return func(s *Service) {
		s.assetFolder = folder
	}
}

// WithPublisher sets the publisher of product events. Events are dropped by default.
func WithPublisher(p messaging.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// NewService creates a new catalog service.
func NewService(productStore store.ProductStore, featuredCache cache.FeaturedCache, assets assetstore.AssetStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:       productStore,
		cache:       featuredCache,
		assets:      assets,
		publisher:   messaging.NoopPublisher{},
		validate:    newValidator(),
		logger:      logger.With("component", "catalog"),
		assetFolder: assetstore.DefaultFolder,
		tracer:      otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	counter, err := otel.Meter(instrumentationName).Int64Counter("catalog.featured_cache.lookups",
		metric.WithDescription("Featured cache lookups by result"))
	if err != nil {
		s.logger.Warn("failed to create cache lookup counter", "error", err)
	}
	s.cacheLookups = counter
	return s
}

// newValidator validates decimal amounts as floats so numeric rules apply to them.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	// prices are stored as NUMERIC(12,2)
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		dto := sl.Current().Interface().(ProductCreateDto)
		if dto.Price != nil && !dto.Price.Equal(dto.Price.Round(2)) {
			sl.ReportError(dto.Price, "Price", "Price", "scale", "2")
		}
	}, ProductCreateDto{})
	return v
}

// ListAll retrieves every product.
func (s *Service) ListAll(ctx context.Context) ([]ProductDto, error) {
	products, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return toDtos(products), nil
}

// ByCategory retrieves the products of a category.
func (s *Service) ByCategory(ctx context.Context, category string) ([]ProductDto, error) {
	products, err := s.store.FindByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products of category %q: %w", category, err)
	}
	return toDtos(products), nil
}

// GetFeatured returns the cached snapshot. On a miss the snapshot is rebuilt from
// the store and cached, unless no product is featured. A failing cache is treated
// as a miss. Concurrent misses share one store query.
func (s *Service) GetFeatured(ctx context.Context) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.GetFeatured")
	defer span.End()

	snapshot, err := s.cache.Get(ctx)
	switch {
	case err == nil:
		s.countLookup(ctx, "hit")
		return snapshot, nil
	case errors.Is(err, cache.ErrCacheMiss):
		s.countLookup(ctx, "miss")
	default:
		s.countLookup(ctx, "error")
		s.logger.WarnContext(ctx, "featured cache read failed, reading from store", "error", err)
	}

	// shared by all waiting callers, detached from this caller's cancellation
	fillCtx := context.WithoutCancel(ctx)
	ch := s.fill.DoChan(cache.FeaturedKey, func() (any, error) {
		return s.fillFeatured(fillCtx)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	span.SetAttributes(attribute.Bool("catalog.fill_shared", res.Shared))
	if res.Err != nil {
		if !errors.Is(res.Err, catalogerrors.ErrNoFeaturedProducts) {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, "featured fill failed")
		}
		return nil, res.Err
	}
	return res.Val.([]byte), nil
}

// fillFeatured loads the featured set and caches it. Empty sets are not cached.
func (s *Service) fillFeatured(ctx context.Context) ([]byte, error) {
	products, err := s.store.FindFeatured(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch featured products: %w", err)
	}
	if len(products) == 0 {
		return nil, catalogerrors.ErrNoFeaturedProducts
	}
	snapshot, err := json.Marshal(toDtos(products))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize featured products: %w", err)
	}
	if err := s.cache.Set(ctx, snapshot); err != nil {
		s.logger.WarnContext(ctx, "failed to cache featured products", "error", err)
	}
	return snapshot, nil
}

// rebuildFeatured replaces the cached snapshot with the current featured set.
// An empty set is written as [] so readers never see a removed product.
func (s *Service) rebuildFeatured(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "CatalogService.rebuildFeatured")
	defer span.End()

	products, err := s.store.FindFeatured(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to fetch featured products: %w", err)
	}
	snapshot, err := json.Marshal(toDtos(products))
	if err != nil {
		return fmt.Errorf("failed to serialize featured products: %w", err)
	}
	if err := s.cache.Set(ctx, snapshot); err != nil {
		span.RecordError(err)
		if !errors.Is(err, catalogerrors.ErrCacheUnavailable) {
			err = fmt.Errorf("%w: %w", catalogerrors.ErrCacheUnavailable, err)
		}
		return fmt.Errorf("failed to write featured snapshot: %w", err)
	}
	span.SetAttributes(attribute.Int("catalog.featured_count", len(products)))
	return nil
}

// SampleRecommended returns a random selection of products.
func (s *Service) SampleRecommended(ctx context.Context) ([]RecommendationDto, error) {
	sample, err := s.store.SampleRandom(ctx, RecommendationSampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to sample products: %w", err)
	}
	return toRecommendationDtos(sample), nil
}

// Create uploads the image, if any, and inserts the product.
// An upload failure aborts before anything is stored. An uploaded image is not
// removed again when the insert fails.
func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Create")
	defer span.End()

	if err := s.validateStruct(product); err != nil {
		return nil, err
	}

	var ref assetstore.AssetReference
	if product.Image != "" {
		var err error
		ref, err = s.assets.Upload(ctx, product.Image)
		if err != nil {
			if errors.Is(err, assetstore.ErrUnsupportedPayload) {
				return nil, &catalogerrors.ValidationError{Fields: map[string]string{"Image": "failed on rule: payload"}}
			}
			span.RecordError(err)
			return nil, fmt.Errorf("%w: failed to upload product image: %w", catalogerrors.ErrAssetStoreFailure, err)
		}
	}

	created, err := s.store.Insert(ctx, store.CreateParams{
		Name:        product.Name,
		Description: product.Description,
		Price:       *product.Price,
		Category:    product.Category,
		Image:       ref.Locator,
		ImageKey:    ref.Key,
	})
	if err != nil {
		if ref.Key != "" {
			s.logger.WarnContext(ctx, "product insert failed after image upload, asset left orphaned", "asset_key", ref.Key)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.publish(ctx, events.ProductCreatedEvent{
		ProductID: created.ID,
		Name:      created.Name,
		Category:  created.Category,
		Price:     created.Price.String(),
		HasImage:  created.Image != "",
		CreatedAt: created.CreatedAt,
	})
	return toDto(created), nil
}

// ToggleFeatured flips the featured flag of a product and rebuilds the featured cache.
// A failed rebuild is reported even though the flag change is already stored.
func (s *Service) ToggleFeatured(ctx context.Context, id uuid.UUID) (*ProductDto, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.ToggleFeatured", trace.WithAttributes(attribute.String("catalog.product_id", id.String())))
	defer span.End()

	updated, err := s.store.ToggleIsFeatured(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update featured flag of product %s: %w", id, err)
	}
	if err := s.rebuildFeatured(ctx); err != nil {
		return nil, fmt.Errorf("product %s toggled but featured cache was not rebuilt: %w", id, err)
	}

	s.publish(ctx, events.ProductFeaturedToggledEvent{
		ProductID:  updated.ID,
		IsFeatured: updated.IsFeatured,
		UpdatedAt:  updated.UpdatedAt,
	})
	return toDto(updated), nil
}

// Delete removes the product image and then the product record.
// If the image cannot be deleted the product is kept. Deleting a featured
// product rebuilds the featured cache.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Delete", trace.WithAttributes(attribute.String("catalog.product_id", id.String())))
	defer span.End()

	product, err := s.store.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}

	if product.Image != "" {
		key := product.ImageKey
		if key == "" {
			key = assetstore.KeyFromLocator(product.Image, s.assetFolder)
		}
		if err := s.assets.Delete(ctx, key); err != nil {
			span.RecordError(err)
			return fmt.Errorf("%w: failed to delete image %s of product %s: %w", catalogerrors.ErrAssetStoreFailure, key, id, err)
		}
	}

	if err := s.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}

	if product.IsFeatured {
		if err := s.rebuildFeatured(ctx); err != nil {
			return fmt.Errorf("product %s deleted but featured cache was not rebuilt: %w", id, err)
		}
	}

	s.publish(ctx, events.ProductDeletedEvent{
		ProductID:   id,
		WasFeatured: product.IsFeatured,
		DeletedAt:   time.Now().UTC(),
	})
	return nil
}

func (s *Service) validateStruct(product ProductCreateDto) error {
	err := s.validate.Struct(product)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, fieldErr := range validationErrors {
			// fieldErr.Tag() returns "required", "max", etc.
			fields[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
		}
		return &catalogerrors.ValidationError{Fields: fields}
	}
	return fmt.Errorf("%w: %w", catalogerrors.ErrValidationFailed, err)
}

// publish sends an event. Failures are logged and never fail the operation.
func (s *Service) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "subject", event.Subject(), "error", err)
	}
}

func (s *Service) countLookup(ctx context.Context, result string) {
	if s.cacheLookups == nil {
		return
	}
	s.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
