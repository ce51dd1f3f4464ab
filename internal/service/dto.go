package service

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/catalog/internal/store"
	"github.com/shopspring/decimal"
)

// ProductCreateDto represents the data transfer object for creating a new product.
// Image is an optional data URI, raw base64 or remote URL.
type ProductCreateDto struct {
	Name        string           `json:"name"        validate:"required,max=100"`
	Description string           `json:"description" validate:"required"`
	Price       *decimal.Decimal `json:"price"       validate:"required,gte=0,lt=10000000000"`
	Category    string           `json:"category"    validate:"required,max=100"`
	Image       string           `json:"image,omitempty"`
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Category    string      `json:"category"`
	Image       string      `json:"image"`
	IsFeatured  bool        `json:"isFeatured"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// RecommendationDto is the display projection of a recommended product.
type RecommendationDto struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Price       json.Number `json:"price"`
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:          product.ID.String(),
		Name:        product.Name,
		Description: product.Description,
		Price:       json.Number(product.Price.String()),
		Category:    product.Category,
		Image:       product.Image,
		IsFeatured:  product.IsFeatured,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

// toDtos never returns nil, so an empty list serializes as [].
func toDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = *toDto(&products[i])
	}
	return dtos
}

func toRecommendationDtos(sample []store.Recommendation) []RecommendationDto {
	dtos := make([]RecommendationDto, len(sample))
	for i, r := range sample {
		dtos[i] = RecommendationDto{
			ID:          r.ID.String(),
			Name:        r.Name,
			Description: r.Description,
			Image:       r.Image,
			Price:       json.Number(r.Price.String()),
		}
	}
	return dtos
}
