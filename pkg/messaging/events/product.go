package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/google/uuid"
)

type ProductCreatedEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     string    `json:"price"`
	HasImage  bool      `json:"has_image"`
	CreatedAt time.Time `json:"created_at"`
}

func (e ProductCreatedEvent) Subject() string {
	return messaging.ProductCreatedSubject
}

func (e ProductCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type ProductFeaturedToggledEvent struct {
	ProductID  uuid.UUID `json:"product_id"`
	IsFeatured bool      `json:"is_featured"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (e ProductFeaturedToggledEvent) Subject() string {
	return messaging.ProductFeaturedToggledSubject
}

func (e ProductFeaturedToggledEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type ProductDeletedEvent struct {
	ProductID   uuid.UUID `json:"product_id"`
	WasFeatured bool      `json:"was_featured"`
	DeletedAt   time.Time `json:"deleted_at"`
}

func (e ProductDeletedEvent) Subject() string {
	return messaging.ProductDeletedSubject
}

func (e ProductDeletedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
