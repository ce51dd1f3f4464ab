// Package messaging defines the catalog domain events and the publisher contract.
package messaging

import (
	"context"
)

const (
	// ProductSubjects matches every catalog product event.
	ProductSubjects = "catalog.product.*"

	ProductCreatedSubject         = "catalog.product.created"
	ProductFeaturedToggledSubject = "catalog.product.featured_toggled"
	ProductDeletedSubject         = "catalog.product.deleted"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. Used when messaging is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
