// Package errors provides the catalog error sentinels and their classification.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrNoFeaturedProducts = errors.New("no featured products found")
	ErrValidationFailed   = errors.New("validation failed")
	ErrAssetStoreFailure  = errors.New("asset store failure")
	ErrStoreFailure       = errors.New("product store failure")
	ErrCacheUnavailable   = errors.New("featured cache unavailable")
)

// Kind classifies an error for transports.
type Kind string

const (
	KindNotFound          Kind = "NotFound"
	KindValidationFailed  Kind = "ValidationFailed"
	KindAssetStoreFailure Kind = "AssetStoreFailure"
	KindStoreFailure      Kind = "StoreFailure"
	KindCacheUnavailable  Kind = "CacheUnavailable"
)

// KindOf returns the kind of the first catalog sentinel found in err's chain.
// Unclassified errors are reported as store failures.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrNoFeaturedProducts):
		return KindNotFound
	case errors.Is(err, ErrValidationFailed):
		return KindValidationFailed
	case errors.Is(err, ErrAssetStoreFailure):
		return KindAssetStoreFailure
	case errors.Is(err, ErrCacheUnavailable):
		return KindCacheUnavailable
	default:
		return KindStoreFailure
	}
}

// ValidationError lists the rejected input fields and their failed rules.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d invalid field(s)", ErrValidationFailed, len(e.Fields))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
