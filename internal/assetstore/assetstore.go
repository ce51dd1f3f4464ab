// Package assetstore uploads and deletes product images.
package assetstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultFolder is the folder product images are uploaded into.
const DefaultFolder = "products"

var (
	ErrAssetNotFound      = errors.New("asset not found")
	ErrUnsupportedPayload = errors.New("unsupported image payload")
)

// AssetReference identifies an uploaded asset.
// Locator is the public URL, Key is the store-assigned id used for deletion.
type AssetReference struct {
	Locator string
	Key     string
}

// AssetStore is an external object store for product images.
type AssetStore interface {
	// Upload stores payload, a data URI, raw base64 or a remote URL.
	Upload(ctx context.Context, payload string) (AssetReference, error)
	// Delete removes the asset. A missing key is an error.
	Delete(ctx context.Context, key string) error
}

// KeyFromLocator derives the asset key of a locator: the last path segment up
// to its first '.', prefixed with folder.
// https://host/products/abc123.jpg with folder "products" yields "products/abc123".
func KeyFromLocator(locator, folder string) string {
	if i := strings.IndexAny(locator, "?#"); i >= 0 {
		locator = locator[:i]
	}
	segment := locator[strings.LastIndex(locator, "/")+1:]
	name, _, _ := strings.Cut(segment, ".")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

func isRemoteURL(payload string) bool {
	return strings.HasPrefix(payload, "http://") || strings.HasPrefix(payload, "https://")
}

// decodePayload returns the bytes and content type of a data URI or raw base64 payload.
func decodePayload(payload string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, "", fmt.Errorf("%w: empty payload", ErrUnsupportedPayload)
	}
	contentType := ""
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, "", fmt.Errorf("%w: data URI must be base64 encoded", ErrUnsupportedPayload)
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		payload = data
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrUnsupportedPayload, err)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

func extensionFor(contentType string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	return ".bin"
}
