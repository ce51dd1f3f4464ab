package rest

import (
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/abgdnv/catalog/internal/assetstore"
	"github.com/abgdnv/catalog/pkg/web"
	"github.com/go-chi/chi/v5"
)

// AssetOpener reads stored assets by key.
type AssetOpener interface {
	Open(key string) ([]byte, string, error)
}

// RegisterAssetRoutes serves assets of a local asset store under /assets/.
// The locator /assets/products/abc.png serves the asset with key products/abc.
func RegisterAssetRoutes(r chi.Router, opener AssetOpener, logger *slog.Logger) {
	logger = logger.With("component", "assets")
	r.Get("/assets/*", func(w http.ResponseWriter, r *http.Request) {
		dir, file := path.Split(chi.URLParam(r, "*"))
		name, _, _ := strings.Cut(file, ".")
		if name == "" {
			web.RespondError(w, logger, http.StatusNotFound, "Asset not found")
			return
		}
		data, contentType, err := opener.Open(dir + name)
		if err != nil {
			if assetstore.IsNotFound(err) {
				web.RespondError(w, logger, http.StatusNotFound, "Asset not found")
				return
			}
			logger.ErrorContext(r.Context(), "Error reading asset", "key", dir+name, "error", err)
			web.RespondError(w, logger, http.StatusInternalServerError, "Failed to read asset")
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})
}
