// Package rest provides HTTP handlers for catalog operations.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/pkg/web"
	"github.com/go-chi/chi/v5"
)

// Middleware wraps a handler.
type Middleware = func(http.Handler) http.Handler

// Gate holds the authentication middlewares placed in front of protected routes.
type Gate struct {
	// Authenticate establishes the caller identity.
	Authenticate Middleware
	// RequireAdmin rejects callers without the admin role. Runs after Authenticate.
	RequireAdmin Middleware
}

type Handler struct {
	service service.CatalogService
	logger  *slog.Logger
}

// NewHandler creates a new Handler with the provided service.
func NewHandler(service service.CatalogService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes of the catalog.
func (h *Handler) RegisterRoutes(r chi.Router, gate Gate) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/featured", h.GetFeatured)
		r.Get("/category/{category}", h.ByCategory)

		r.Group(func(r chi.Router) {
			r.Use(gate.Authenticate)
			r.Get("/recommendations", h.Recommendations)

			r.Group(func(r chi.Router) {
				r.Use(gate.RequireAdmin)
				r.Get("/", h.ListAll)
				r.Post("/", h.Create)
				r.Patch("/{id}", h.ToggleFeatured)
				r.Delete("/{id}", h.Delete)
			})
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// productsResponse wraps product lists.
type productsResponse struct {
	Products []service.ProductDto `json:"products"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// ListAll returns every product.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListAll(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to fetch products")
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, productsResponse{Products: list})
}

// GetFeatured returns the featured snapshot as stored in the cache.
func (h *Handler) GetFeatured(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.GetFeatured(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to fetch featured products")
		return
	}
	web.RespondRawJSON(w, http.StatusOK, snapshot)
}

// ByCategory returns the products of the category in the path.
func (h *Handler) ByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	list, err := h.service.ByCategory(r.Context(), category)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to fetch products")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, productsResponse{Products: list})
}

// Recommendations returns a random selection of products.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	sample, err := h.service.SampleRecommended(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to fetch recommendations")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, sample)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto service.ProductCreateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			web.RespondErrorKind(w, h.logger, http.StatusRequestEntityTooLarge, string(catalogerrors.KindValidationFailed), "Request body too large")
			return
		}
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondErrorKind(w, h.logger, http.StatusBadRequest, string(catalogerrors.KindValidationFailed), "Invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to create product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

// ToggleFeatured flips the featured flag of the product in the path.
func (h *Handler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	updated, err := h.service.ToggleFeatured(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to toggle featured product")
		return
	}
	h.logger.InfoContext(r.Context(), "Featured flag toggled", "ID", updated.ID, "isFeatured", updated.IsFeatured)
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

// Delete deletes the product in the path together with its image.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err, "Failed to delete product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	web.RespondJSON(w, h.logger, http.StatusOK, messageResponse{Message: "Product deleted successfully"})
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// respondServiceError maps err to a status code by its kind.
// Messages of server side failures are replaced with fallback.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var validationErr *catalogerrors.ValidationError
	if errors.As(err, &validationErr) {
		h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", validationErr.Fields)
		web.RespondJSON(w, h.logger, http.StatusBadRequest, map[string]any{"validation_errors": validationErr.Fields})
		return
	}

	kind := catalogerrors.KindOf(err)
	status := statusOf(kind)
	message := fallback
	switch {
	case errors.Is(err, catalogerrors.ErrNoFeaturedProducts):
		message = "No featured products found"
	case errors.Is(err, catalogerrors.ErrProductNotFound):
		message = "Product not found"
	case kind == catalogerrors.KindValidationFailed:
		message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), fallback, "kind", kind, "error", err)
	} else {
		h.logger.WarnContext(r.Context(), message, "kind", kind, "error", err)
	}
	web.RespondErrorKind(w, h.logger, status, string(kind), message)
}

func statusOf(kind catalogerrors.Kind) int {
	switch kind {
	case catalogerrors.KindNotFound:
		return http.StatusNotFound
	case catalogerrors.KindValidationFailed:
		return http.StatusBadRequest
	case catalogerrors.KindAssetStoreFailure:
		return http.StatusBadGateway
	case catalogerrors.KindCacheUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
