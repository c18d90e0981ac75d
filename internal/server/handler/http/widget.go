// Package http provides HTTP handlers for widget CRUD operations.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atarasenko/widgetboard/internal/models"
	"github.com/atarasenko/widgetboard/internal/repository"
	"github.com/atarasenko/widgetboard/internal/service"
)

// WidgetService defines the interface for widget operations required by the
// WidgetHandler.
type WidgetService interface {
	// List returns all enabled widgets.
	List(ctx context.Context) ([]models.Widget, error)
	// Get returns a single widget, failing with repository.ErrNotFound when absent.
	Get(ctx context.Context, id string) (*models.Widget, error)
	// Create encrypts the API key and persists a new widget.
	Create(ctx context.Context, params service.CreateWidgetParams) (*models.Widget, error)
	// Update applies a partial update to an existing widget.
	Update(ctx context.Context, id string, params service.UpdateWidgetParams) (*models.Widget, error)
	// Delete removes the widget with the given ID.
	Delete(ctx context.Context, id string) error
	// UpdateLayouts applies layout positions in bulk.
	UpdateLayouts(ctx context.Context, updates []models.WidgetLayout) (int, error)
	// MaskedAPIKey returns the display form of the widget's API key.
	MaskedAPIKey(w *models.Widget) string
}

// WidgetHandler handles HTTP requests for widget management.
type WidgetHandler struct {
	// WidgetService performs the underlying CRUD operations.
	WidgetService WidgetService
	// Probe performs outbound calls for content fetches and API tests.
	Probe APIProbe
	// Validate checks incoming request payloads.
	Validate *validator.Validate
}

// NewWidgetHandler constructs a WidgetHandler with a ready validator.
func NewWidgetHandler(svc WidgetService, probe APIProbe) *WidgetHandler {
	return &WidgetHandler{
		WidgetService: svc,
		Probe:         probe,
		Validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
}

// CreateWidgetRequest represents the JSON payload for widget creation.
type CreateWidgetRequest struct {
	Name            string         `json:"name" validate:"required"`
	APIEndpoint     string         `json:"api_endpoint" validate:"required,url"`
	APIKey          string         `json:"api_key"`
	APIKeyHeader    string         `json:"api_key_header"`
	RequestBody     string         `json:"request_body"`
	ResponseURLPath string         `json:"response_url_path"`
	ContentURL      string         `json:"content_url"`
	Layout          *models.Layout `json:"layout"`
}

// UpdateWidgetRequest represents a partial widget update; absent fields are
// left unchanged.
type UpdateWidgetRequest struct {
	Name            *string        `json:"name"`
	APIEndpoint     *string        `json:"api_endpoint" validate:"omitempty,url"`
	APIKey          *string        `json:"api_key"`
	APIKeyHeader    *string        `json:"api_key_header"`
	RequestBody     *string        `json:"request_body"`
	ResponseURLPath *string        `json:"response_url_path"`
	ContentURL      *string        `json:"content_url"`
	Layout          *models.Layout `json:"layout"`
	Enabled         *bool          `json:"enabled"`
}

// WidgetResponse is the JSON shape of a widget exposed to clients. The API
// key is never returned, only its masked display form.
type WidgetResponse struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	APIEndpoint     string        `json:"api_endpoint"`
	APIKeyMasked    string        `json:"api_key_masked"`
	APIKeyHeader    string        `json:"api_key_header"`
	RequestBody     string        `json:"request_body"`
	ResponseURLPath string        `json:"response_url_path"`
	ContentURL      string        `json:"content_url"`
	Layout          models.Layout `json:"layout"`
	Enabled         bool          `json:"enabled"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// BulkLayoutRequest carries layout positions for multiple widgets.
type BulkLayoutRequest struct {
	Widgets []models.WidgetLayout `json:"widgets"`
}

// toResponse converts a widget into its API representation, masking the key.
func (h *WidgetHandler) toResponse(w *models.Widget) WidgetResponse {
	header := w.APIKeyHeader
	if header == "" {
		header = models.DefaultAPIKeyHeader
	}
	return WidgetResponse{
		ID:              w.ID,
		Name:            w.Name,
		APIEndpoint:     w.APIEndpoint,
		APIKeyMasked:    h.WidgetService.MaskedAPIKey(w),
		APIKeyHeader:    header,
		RequestBody:     w.RequestBody,
		ResponseURLPath: w.ResponseURLPath,
		ContentURL:      w.ContentURL,
		Layout:          w.Layout,
		Enabled:         w.Enabled,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

// writeJSON serializes v with the JSON content type.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// List handles GET /api/widgets requests.
func (h *WidgetHandler) List(w http.ResponseWriter, r *http.Request) {
	widgets, err := h.WidgetService.List(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]WidgetResponse, 0, len(widgets))
	for i := range widgets {
		resp = append(resp, h.toResponse(&widgets[i]))
	}
	writeJSON(w, resp)
}

// Create handles POST /api/widgets requests.
func (h *WidgetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	widget, err := h.WidgetService.Create(r.Context(), service.CreateWidgetParams{
		Name:            req.Name,
		APIEndpoint:     req.APIEndpoint,
		APIKey:          req.APIKey,
		APIKeyHeader:    req.APIKeyHeader,
		RequestBody:     req.RequestBody,
		ResponseURLPath: req.ResponseURLPath,
		ContentURL:      req.ContentURL,
		Layout:          req.Layout,
	})
	if err != nil {
		http.Error(w, "failed to create widget", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.toResponse(widget))
}

// Get handles GET /api/widgets/{widgetID} requests.
func (h *WidgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	widget, err := h.WidgetService.Get(r.Context(), chi.URLParam(r, "widgetID"))
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "Widget not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.toResponse(widget))
}

// Update handles PUT /api/widgets/{widgetID} requests.
func (h *WidgetHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateWidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	widget, err := h.WidgetService.Update(r.Context(), chi.URLParam(r, "widgetID"), service.UpdateWidgetParams{
		Name:            req.Name,
		APIEndpoint:     req.APIEndpoint,
		APIKey:          req.APIKey,
		APIKeyHeader:    req.APIKeyHeader,
		RequestBody:     req.RequestBody,
		ResponseURLPath: req.ResponseURLPath,
		ContentURL:      req.ContentURL,
		Layout:          req.Layout,
		Enabled:         req.Enabled,
	})
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "Widget not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to update widget", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.toResponse(widget))
}

// Delete handles DELETE /api/widgets/{widgetID} requests.
func (h *WidgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.WidgetService.Delete(r.Context(), chi.URLParam(r, "widgetID"))
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "Widget not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to delete widget", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

// BulkLayout handles PUT /api/widgets/layout/bulk requests.
func (h *WidgetHandler) BulkLayout(w http.ResponseWriter, r *http.Request) {
	var req BulkLayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	count, err := h.WidgetService.UpdateLayouts(r.Context(), req.Widgets)
	if err != nil {
		http.Error(w, "failed to update layout", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"status": "updated", "count": count})
}
