// Package http provides HTTP handlers for widget content fetching and
// external API testing.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atarasenko/widgetboard/internal/repository"
	"github.com/atarasenko/widgetboard/internal/service"
)

// APIProbe defines the outbound-call operations required by the handlers.
type APIProbe interface {
	// Call performs one HTTP call to the endpoint, returning the parsed JSON
	// response or a user-facing error message in the result.
	Call(ctx context.Context, endpoint, apiKey, apiKeyHeader, requestBody string) service.ProbeResult
	// FetchContent retrieves the body behind a widget's stored content URL.
	// The second return value is a user-facing error message, empty on success.
	FetchContent(ctx context.Context, contentURL string) (string, string)
}

// WidgetContentResponse is the JSON shape of a content fetch. Exactly one of
// HTMLContent and Error is set.
type WidgetContentResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	HTMLContent *string `json:"html_content"`
	Error       *string `json:"error"`
}

// TestAPIRequest represents the JSON payload for testing an external API.
type TestAPIRequest struct {
	APIEndpoint     string `json:"api_endpoint" validate:"required,url"`
	APIKey          string `json:"api_key"`
	APIKeyHeader    string `json:"api_key_header"`
	RequestBody     string `json:"request_body"`
	ResponseURLPath string `json:"response_url_path"`
}

// TestAPIResponse carries the raw JSON value returned by the tested endpoint
// or an error message. When the request named a response URL path, the value
// extracted along it is included so the client can persist it as the
// widget's content URL.
type TestAPIResponse struct {
	Data         any     `json:"data"`
	Error        *string `json:"error"`
	ExtractedURL string  `json:"extracted_url,omitempty"`
}

// Content handles GET /api/widgets/{widgetID}/content requests.
// It fetches the content behind the widget's stored signed URL; fetch
// failures ride in the response body, not the HTTP status.
func (h *WidgetHandler) Content(w http.ResponseWriter, r *http.Request) {
	widget, err := h.WidgetService.Get(r.Context(), chi.URLParam(r, "widgetID"))
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "Widget not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	html, errMsg := h.Probe.FetchContent(r.Context(), widget.ContentURL)

	resp := WidgetContentResponse{ID: widget.ID, Name: widget.Name}
	if errMsg != "" {
		resp.Error = &errMsg
	} else {
		resp.HTMLContent = &html
	}
	writeJSON(w, resp)
}

// Refresh handles POST /api/widgets/{widgetID}/refresh requests.
// An explicit re-fetch of the widget's content.
func (h *WidgetHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.Content(w, r)
}

// TestAPI handles POST /api/widgets/test-api requests.
// It performs one call against the supplied endpoint and returns the parsed
// response; probe failures are reported in the body with status 200.
func (h *WidgetHandler) TestAPI(w http.ResponseWriter, r *http.Request) {
	var req TestAPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	result := h.Probe.Call(r.Context(), req.APIEndpoint, req.APIKey, req.APIKeyHeader, req.RequestBody)

	resp := TestAPIResponse{Data: result.Data}
	if result.Err != "" {
		msg := result.Err
		resp.Error = &msg
	} else if req.ResponseURLPath != "" {
		resp.ExtractedURL = service.ExtractPath(result.Data, req.ResponseURLPath)
	}
	writeJSON(w, resp)
}
