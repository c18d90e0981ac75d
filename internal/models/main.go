// Package models defines the core data structures for dashboard widgets.
package models

import "time"

// Layout describes the position and size of a widget on the dashboard grid.
type Layout struct {
	// X is the horizontal grid position.
	X int `json:"x"`
	// Y is the vertical grid position.
	Y int `json:"y"`
	// W is the width in grid units.
	W int `json:"w"`
	// H is the height in grid units.
	H int `json:"h"`
	// MinW is the minimum width the widget may be resized to.
	MinW int `json:"minW"`
	// MinH is the minimum height the widget may be resized to.
	MinH int `json:"minH"`
}

// DefaultLayout returns the layout assigned to new widgets when the
// client does not supply one.
func DefaultLayout() Layout {
	return Layout{X: 0, Y: 0, W: 4, H: 3, MinW: 2, MinH: 2}
}

// Widget represents a user-configured dashboard card backed by an external API.
type Widget struct {
	// ID is the unique identifier for the widget.
	ID string `json:"id"`
	// Name is the display name chosen by the user.
	Name string `json:"name"`
	// APIEndpoint is the external API URL the widget calls.
	APIEndpoint string `json:"api_endpoint"`
	// APIKeyEncrypted is the ciphertext of the widget's API key, empty if none.
	APIKeyEncrypted string `json:"-"`
	// APIKeyHeader is the header name the API key is sent in.
	APIKeyHeader string `json:"api_key_header"`
	// RequestBody is a JSON string sent as the POST body, empty for GET.
	RequestBody string `json:"request_body"`
	// ResponseURLPath is the dot-path locating the signed URL in the API response.
	ResponseURLPath string `json:"response_url_path"`
	// ContentURL is the signed URL extracted from the last successful API test.
	ContentURL string `json:"content_url"`
	// Layout holds the widget's dashboard grid placement.
	Layout Layout `json:"layout"`
	// Enabled controls whether the widget appears in listings.
	Enabled bool `json:"enabled"`
	// Deleted marks the widget as soft-deleted pending purge.
	Deleted bool `json:"-"`
	// CreatedAt is when the widget was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the widget was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// WidgetLayout pairs a widget ID with its new grid placement, used by the
// bulk layout update operation.
type WidgetLayout struct {
	// ID identifies the widget being moved.
	ID string `json:"id"`
	// Layout is the new placement.
	Layout Layout `json:"layout"`
}

const (
	// DefaultAPIKeyHeader is used when a widget does not specify a header name.
	DefaultAPIKeyHeader = "X-API-Key"
	// DefaultResponseURLPath is the dot-path used when none is configured.
	DefaultResponseURLPath = "url"
)
