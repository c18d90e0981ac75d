// Package service provides business logic for widget management and for
// probing the external APIs widgets are configured against.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atarasenko/widgetboard/internal/models"
)

// callTimeout bounds a whole outbound call, connect through response body.
const callTimeout = 30 * time.Second

// errBodyLimit is how much of an upstream error body is kept in messages.
const errBodyLimit = 200

// ProbeResult carries the outcome of a single external API call. Exactly one
// of Data and Err is meaningful: Err non-empty means the call failed and Data
// is nil.
type ProbeResult struct {
	// Data is the parsed JSON response on success.
	Data any
	// Err is a user-facing error message, empty on success.
	Err string
}

// Probe performs single outbound HTTP calls to caller-specified endpoints.
// It holds no per-call state; concurrent calls need no coordination.
type Probe struct {
	client *http.Client
}

// NewProbe constructs a Probe with the standard 30 second call timeout.
func NewProbe() *Probe {
	return &Probe{client: &http.Client{Timeout: callTimeout}}
}

// NewProbeWithClient constructs a Probe using the given HTTP client.
// The client's timeout is respected as-is.
func NewProbeWithClient(client *http.Client) *Probe {
	return &Probe{client: client}
}

// Call performs one HTTP call to endpoint. A non-empty requestBody is parsed
// as JSON and POSTed; otherwise a GET is issued. A non-empty apiKey is sent
// in the apiKeyHeader header (X-API-Key when unset). No network call is made
// when requestBody is invalid JSON. Failures never surface as Go errors;
// they ride in ProbeResult.Err.
func (p *Probe) Call(ctx context.Context, endpoint, apiKey, apiKeyHeader, requestBody string) ProbeResult {
	if apiKeyHeader == "" {
		apiKeyHeader = models.DefaultAPIKeyHeader
	}

	var req *http.Request
	if requestBody != "" {
		var payload any
		if err := json.Unmarshal([]byte(requestBody), &payload); err != nil {
			return ProbeResult{Err: fmt.Sprintf("Invalid JSON in request body: %v", err)}
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return ProbeResult{Err: fmt.Sprintf("Invalid JSON in request body: %v", err)}
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return ProbeResult{Err: fmt.Sprintf("Failed to call API: %v", err)}
		}
	} else {
		var err error
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return ProbeResult{Err: fmt.Sprintf("Failed to call API: %v", err)}
		}
	}

	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set(apiKeyHeader, apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return ProbeResult{Err: fmt.Sprintf("Failed to call API: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ProbeResult{Err: fmt.Sprintf("Failed to call API: %v", err)}
	}

	if resp.StatusCode >= 400 {
		return ProbeResult{Err: fmt.Sprintf("API returned status %d: %s", resp.StatusCode, truncate(string(raw), errBodyLimit))}
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return ProbeResult{Err: fmt.Sprintf("Failed to parse API response: %v", err)}
	}
	return ProbeResult{Data: data}
}

// ExtractPath navigates data along a dot-separated path, where numeric
// segments index arrays and other segments look up object keys. Every failure
// mode (missing key, bad or out-of-range index, scalar reached mid-path, nil
// result) folds to an empty string; the function never fails.
func ExtractPath(data any, path string) string {
	current := data
	for _, segment := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[segment]
			if !ok {
				return ""
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(v) {
				return ""
			}
			current = v[idx]
		default:
			return ""
		}
	}
	return stringify(current)
}

// stringify renders a leaf JSON value. Numbers keep their shortest decimal
// form and nil folds to empty.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		// Objects and arrays as terminal values are unusual; render as JSON.
		raw, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// FetchContent retrieves the content behind a widget's stored signed URL.
// It returns the response body and an empty message on success, or an empty
// body and a user-facing message on failure.
func (p *Probe) FetchContent(ctx context.Context, contentURL string) (string, string) {
	if contentURL == "" {
		return "", "No content URL configured. Please test the API and save the widget."
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentURL, nil)
	if err != nil {
		return "", fmt.Sprintf("Failed to fetch content: %v", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Sprintf("Failed to fetch content: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Sprintf("Failed to fetch content: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Sprintf("Failed to fetch content: %v", err)
	}
	return string(raw), ""
}

// truncate caps s at limit bytes.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
