package service

import (
	"context"
	"fmt"

	"github.com/atarasenko/widgetboard/internal/models"
	"github.com/atarasenko/widgetboard/internal/secrets"
)

// WidgetRepository defines the persistence operations needed by the WidgetService.
type WidgetRepository interface {
	// List retrieves all enabled, non-deleted widgets.
	List(ctx context.Context) ([]models.Widget, error)
	// GetByID fetches a single widget, returning repository.ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*models.Widget, error)
	// Create inserts a new widget, assigning its ID and timestamps.
	Create(ctx context.Context, w models.Widget) (*models.Widget, error)
	// Update persists all mutable fields of an existing widget.
	Update(ctx context.Context, w models.Widget) (*models.Widget, error)
	// Delete soft-deletes the widget with the given ID.
	Delete(ctx context.Context, id string) error
	// UpdateLayouts applies layout positions in bulk, returning the count applied.
	UpdateLayouts(ctx context.Context, updates []models.WidgetLayout) (int, error)
}

// SecretCodec defines the encryption operations needed by the WidgetService.
type SecretCodec interface {
	// Encrypt seals a plaintext API key for storage; empty in, empty out.
	Encrypt(plaintext string) (string, error)
	// Decrypt reverses Encrypt; fails with secrets.ErrDecrypt on bad tokens.
	Decrypt(ciphertext string) (string, error)
}

// CreateWidgetParams carries the fields accepted when creating a widget.
type CreateWidgetParams struct {
	Name            string
	APIEndpoint     string
	APIKey          string
	APIKeyHeader    string
	RequestBody     string
	ResponseURLPath string
	ContentURL      string
	Layout          *models.Layout
}

// UpdateWidgetParams carries a partial widget update; nil fields are left
// unchanged. A non-nil APIKey is re-encrypted, including the empty string
// (which clears the stored key).
type UpdateWidgetParams struct {
	Name            *string
	APIEndpoint     *string
	APIKey          *string
	APIKeyHeader    *string
	RequestBody     *string
	ResponseURLPath *string
	ContentURL      *string
	Layout          *models.Layout
	Enabled         *bool
}

// WidgetService implements widget CRUD business logic, encrypting API keys
// on the way in and masking them on the way out.
type WidgetService struct {
	repo  WidgetRepository
	codec SecretCodec
}

// NewWidgetService constructs a WidgetService with the provided repository
// and secret codec.
func NewWidgetService(repo WidgetRepository, codec SecretCodec) *WidgetService {
	return &WidgetService{repo: repo, codec: codec}
}

// List returns all enabled widgets.
func (s *WidgetService) List(ctx context.Context) ([]models.Widget, error) {
	return s.repo.List(ctx)
}

// Get returns a single widget by ID.
func (s *WidgetService) Get(ctx context.Context, id string) (*models.Widget, error) {
	return s.repo.GetByID(ctx, id)
}

// Create encrypts the API key, fills defaults and persists a new widget.
func (s *WidgetService) Create(ctx context.Context, params CreateWidgetParams) (*models.Widget, error) {
	encrypted, err := s.codec.Encrypt(params.APIKey)
	if err != nil {
		return nil, fmt.Errorf("encrypt api key: %w", err)
	}

	layout := models.DefaultLayout()
	if params.Layout != nil {
		layout = *params.Layout
	}

	w := models.Widget{
		Name:            params.Name,
		APIEndpoint:     params.APIEndpoint,
		APIKeyEncrypted: encrypted,
		APIKeyHeader:    params.APIKeyHeader,
		RequestBody:     params.RequestBody,
		ResponseURLPath: params.ResponseURLPath,
		ContentURL:      params.ContentURL,
		Layout:          layout,
	}
	if w.APIKeyHeader == "" {
		w.APIKeyHeader = models.DefaultAPIKeyHeader
	}
	if w.ResponseURLPath == "" {
		w.ResponseURLPath = models.DefaultResponseURLPath
	}

	return s.repo.Create(ctx, w)
}

// Update applies a partial update to an existing widget, re-encrypting the
// API key when one is supplied.
func (s *WidgetService) Update(ctx context.Context, id string, params UpdateWidgetParams) (*models.Widget, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		w.Name = *params.Name
	}
	if params.APIEndpoint != nil {
		w.APIEndpoint = *params.APIEndpoint
	}
	if params.APIKey != nil {
		encrypted, err := s.codec.Encrypt(*params.APIKey)
		if err != nil {
			return nil, fmt.Errorf("encrypt api key: %w", err)
		}
		w.APIKeyEncrypted = encrypted
	}
	if params.APIKeyHeader != nil {
		w.APIKeyHeader = *params.APIKeyHeader
	}
	if params.RequestBody != nil {
		w.RequestBody = *params.RequestBody
	}
	if params.ResponseURLPath != nil {
		w.ResponseURLPath = *params.ResponseURLPath
	}
	if params.ContentURL != nil {
		w.ContentURL = *params.ContentURL
	}
	if params.Layout != nil {
		w.Layout = *params.Layout
	}
	if params.Enabled != nil {
		w.Enabled = *params.Enabled
	}

	return s.repo.Update(ctx, *w)
}

// Delete removes the widget with the given ID.
func (s *WidgetService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// UpdateLayouts applies layout positions in bulk and returns how many
// widgets were moved.
func (s *WidgetService) UpdateLayouts(ctx context.Context, updates []models.WidgetLayout) (int, error) {
	return s.repo.UpdateLayouts(ctx, updates)
}

// MaskedAPIKey returns the display form of a widget's API key. A stored
// ciphertext that no longer decrypts degrades to the empty-key placeholder;
// reading a widget must never fail on a corrupt key.
func (s *WidgetService) MaskedAPIKey(w *models.Widget) string {
	plain := ""
	if w.APIKeyEncrypted != "" {
		if decrypted, err := s.codec.Decrypt(w.APIKeyEncrypted); err == nil {
			plain = decrypted
		}
	}
	return secrets.Mask(plain)
}
