// Package repository provides persistence implementations for widget services
// using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atarasenko/widgetboard/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a widget does not exist or is soft-deleted.
var ErrNotFound = errors.New("widget not found")

// widgetColumns is the column list shared by all widget SELECTs.
const widgetColumns = `id, name, api_endpoint, api_key_encrypted, api_key_header,
	request_body, response_url_path, content_url,
	layout_x, layout_y, layout_w, layout_h, layout_min_w, layout_min_h,
	enabled, created_at, updated_at`

// PostgresWidgetRepository implements widget persistence against a PostgreSQL database.
type PostgresWidgetRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresWidgetRepository creates a new PostgresWidgetRepository using the provided *sql.DB.
// db must be a valid connection to a PostgreSQL instance.
func NewPostgresWidgetRepository(db *sql.DB) *PostgresWidgetRepository {
	return &PostgresWidgetRepository{DB: db}
}

// scanWidget reads one widget row into a models.Widget, folding NULL text
// columns to empty strings.
func scanWidget(scan func(dest ...any) error) (*models.Widget, error) {
	var (
		w          models.Widget
		keyEnc     sql.NullString
		body       sql.NullString
		contentURL sql.NullString
	)
	err := scan(
		&w.ID, &w.Name, &w.APIEndpoint, &keyEnc, &w.APIKeyHeader,
		&body, &w.ResponseURLPath, &contentURL,
		&w.Layout.X, &w.Layout.Y, &w.Layout.W, &w.Layout.H, &w.Layout.MinW, &w.Layout.MinH,
		&w.Enabled, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	w.APIKeyEncrypted = keyEnc.String
	w.RequestBody = body.String
	w.ContentURL = contentURL.String
	return &w, nil
}

// List fetches all enabled widgets, newest placement first is left to the client;
// rows come back in creation order.
//
//	ctx: context for cancellation and deadlines
//
// Returns a slice of models.Widget or an error if the query or scanning fails.
func (r *PostgresWidgetRepository) List(ctx context.Context) ([]models.Widget, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+widgetColumns+` FROM widgets WHERE enabled = true AND deleted = false ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var widgets []models.Widget
	for rows.Next() {
		w, err := scanWidget(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		widgets = append(widgets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return widgets, nil
}

// GetByID retrieves a single widget by ID.
// Returns ErrNotFound when no live row matches.
func (r *PostgresWidgetRepository) GetByID(ctx context.Context, id string) (*models.Widget, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+widgetColumns+` FROM widgets WHERE id = $1 AND deleted = false
	`, id)
	w, err := scanWidget(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return w, nil
}

// Create inserts a new widget, assigning an ID and timestamps.
func (r *PostgresWidgetRepository) Create(ctx context.Context, w models.Widget) (*models.Widget, error) {
	w.ID = uuid.NewString()
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	w.Enabled = true

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO widgets (id, name, api_endpoint, api_key_encrypted, api_key_header,
			request_body, response_url_path, content_url,
			layout_x, layout_y, layout_w, layout_h, layout_min_w, layout_min_h,
			enabled, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, false, $16, $17)
	`, w.ID, w.Name, w.APIEndpoint, w.APIKeyEncrypted, w.APIKeyHeader,
		w.RequestBody, w.ResponseURLPath, w.ContentURL,
		w.Layout.X, w.Layout.Y, w.Layout.W, w.Layout.H, w.Layout.MinW, w.Layout.MinH,
		w.Enabled, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return &w, nil
}

// Update persists all mutable fields of the widget and refreshes updated_at.
// Returns ErrNotFound when the widget does not exist.
func (r *PostgresWidgetRepository) Update(ctx context.Context, w models.Widget) (*models.Widget, error) {
	w.UpdatedAt = time.Now().UTC()

	res, err := r.DB.ExecContext(ctx, `
		UPDATE widgets SET name = $2, api_endpoint = $3, api_key_encrypted = $4,
			api_key_header = $5, request_body = $6, response_url_path = $7, content_url = $8,
			layout_x = $9, layout_y = $10, layout_w = $11, layout_h = $12,
			layout_min_w = $13, layout_min_h = $14, enabled = $15, updated_at = $16
		WHERE id = $1 AND deleted = false
	`, w.ID, w.Name, w.APIEndpoint, w.APIKeyEncrypted,
		w.APIKeyHeader, w.RequestBody, w.ResponseURLPath, w.ContentURL,
		w.Layout.X, w.Layout.Y, w.Layout.W, w.Layout.H,
		w.Layout.MinW, w.Layout.MinH, w.Enabled, w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, ErrNotFound
	}
	return &w, nil
}

// Delete soft-deletes a widget; the background cleaner purges it later.
// Returns ErrNotFound when the widget does not exist.
func (r *PostgresWidgetRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE widgets SET deleted = true, updated_at = $2 WHERE id = $1 AND deleted = false
	`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLayouts applies layout positions for multiple widgets within one
// transaction. Unknown IDs are skipped, matching a best-effort bulk move.
// Returns the number of widgets updated.
func (r *PostgresWidgetRepository) UpdateLayouts(ctx context.Context, updates []models.WidgetLayout) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	updated := 0
	for _, u := range updates {
		res, err := tx.ExecContext(ctx, `
			UPDATE widgets SET layout_x = $2, layout_y = $3, layout_w = $4, layout_h = $5,
				layout_min_w = $6, layout_min_h = $7, updated_at = $8
			WHERE id = $1 AND deleted = false
		`, u.ID, u.Layout.X, u.Layout.Y, u.Layout.W, u.Layout.H,
			u.Layout.MinW, u.Layout.MinH, time.Now().UTC())
		if err != nil {
			return 0, fmt.Errorf("update layout: %w", err)
		}
		if rows, _ := res.RowsAffected(); rows > 0 {
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}
