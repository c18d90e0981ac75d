package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/atarasenko/widgetboard/internal/models"
	"github.com/atarasenko/widgetboard/internal/service"
)

type mockRepo struct {
	ListFunc          func(ctx context.Context) ([]models.Widget, error)
	GetByIDFunc       func(ctx context.Context, id string) (*models.Widget, error)
	CreateFunc        func(ctx context.Context, w models.Widget) (*models.Widget, error)
	UpdateFunc        func(ctx context.Context, w models.Widget) (*models.Widget, error)
	DeleteFunc        func(ctx context.Context, id string) error
	UpdateLayoutsFunc func(ctx context.Context, updates []models.WidgetLayout) (int, error)
}

func (m *mockRepo) List(ctx context.Context) ([]models.Widget, error) {
	return m.ListFunc(ctx)
}
func (m *mockRepo) GetByID(ctx context.Context, id string) (*models.Widget, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *mockRepo) Create(ctx context.Context, w models.Widget) (*models.Widget, error) {
	return m.CreateFunc(ctx, w)
}
func (m *mockRepo) Update(ctx context.Context, w models.Widget) (*models.Widget, error) {
	return m.UpdateFunc(ctx, w)
}
func (m *mockRepo) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}
func (m *mockRepo) UpdateLayouts(ctx context.Context, updates []models.WidgetLayout) (int, error) {
	return m.UpdateLayoutsFunc(ctx, updates)
}

// fakeCodec reverses strings instead of encrypting, and can be forced to
// fail decryption.
type fakeCodec struct {
	encryptErr error
	decryptErr error
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func (f *fakeCodec) Encrypt(plaintext string) (string, error) {
	if f.encryptErr != nil {
		return "", f.encryptErr
	}
	if plaintext == "" {
		return "", nil
	}
	return reverse(plaintext), nil
}

func (f *fakeCodec) Decrypt(ciphertext string) (string, error) {
	if f.decryptErr != nil {
		return "", f.decryptErr
	}
	if ciphertext == "" {
		return "", nil
	}
	return reverse(ciphertext), nil
}

func TestCreate_EncryptsKeyAndFillsDefaults(t *testing.T) {
	var saved models.Widget
	repo := &mockRepo{
		CreateFunc: func(_ context.Context, w models.Widget) (*models.Widget, error) {
			saved = w
			w.ID = "id1"
			return &w, nil
		},
	}
	svc := service.NewWidgetService(repo, &fakeCodec{})

	widget, err := svc.Create(context.Background(), service.CreateWidgetParams{
		Name:        "Weather",
		APIEndpoint: "https://api.example.com/report",
		APIKey:      "plain-key",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if saved.APIKeyEncrypted != reverse("plain-key") {
		t.Errorf("APIKeyEncrypted = %q; want encrypted form", saved.APIKeyEncrypted)
	}
	if saved.APIKeyHeader != models.DefaultAPIKeyHeader {
		t.Errorf("APIKeyHeader = %q; want default", saved.APIKeyHeader)
	}
	if saved.ResponseURLPath != models.DefaultResponseURLPath {
		t.Errorf("ResponseURLPath = %q; want default", saved.ResponseURLPath)
	}
	if saved.Layout != models.DefaultLayout() {
		t.Errorf("Layout = %+v; want default", saved.Layout)
	}
	if widget.ID != "id1" {
		t.Errorf("ID = %q; want id1", widget.ID)
	}
}

func TestCreate_EmptyKeyStaysEmpty(t *testing.T) {
	repo := &mockRepo{
		CreateFunc: func(_ context.Context, w models.Widget) (*models.Widget, error) {
			if w.APIKeyEncrypted != "" {
				t.Errorf("APIKeyEncrypted = %q; want empty", w.APIKeyEncrypted)
			}
			return &w, nil
		},
	}
	svc := service.NewWidgetService(repo, &fakeCodec{})

	if _, err := svc.Create(context.Background(), service.CreateWidgetParams{
		Name:        "NoKey",
		APIEndpoint: "https://api.example.com",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreate_EncryptError(t *testing.T) {
	wantErr := errors.New("no key material")
	svc := service.NewWidgetService(&mockRepo{}, &fakeCodec{encryptErr: wantErr})

	_, err := svc.Create(context.Background(), service.CreateWidgetParams{
		Name:        "W",
		APIEndpoint: "https://api.example.com",
		APIKey:      "k",
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Create error = %v; want %v", err, wantErr)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	existing := models.Widget{
		ID:              "w1",
		Name:            "Old",
		APIEndpoint:     "https://old.example.com",
		APIKeyEncrypted: reverse("old-key"),
		APIKeyHeader:    "X-API-Key",
		ResponseURLPath: "url",
		Enabled:         true,
	}
	var updated models.Widget
	repo := &mockRepo{
		GetByIDFunc: func(_ context.Context, id string) (*models.Widget, error) {
			w := existing
			return &w, nil
		},
		UpdateFunc: func(_ context.Context, w models.Widget) (*models.Widget, error) {
			updated = w
			return &w, nil
		},
	}
	svc := service.NewWidgetService(repo, &fakeCodec{})

	newName := "New"
	_, err := svc.Update(context.Background(), "w1", service.UpdateWidgetParams{Name: &newName})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.Name != "New" {
		t.Errorf("Name = %q; want New", updated.Name)
	}
	// Untouched fields keep their stored values.
	if updated.APIEndpoint != existing.APIEndpoint {
		t.Errorf("APIEndpoint = %q; want unchanged", updated.APIEndpoint)
	}
	if updated.APIKeyEncrypted != existing.APIKeyEncrypted {
		t.Errorf("APIKeyEncrypted changed without a new key")
	}
}

func TestUpdate_ReencryptsSuppliedKey(t *testing.T) {
	repo := &mockRepo{
		GetByIDFunc: func(_ context.Context, id string) (*models.Widget, error) {
			return &models.Widget{ID: "w1", APIKeyEncrypted: reverse("old")}, nil
		},
		UpdateFunc: func(_ context.Context, w models.Widget) (*models.Widget, error) {
			return &w, nil
		},
	}
	svc := service.NewWidgetService(repo, &fakeCodec{})

	newKey := "fresh-key"
	widget, err := svc.Update(context.Background(), "w1", service.UpdateWidgetParams{APIKey: &newKey})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if widget.APIKeyEncrypted != reverse("fresh-key") {
		t.Errorf("APIKeyEncrypted = %q; want re-encrypted key", widget.APIKeyEncrypted)
	}
}

func TestUpdate_ClearKeyWithEmptyString(t *testing.T) {
	repo := &mockRepo{
		GetByIDFunc: func(_ context.Context, id string) (*models.Widget, error) {
			return &models.Widget{ID: "w1", APIKeyEncrypted: reverse("old")}, nil
		},
		UpdateFunc: func(_ context.Context, w models.Widget) (*models.Widget, error) {
			return &w, nil
		},
	}
	svc := service.NewWidgetService(repo, &fakeCodec{})

	empty := ""
	widget, err := svc.Update(context.Background(), "w1", service.UpdateWidgetParams{APIKey: &empty})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if widget.APIKeyEncrypted != "" {
		t.Errorf("APIKeyEncrypted = %q; want cleared", widget.APIKeyEncrypted)
	}
}

func TestUpdate_GetError(t *testing.T) {
	wantErr := errors.New("db down")
	repo := &mockRepo{
		GetByIDFunc: func(context.Context, string) (*models.Widget, error) {
			return nil, wantErr
		},
	}
	svc := service.NewWidgetService(repo, &fakeCodec{})

	_, err := svc.Update(context.Background(), "w1", service.UpdateWidgetParams{})
	if err != wantErr {
		t.Fatalf("Update error = %v; want %v", err, wantErr)
	}
}

func TestMaskedAPIKey(t *testing.T) {
	svc := service.NewWidgetService(&mockRepo{}, &fakeCodec{})

	w := &models.Widget{APIKeyEncrypted: reverse("sk-live-abcdef123456")}
	if got := svc.MaskedAPIKey(w); got != "sk-****3456" {
		t.Errorf("MaskedAPIKey = %q; want sk-****3456", got)
	}

	// No stored key masks to the placeholder.
	if got := svc.MaskedAPIKey(&models.Widget{}); got != "****" {
		t.Errorf("MaskedAPIKey(empty) = %q; want ****", got)
	}
}

func TestMaskedAPIKey_DecryptFailureDegrades(t *testing.T) {
	svc := service.NewWidgetService(&mockRepo{}, &fakeCodec{decryptErr: errors.New("corrupt")})

	// A corrupt stored key must never break the read path.
	w := &models.Widget{APIKeyEncrypted: "garbage"}
	if got := svc.MaskedAPIKey(w); got != "****" {
		t.Errorf("MaskedAPIKey = %q; want ****", got)
	}
}

func TestUpdateLayouts_Delegates(t *testing.T) {
	var received []models.WidgetLayout
	repo := &mockRepo{
		UpdateLayoutsFunc: func(_ context.Context, updates []models.WidgetLayout) (int, error) {
			received = updates
			return len(updates), nil
		},
	}
	svc := service.NewWidgetService(repo, &fakeCodec{})

	updates := []models.WidgetLayout{
		{ID: "a", Layout: models.Layout{X: 1, Y: 2, W: 3, H: 4, MinW: 1, MinH: 1}},
		{ID: "b", Layout: models.Layout{X: 0, Y: 0, W: 4, H: 3, MinW: 2, MinH: 2}},
	}
	count, err := svc.UpdateLayouts(context.Background(), updates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d; want 2", count)
	}
	if len(received) != 2 || received[0].ID != "a" {
		t.Errorf("received = %+v; want the submitted updates", received)
	}
}
