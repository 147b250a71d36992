package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"os"
	"strings"
	"testing"

	"github.com/sakif/adboard/internal/apperror"
	"github.com/sakif/adboard/internal/model"
	"github.com/sakif/adboard/internal/repository"
)

// mockAdRepo is an in-memory AdRepository.
type mockAdRepo struct {
	ads    map[string]*model.Ad
	nextID int
}

func newMockAdRepo() *mockAdRepo {
	return &mockAdRepo{ads: make(map[string]*model.Ad)}
}

func (m *mockAdRepo) Create(_ context.Context, ad *model.Ad) error {
	m.nextID++
	ad.ID = fmt.Sprintf("ad-%d", m.nextID)
	stored := *ad
	m.ads[ad.ID] = &stored
	return nil
}

func (m *mockAdRepo) GetByID(_ context.Context, id string) (*model.Ad, error) {
	ad, ok := m.ads[id]
	if !ok {
		return nil, apperror.NotFound("ad", id)
	}
	result := *ad
	return &result, nil
}

func (m *mockAdRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Ad, error) {
	result := make([]model.Ad, 0, len(m.ads))
	for _, ad := range m.ads {
		result = append(result, *ad)
	}
	if opts.Offset >= len(result) {
		return []model.Ad{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *mockAdRepo) Update(_ context.Context, ad *model.Ad) error {
	if _, ok := m.ads[ad.ID]; !ok {
		return apperror.NotFound("ad", ad.ID)
	}
	stored := *ad
	m.ads[ad.ID] = &stored
	return nil
}

func (m *mockAdRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.ads[id]; !ok {
		return apperror.NotFound("ad", id)
	}
	delete(m.ads, id)
	return nil
}

func newTestAdService(t *testing.T) (*AdService, *mockAdRepo, *mockUploader) {
	t.Helper()
	repo := newMockAdRepo()
	uploads := &mockUploader{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewAdService(repo, uploads, logger), repo, uploads
}

func TestAdServiceCreate(t *testing.T) {
	svc, repo, _ := newTestAdService(t)

	ad, err := svc.Create(context.Background(), "user-1", AdInput{
		Title:       "  Bike for sale  ",
		Description: "red, 26 inch",
		Price:       45000,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if ad.Title != "Bike for sale" {
		t.Errorf("Title = %q, want trimmed", ad.Title)
	}
	if ad.UserID != "user-1" {
		t.Errorf("UserID = %q", ad.UserID)
	}
	if len(repo.ads) != 1 {
		t.Errorf("ad count = %d, want 1", len(repo.ads))
	}
}

func TestAdServiceCreate_Validation(t *testing.T) {
	svc, repo, _ := newTestAdService(t)

	tests := []struct {
		name  string
		input AdInput
	}{
		{"empty title", AdInput{Title: "   ", Price: 100}},
		{"title too long", AdInput{Title: strings.Repeat("x", MaxAdTitleLength+1), Price: 100}},
		{"description too long", AdInput{Title: "ok", Description: strings.Repeat("x", MaxAdDescriptionLength+1)}},
		{"negative price", AdInput{Title: "ok", Price: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "user-1", tt.input)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}

	if len(repo.ads) != 0 {
		t.Errorf("ad count = %d after rejected creates, want 0", len(repo.ads))
	}
}

func TestAdServiceCreate_WithPhoto(t *testing.T) {
	svc, repo, uploads := newTestAdService(t)

	ad, err := svc.Create(context.Background(), "user-1", AdInput{
		Title:       "Lamp",
		Price:       1500,
		Photo:       fakePhoto{},
		PhotoHeader: &multipart.FileHeader{Filename: "lamp.jpg", Size: 10},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if uploads.calls != 1 {
		t.Errorf("uploader called %d times, want 1", uploads.calls)
	}
	if repo.ads[ad.ID].PhotoPath == "" {
		t.Error("PhotoPath not persisted")
	}
}

func TestAdServiceList_ClampsLimit(t *testing.T) {
	svc, _, _ := newTestAdService(t)

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), "user-1", AdInput{
			Title: fmt.Sprintf("ad %d", i), Price: 100,
		}); err != nil {
			t.Fatalf("Create(): %v", err)
		}
	}

	// Zero limit falls back to the default; absurd limits are clamped.
	ads, err := svc.List(context.Background(), 0, -5)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ads) != 3 {
		t.Errorf("List() returned %d ads, want 3", len(ads))
	}

	if _, err := svc.List(context.Background(), 1_000_000, 0); err != nil {
		t.Errorf("List() with huge limit: %v", err)
	}
}

func TestAdServiceUpdate_OwnerOnly(t *testing.T) {
	svc, _, _ := newTestAdService(t)

	ad, err := svc.Create(context.Background(), "owner", AdInput{Title: "Lamp", Price: 1500})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	_, err = svc.Update(context.Background(), "intruder", ad.ID, AdInput{Title: "Stolen lamp", Price: 1})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Update() by non-owner error = %v, want ErrForbidden", err)
	}
}

func TestAdServiceUpdate(t *testing.T) {
	svc, repo, _ := newTestAdService(t)

	ad, err := svc.Create(context.Background(), "owner", AdInput{Title: "Lamp", Price: 1500})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	updated, err := svc.Update(context.Background(), "owner", ad.ID, AdInput{
		Title: "Nice lamp", Description: "works", Price: 2000,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "Nice lamp" || updated.Price != 2000 {
		t.Errorf("Update() result = %+v", updated)
	}
	if repo.ads[ad.ID].Title != "Nice lamp" {
		t.Error("update not persisted")
	}
}

func TestAdServiceUpdate_NotFound(t *testing.T) {
	svc, _, _ := newTestAdService(t)

	_, err := svc.Update(context.Background(), "owner", "missing", AdInput{Title: "x", Price: 1})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestAdServiceDelete_OwnerOnly(t *testing.T) {
	svc, repo, _ := newTestAdService(t)

	ad, err := svc.Create(context.Background(), "owner", AdInput{Title: "Lamp", Price: 1500})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	if err := svc.Delete(context.Background(), "intruder", ad.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Delete() by non-owner error = %v, want ErrForbidden", err)
	}
	if len(repo.ads) != 1 {
		t.Error("ad deleted by non-owner")
	}

	if err := svc.Delete(context.Background(), "owner", ad.ID); err != nil {
		t.Fatalf("Delete() by owner error = %v", err)
	}
	if len(repo.ads) != 0 {
		t.Error("ad not deleted by owner")
	}
}
