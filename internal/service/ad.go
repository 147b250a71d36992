package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/sakif/adboard/internal/apperror"
	"github.com/sakif/adboard/internal/model"
	"github.com/sakif/adboard/internal/repository"
)

const (
	MaxAdTitleLength       = 120
	MaxAdDescriptionLength = 5000
	DefaultListLimit       = 20
	MaxListLimit           = 100
)

// AdService handles business logic for classified listings. Writes are
// owner-gated: mutating someone else's ad is Forbidden regardless of what
// the request claims.
type AdService struct {
	repo    repository.AdRepository
	uploads Uploader
	logger  *slog.Logger
}

func NewAdService(repo repository.AdRepository, uploads Uploader, logger *slog.Logger) *AdService {
	return &AdService{
		repo:    repo,
		uploads: uploads,
		logger:  logger,
	}
}

// AdInput carries the submitted ad fields. Photo parts are optional.
type AdInput struct {
	Title       string
	Description string
	Price       int64 // cents
	Photo       multipart.File
	PhotoHeader *multipart.FileHeader
}

func validateAdInput(in AdInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxAdTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxAdTitleLength))
	}
	if len(in.Description) > MaxAdDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxAdDescriptionLength))
	}
	if in.Price < 0 {
		return apperror.ValidationFailed("price", "price must not be negative")
	}
	return nil
}

// Create validates and saves a new ad owned by userID.
func (s *AdService) Create(ctx context.Context, userID string, in AdInput) (*model.Ad, error) {
	if err := validateAdInput(in); err != nil {
		return nil, err
	}

	photoPath := ""
	if in.Photo != nil {
		path, err := s.uploads.Save(in.Photo, in.PhotoHeader)
		if err != nil {
			return nil, fmt.Errorf("service/ad: storing photo: %w", err)
		}
		photoPath = path
	}

	ad := &model.Ad{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		PhotoPath:   photoPath,
	}

	if err := s.repo.Create(ctx, ad); err != nil {
		s.logger.Error("failed to create ad",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating ad: %w", err)
	}

	s.logger.Info("ad created",
		slog.String("id", ad.ID),
		slog.String("userID", userID),
	)

	return ad, nil
}

// GetByID retrieves one ad. Public — no ownership check on reads.
func (s *AdService) GetByID(ctx context.Context, id string) (*model.Ad, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "ad ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List retrieves ads newest-first with pagination, clamped to sane bounds.
func (s *AdService) List(ctx context.Context, limit, offset int) ([]model.Ad, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	ads, err := s.repo.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list ads", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing ads: %w", err)
	}

	return ads, nil
}

// Update modifies an existing ad. Fetch-then-update so the NotFound and
// ownership checks happen before anything is written.
func (s *AdService) Update(ctx context.Context, userID, id string, in AdInput) (*model.Ad, error) {
	ad, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if ad.UserID != userID {
		return nil, apperror.Forbidden("you may only edit your own ads")
	}

	if err := validateAdInput(in); err != nil {
		return nil, err
	}

	ad.Title = strings.TrimSpace(in.Title)
	ad.Description = strings.TrimSpace(in.Description)
	ad.Price = in.Price
	if in.Photo != nil {
		path, err := s.uploads.Save(in.Photo, in.PhotoHeader)
		if err != nil {
			return nil, fmt.Errorf("service/ad: storing photo: %w", err)
		}
		ad.PhotoPath = path
	}

	if err := s.repo.Update(ctx, ad); err != nil {
		s.logger.Error("failed to update ad",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating ad: %w", err)
	}

	return ad, nil
}

// Delete removes an ad owned by userID.
func (s *AdService) Delete(ctx context.Context, userID, id string) error {
	ad, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if ad.UserID != userID {
		return apperror.Forbidden("you may only delete your own ads")
	}

	if err := s.repo.Delete(ctx, ad.ID); err != nil {
		// Losing a delete race with yourself is still gone — treat a late
		// NotFound as success.
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("deleting ad: %w", err)
	}

	s.logger.Info("ad deleted",
		slog.String("id", ad.ID),
		slog.String("userID", userID),
	)

	return nil
}
