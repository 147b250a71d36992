package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/adboard/internal/apperror"
	"github.com/sakif/adboard/internal/model"
	"github.com/sakif/adboard/internal/repository"
)

// AdDB is the ads view over the shared connection pool.
type AdDB struct {
	conn *sql.DB
}

// compile-time check that *AdDB implements repository.AdRepository
var _ repository.AdRepository = (*AdDB)(nil)

const adColumns = `id, user_id, title, description, price, photo_path, created_at, updated_at`

// Create inserts a new ad, generating the id and timestamps in place.
// xid ids are 20 URL-safe chars and sort by creation time, which keeps the
// default listing order cheap.
func (a *AdDB) Create(ctx context.Context, ad *model.Ad) error {
	ad.ID = xid.New().String()
	now := time.Now().UTC()
	ad.CreatedAt = now
	ad.UpdatedAt = now

	_, err := a.conn.ExecContext(ctx,
		`INSERT INTO ads (id, user_id, title, description, price, photo_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ad.ID,
		ad.UserID,
		ad.Title,
		ad.Description,
		ad.Price,
		ad.PhotoPath,
		ad.CreatedAt,
		ad.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating ad: %w", err)
	}

	return nil
}

// GetByID retrieves a single ad.
// Returns apperror.ErrNotFound if the ad doesn't exist.
func (a *AdDB) GetByID(ctx context.Context, id string) (*model.Ad, error) {
	var ad model.Ad
	err := a.conn.QueryRowContext(ctx,
		`SELECT `+adColumns+` FROM ads WHERE id = ?`, id,
	).Scan(
		&ad.ID,
		&ad.UserID,
		&ad.Title,
		&ad.Description,
		&ad.Price,
		&ad.PhotoPath,
		&ad.CreatedAt,
		&ad.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("ad", id)
		}
		return nil, fmt.Errorf("sqlite: getting ad %s: %w", id, err)
	}

	return &ad, nil
}

// List returns ads newest-first with limit/offset pagination.
func (a *AdDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Ad, error) {
	rows, err := a.conn.QueryContext(ctx,
		`SELECT `+adColumns+` FROM ads
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ads: %w", err)
	}
	defer rows.Close()

	ads := []model.Ad{}
	for rows.Next() {
		var ad model.Ad
		if err := rows.Scan(
			&ad.ID,
			&ad.UserID,
			&ad.Title,
			&ad.Description,
			&ad.Price,
			&ad.PhotoPath,
			&ad.CreatedAt,
			&ad.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ad row: %w", err)
		}
		ads = append(ads, ad)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ad rows: %w", err)
	}

	return ads, nil
}

// Update saves the mutable fields of an existing ad.
// Returns apperror.ErrNotFound if the ad doesn't exist.
func (a *AdDB) Update(ctx context.Context, ad *model.Ad) error {
	ad.UpdatedAt = time.Now().UTC()

	res, err := a.conn.ExecContext(ctx,
		`UPDATE ads SET title = ?, description = ?, price = ?, photo_path = ?, updated_at = ?
		 WHERE id = ?`,
		ad.Title,
		ad.Description,
		ad.Price,
		ad.PhotoPath,
		ad.UpdatedAt,
		ad.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating ad %s: %w", ad.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating ad %s: %w", ad.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("ad", ad.ID)
	}

	return nil
}

// Delete removes an ad.
// Returns apperror.ErrNotFound if the ad doesn't exist.
func (a *AdDB) Delete(ctx context.Context, id string) error {
	res, err := a.conn.ExecContext(ctx, `DELETE FROM ads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting ad %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting ad %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("ad", id)
	}

	return nil
}
