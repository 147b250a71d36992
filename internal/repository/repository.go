// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage is the production implementation;
// tests use in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/adboard/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists user accounts.
//
// Create enforces case-insensitive email uniqueness ATOMICALLY — the
// implementation must rely on a storage-level constraint, not a
// read-then-write check, so two concurrent registrations of the same email
// race safely: exactly one wins, the other gets apperror.ErrConflict.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)
}

// AdRepository persists classified listings.
type AdRepository interface {
	Create(ctx context.Context, ad *model.Ad) error
	GetByID(ctx context.Context, id string) (*model.Ad, error)
	List(ctx context.Context, opts ListOptions) ([]model.Ad, error)
	Update(ctx context.Context, ad *model.Ad) error
	Delete(ctx context.Context, id string) error
}
