package service

import (
	"context"
	"time"

	"backoffice/api/internal/models"
	"backoffice/api/internal/repository"
)

// AdminStore is the credential store. Implementations report missing rows as
// repository.ErrAdminNotFound and duplicate emails as repository.ErrEmailTaken.
type AdminStore interface {
	Create(ctx context.Context, admin models.Admin) (models.Admin, error)
	GetByID(ctx context.Context, id string) (models.Admin, error)
	FindByEmail(ctx context.Context, email string) (models.Admin, error)
	FindActiveByEmail(ctx context.Context, email string) (models.Admin, error)
	List(ctx context.Context) ([]models.Admin, error)
	Update(ctx context.Context, id string, update repository.AdminUpdate) (models.Admin, error)
	Delete(ctx context.Context, id string) (models.Admin, error)

	SetRefreshTokenHash(ctx context.Context, id string, hash *string) error
	SwapRefreshTokenHash(ctx context.Context, id string, expected string, next string) error
	ClearStaleRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

type CategoryStore interface {
	Create(ctx context.Context, category models.Category) (models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (models.Category, error)
	Update(ctx context.Context, id string, update repository.CategoryUpdate) (models.Category, error)
	Delete(ctx context.Context, id string) (models.Category, error)
}

// TokenRevocations blocks access tokens that were logged out before expiry.
type TokenRevocations interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
