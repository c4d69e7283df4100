// Package repository is the data-access boundary. Services depend on these
// interfaces; the MySQL and Redis types below are the production implementations.
package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"store-manager/internal/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrDuplicateOwner = errors.New("owner already has a store")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	// FindByEmail filters by role too unless role is the zero value.
	FindByEmail(ctx context.Context, email string, role models.Role) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type StoreRepository interface {
	FindByOwner(ctx context.Context, ownerID int64) (*models.Store, error)
	ExistsByOwner(ctx context.Context, ownerID int64) (bool, error)
	Create(ctx context.Context, store *models.Store) error
	UpdateByOwner(ctx context.Context, store *models.Store) error
	DeleteByOwner(ctx context.Context, ownerID int64) error
	ListWithOwners(ctx context.Context) ([]models.StoreListing, error)
}

type ResetTokenRepository interface {
	// Save stores a reset token and discards any earlier token of the same user.
	Save(ctx context.Context, reset *models.PasswordReset) error
	// Consume marks the token used and returns its user. Unknown, expired and
	// already used tokens all yield ErrNotFound.
	Consume(ctx context.Context, tokenHash string, now time.Time) (int64, error)
}

var (
	_ UserRepository       = (*UserMySQL)(nil)
	_ StoreRepository      = (*StoreMySQL)(nil)
	_ ResetTokenRepository = (*ResetTokenMySQL)(nil)
	_ ResetTokenRepository = (*ResetTokenRedis)(nil)
)
