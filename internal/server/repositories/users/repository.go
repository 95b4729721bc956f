// Package users declares the repository contract for account records.
package users

import (
	"context"

	"github.com/fortislabs/fortis/internal/server/models"
)

// Repository defines persistence operations for users. Implementations
// return common.ErrorNotFound when a lookup matches nothing and
// common.ErrorConflict when a unique constraint (e-mail) is violated.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)

	// SetEnabled flips the account's enabled flag (e-mail verification).
	SetEnabled(ctx context.Context, id string, enabled bool) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}
