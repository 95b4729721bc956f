// Package refreshtokens declares the repository contract for managing
// refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/fortislabs/fortis/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking
// refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of
	// now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) (*models.RefreshToken, error)

	// Find looks up a refresh token by its opaque token string.
	// Returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Revoke marks the token revoked. The update only applies to a live
	// token: revoking an already-revoked or absent token returns
	// common.ErrorNotFound, which gives callers an atomic
	// check-and-set for single-use consumption.
	Revoke(ctx context.Context, token string) error

	// RevokeAllForUser marks every live refresh token of the user revoked.
	RevokeAllForUser(ctx context.Context, userID string) error
}
