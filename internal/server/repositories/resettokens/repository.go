// Package resettokens declares the repository contract for password-reset
// tokens.
package resettokens

import (
	"context"
	"time"

	"github.com/fortislabs/fortis/internal/server/models"
)

// Repository persists password-reset tokens. Requesting a new token
// invalidates the previous one: Replace deletes any outstanding token for
// the user before inserting, so at most one is ever live.
type Repository interface {
	Replace(ctx context.Context, userID string, token string, validity time.Duration) (*models.ResetToken, error)

	// Find looks up a token by value. Returns common.ErrorNotFound when
	// absent.
	Find(ctx context.Context, token string) (*models.ResetToken, error)

	// MarkUsed flags the token consumed; a second attempt returns
	// common.ErrTokenUsed (atomic check-and-set).
	MarkUsed(ctx context.Context, token string) error
}
