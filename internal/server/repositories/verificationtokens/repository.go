// Package verificationtokens declares the repository contract for e-mail
// verification tokens.
package verificationtokens

import (
	"context"
	"time"

	"github.com/fortislabs/fortis/internal/server/models"
)

// Repository persists e-mail verification tokens. At most one live token
// exists per user: Replace removes any prior token before inserting.
type Repository interface {
	// Replace deletes any existing token for userID and stores a new one
	// expiring at now+validity.
	Replace(ctx context.Context, userID string, token string, validity time.Duration) (*models.VerificationToken, error)

	// Find looks up a token by value. Returns common.ErrorNotFound when
	// absent.
	Find(ctx context.Context, token string) (*models.VerificationToken, error)

	// MarkUsed flags the token consumed. Only a not-yet-used token is
	// updated; otherwise common.ErrTokenUsed is returned, making the
	// consume atomic under concurrent attempts.
	MarkUsed(ctx context.Context, token string) error
}
