package models

import "time"

// ResetToken authorizes a single password change. Requesting a new reset
// token deletes any outstanding one for the same user.
type ResetToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
