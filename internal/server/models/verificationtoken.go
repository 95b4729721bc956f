package models

import "time"

// VerificationToken proves control of an e-mail address. At most one live
// token exists per user; consuming an already-used token is answered with
// an "already verified" result instead of an error, so verification links
// stay safely clickable.
type VerificationToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
