package models

import "time"

// RefreshToken is an opaque server-stored credential exchanged for a new
// access token. A token is usable at most once: exchanging it revokes it
// and issues a replacement.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}
