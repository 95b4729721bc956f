package models

import "time"

// User is a registered account. Enabled stays false until the e-mail
// address is verified; disabled users cannot log in.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Enabled      bool
	CreatedAt    time.Time
}

// RoleUser is the role assigned to every self-registered account.
const RoleUser = "USER"
