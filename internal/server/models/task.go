package models

import "time"

// Task is a user-owned to-do item. Ownership is enforced in the service
// layer: a task is only visible to the user it belongs to.
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
}
