// Package tasks declares the repository contract for user-owned tasks.
package tasks

import (
	"context"

	"github.com/fortislabs/fortis/internal/server/models"
)

// Repository persists tasks. Lookups by ID return the task regardless of
// owner; ownership checks belong to the service layer.
type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
}
