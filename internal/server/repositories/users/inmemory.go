package users

import (
	"context"
	"sync"

	"github.com/fortislabs/fortis/internal/common"
	"github.com/fortislabs/fortis/internal/server/models"
	"github.com/google/uuid"
)

// InMemoryRepository is a map-backed Repository used in tests.
type InMemoryRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{users: make(map[string]*models.User)}
}

func (r *InMemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, common.ErrorConflict
		}
	}

	u := *user
	u.ID = uuid.NewString()
	r.users[u.ID] = &u

	copy := u
	return &copy, nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copy := *u
	return &copy, nil
}

func (r *InMemoryRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Enabled = enabled
	return nil
}

func (r *InMemoryRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}
