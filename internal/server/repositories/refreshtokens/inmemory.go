package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/fortislabs/fortis/internal/common"
	"github.com/fortislabs/fortis/internal/server/models"
	"github.com/google/uuid"
)

// InMemoryRepository is a map-backed Repository used in tests.
type InMemoryRepository struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{tokens: make(map[string]*models.RefreshToken)}
}

func (r *InMemoryRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(validity),
		CreatedAt: time.Now(),
	}
	r.tokens[token] = rt

	copy := *rt
	return &copy, nil
}

func (r *InMemoryRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copy := *rt
	return &copy, nil
}

func (r *InMemoryRepository) Revoke(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok || rt.Revoked {
		return common.ErrorNotFound
	}
	rt.Revoked = true
	return nil
}

func (r *InMemoryRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rt := range r.tokens {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}
