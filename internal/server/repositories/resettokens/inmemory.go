package resettokens

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
	tokens map[string]*models.ResetToken
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{tokens: make(map[string]*models.ResetToken)}
}

func (r *InMemoryRepository) Replace(ctx context.Context, userID string, token string, validity time.Duration) (*models.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, rt := range r.tokens {
		if rt.UserID == userID {
			delete(r.tokens, k)
		}
	}

	rt := &models.ResetToken{
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

func (r *InMemoryRepository) Find(ctx context.Context, token string) (*models.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copy := *rt
	return &copy, nil
}

func (r *InMemoryRepository) MarkUsed(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok || rt.Used {
		return common.ErrTokenUsed
	}
	rt.Used = true
	return nil
}
