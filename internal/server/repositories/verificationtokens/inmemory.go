package verificationtokens

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
	tokens map[string]*models.VerificationToken
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{tokens: make(map[string]*models.VerificationToken)}
}

func (r *InMemoryRepository) Replace(ctx context.Context, userID string, token string, validity time.Duration) (*models.VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, vt := range r.tokens {
		if vt.UserID == userID {
			delete(r.tokens, k)
		}
	}

	vt := &models.VerificationToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(validity),
		CreatedAt: time.Now(),
	}
	r.tokens[token] = vt

	copy := *vt
	return &copy, nil
}

func (r *InMemoryRepository) Find(ctx context.Context, token string) (*models.VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	vt, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copy := *vt
	return &copy, nil
}

func (r *InMemoryRepository) MarkUsed(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	vt, ok := r.tokens[token]
	if !ok || vt.Used {
		return common.ErrTokenUsed
	}
	vt.Used = true
	return nil
}
