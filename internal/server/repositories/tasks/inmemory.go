package tasks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fortislabs/fortis/internal/common"
	"github.com/fortislabs/fortis/internal/server/models"
	"github.com/google/uuid"
)

// InMemoryRepository is a map-backed Repository used in tests.
type InMemoryRepository struct {
	mu    sync.Mutex
	tasks map[string]*models.Task
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{tasks: make(map[string]*models.Task)}
}

func (r *InMemoryRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := *task
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	r.tasks[t.ID] = &t

	copy := t
	return &copy, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copy := *t
	return &copy, nil
}

func (r *InMemoryRepository) ListByUser(ctx context.Context, userID string) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.Task
	for _, t := range r.tasks {
		if t.UserID == userID {
			copy := *t
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[task.ID]
	if !ok {
		return common.ErrorNotFound
	}
	t.Title = task.Title
	t.Description = task.Description
	t.Completed = task.Completed
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.tasks, id)
	return nil
}
