package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortislabs/fortis/internal/common"
	"github.com/fortislabs/fortis/internal/logging"
	"github.com/fortislabs/fortis/internal/server/models"
	"github.com/fortislabs/fortis/internal/server/repositories/repomanager"
)

// TaskService manages per-user tasks. Every operation is scoped to the
// calling user; touching another user's task fails Forbidden regardless of
// whether the task exists.
type TaskService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

func NewTaskService(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger) *TaskService {
	return &TaskService{
		db:     db,
		repos:  repos,
		logger: logger.With("module", "task_service"),
	}
}

func (s *TaskService) Create(ctx context.Context, userID, title, description string) (*models.Task, error) {
	task := &models.Task{
		UserID:      userID,
		Title:       title,
		Description: description,
	}

	created, err := s.repos.Tasks(s.db).Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}

	return created, nil
}

func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*models.Task, error) {
	return s.getOwned(ctx, userID, taskID)
}

func (s *TaskService) List(ctx context.Context, userID string) ([]*models.Task, error) {
	items, err := s.repos.Tasks(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	return items, nil
}

func (s *TaskService) Update(ctx context.Context, userID, taskID, title, description string, completed bool) (*models.Task, error) {
	task, err := s.getOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	task.Title = title
	task.Description = description
	task.Completed = completed

	if err := s.repos.Tasks(s.db).Update(ctx, task); err != nil {
		return nil, fmt.Errorf("error updating task: %w", err)
	}

	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	if _, err := s.getOwned(ctx, userID, taskID); err != nil {
		return err
	}

	if err := s.repos.Tasks(s.db).Delete(ctx, taskID); err != nil {
		return fmt.Errorf("error deleting task: %w", err)
	}

	return nil
}

// getOwned loads the task and enforces ownership.
func (s *TaskService) getOwned(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := s.repos.Tasks(s.db).GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error searching task: %w", err)
	}

	if task.UserID != userID {
		return nil, common.ErrorForbidden
	}

	return task, nil
}
