// Package memstore provides in-memory stores for development and tests.
package memstore

import (
	"context"
	"sync"

	domain "github.com/example/task-manager/domain/task"
)

// TaskRepository keeps tasks in a map and remembers insertion order.
type TaskRepository struct {
	tasks map[string]*domain.Task
	order []string
	mu    sync.RWMutex
}

var _ domain.Repository = (*TaskRepository)(nil)

// NewTaskRepository creates a new task repository.
func NewTaskRepository() *TaskRepository {
	return &TaskRepository{
		tasks: make(map[string]*domain.Task),
	}
}

// Create stores a copy of the task.
func (r *TaskRepository) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[task.ID]; !exists {
		r.order = append(r.order, task.ID)
	}
	r.tasks[task.ID] = task.Clone()
	return nil
}

// FindByID finds a task by ID.
func (r *TaskRepository) FindByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, found := r.tasks[id]
	if !found {
		return nil, domain.ErrNotFound
	}
	return task.Clone(), nil
}

// ListByOwner returns the owner's tasks in insertion order.
func (r *TaskRepository) ListByOwner(_ context.Context, ownerID string) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Task, 0)
	for _, id := range r.order {
		if task := r.tasks[id]; task.OwnerID == ownerID {
			result = append(result, task.Clone())
		}
	}
	return result, nil
}

// Update replaces a stored task.
func (r *TaskRepository) Update(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.tasks[task.ID]; !found {
		return domain.ErrNotFound
	}
	r.tasks[task.ID] = task.Clone()
	return nil
}

// Delete deletes a task by ID.
func (r *TaskRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.tasks[id]; !found {
		return domain.ErrNotFound
	}
	delete(r.tasks, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
