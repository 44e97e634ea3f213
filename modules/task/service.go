package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/task-manager/domain/apperror"
	"github.com/example/task-manager/domain/objectid"
	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/events"
	"github.com/example/task-manager/validation"
	"github.com/go-monolith/mono"
)

// Service implements the task use cases on top of a Repository.
type Service struct {
	repo     domain.Repository
	eventBus mono.EventBus
	now      func() time.Time
}

var _ TaskPort = (*Service)(nil)

// NewService creates a Service. bus may be nil, in which case no events
// are published.
func NewService(repo domain.Repository, bus mono.EventBus) *Service {
	return &Service{
		repo:     repo,
		eventBus: bus,
		now:      time.Now,
	}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Create stores a new open task for ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*domain.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	now := s.timestamp()
	newTask := &domain.Task{
		ID:          objectid.New(),
		Title:       in.Title,
		Description: in.Description,
		Completed:   false,
		OwnerID:     ownerID,
		DueDate:     normalizeDate(in.DueDate),
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Status != nil {
		newTask.Status = *in.Status
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	s.publish("TaskCreated", newTask.ID, func(bus mono.EventBus) error {
		return events.TaskCreatedV1.Publish(bus, events.TaskCreatedEvent{
			TaskID:    newTask.ID,
			Title:     newTask.Title,
			Status:    string(newTask.Status),
			UserID:    newTask.OwnerID,
			CreatedAt: newTask.CreatedAt,
		}, nil)
	})

	return newTask, nil
}

// List returns the owner's tasks in insertion order. It never returns nil.
func (s *Service) List(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	tasks, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

// Get returns a single task owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	return s.load(ctx, ownerID, taskID)
}

// Update applies patch and returns the stored task.
func (s *Service) Update(ctx context.Context, ownerID, taskID string, patch UpdateInput) (*domain.Task, error) {
	t, err := s.load(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}

	changed := apply(t, patch)
	if len(changed) == 0 {
		return t, nil
	}
	t.UpdatedAt = s.timestamp()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, s.storeError("update", err)
	}

	s.publish("TaskUpdated", t.ID, func(bus mono.EventBus) error {
		return events.TaskUpdatedV1.Publish(bus, events.TaskUpdatedEvent{
			TaskID:    t.ID,
			UserID:    t.OwnerID,
			Fields:    changed,
			UpdatedAt: t.UpdatedAt,
		}, nil)
	})

	return t, nil
}

// Complete marks the task completed. Completing a completed task succeeds
// without writing.
func (s *Service) Complete(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	t, err := s.load(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	if t.Completed {
		return t, nil
	}

	t.Completed = true
	t.UpdatedAt = s.timestamp()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, s.storeError("complete", err)
	}

	s.publish("TaskCompleted", t.ID, func(bus mono.EventBus) error {
		return events.TaskCompletedV1.Publish(bus, events.TaskCompletedEvent{
			TaskID:      t.ID,
			UserID:      t.OwnerID,
			CompletedAt: t.UpdatedAt,
		}, nil)
	})

	return t, nil
}

// Delete permanently removes the task.
func (s *Service) Delete(ctx context.Context, ownerID, taskID string) error {
	t, err := s.load(ctx, ownerID, taskID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, t.ID); err != nil {
		return s.storeError("delete", err)
	}

	s.publish("TaskDeleted", t.ID, func(bus mono.EventBus) error {
		return events.TaskDeletedV1.Publish(bus, events.TaskDeletedEvent{
			TaskID:    t.ID,
			UserID:    t.OwnerID,
			DeletedAt: s.timestamp(),
		}, nil)
	})

	return nil
}

// load checks the id format, then existence, then ownership.
func (s *Service) load(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	id, ok := objectid.Parse(taskID)
	if !ok {
		return nil, apperror.ErrInvalidIdentifier
	}

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if t.OwnerID != ownerID {
		return nil, apperror.ErrForbidden
	}
	return t, nil
}

func (s *Service) storeError(op string, err error) error {
	// Deleted concurrently between load and write.
	if errors.Is(err, domain.ErrNotFound) {
		return apperror.ErrNotFound
	}
	return fmt.Errorf("failed to %s task: %w", op, err)
}

func (s *Service) publish(name, taskID string, fn func(mono.EventBus) error) {
	if s.eventBus == nil {
		return
	}
	if err := fn(s.eventBus); err != nil {
		// Event publishing is best-effort; log but don't fail the operation
		log.Printf("[task] Warning: failed to publish %s event for task %s: %v", name, taskID, err)
	}
}

// apply copies the non-nil patch fields onto t and returns the JSON names
// of the fields whose value changed.
func apply(t *domain.Task, patch UpdateInput) []string {
	var changed []string

	if patch.Title != nil && *patch.Title != t.Title {
		t.Title = *patch.Title
		changed = append(changed, "title")
	}
	if patch.Description != nil && *patch.Description != t.Description {
		t.Description = *patch.Description
		changed = append(changed, "description")
	}
	if patch.Completed != nil && *patch.Completed != t.Completed {
		t.Completed = *patch.Completed
		changed = append(changed, "completed")
	}
	if due := normalizeDate(patch.DueDate); due != nil && (t.DueDate == nil || !due.Equal(*t.DueDate)) {
		t.DueDate = due
		changed = append(changed, "dueDate")
	}
	if patch.Status != nil && *patch.Status != t.Status {
		t.Status = *patch.Status
		changed = append(changed, "status")
	}

	return changed
}

func normalizeDate(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	v := d.UTC().Truncate(time.Millisecond)
	return &v
}
