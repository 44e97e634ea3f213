// Package activity keeps a per-user audit trail of account and task events.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/example/task-manager/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	nanoid "github.com/jaevor/go-nanoid"
)

// DefaultCapacity is the number of entries kept per user.
const DefaultCapacity = 50

// Entry types.
const (
	TypeUserRegistered = "user_registered"
	TypeTaskCreated    = "task_created"
	TypeTaskUpdated    = "task_updated"
	TypeTaskCompleted  = "task_completed"
	TypeTaskDeleted    = "task_deleted"
)

// Entry is one recorded event.
type Entry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TaskID    string    `json:"taskId,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityPort reads a user's recent activity.
type ActivityPort interface {
	Recent(ctx context.Context, userID string, limit int) ([]Entry, error)
}

// ActivityModule consumes domain events and records them per user.
type ActivityModule struct {
	capacity int
	newID    func() string
	entries  map[string][]Entry
	mu       sync.RWMutex
}

var _ mono.Module = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)
var _ mono.ServiceProviderModule = (*ActivityModule)(nil)
var _ ActivityPort = (*ActivityModule)(nil)

// NewModule creates an ActivityModule keeping capacity entries per user.
func NewModule(capacity int) (*ActivityModule, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	gen, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}
	return &ActivityModule{
		capacity: capacity,
		newID:    gen,
		entries:  make(map[string][]Entry),
	}, nil
}

func (m *ActivityModule) Name() string {
	return "activity"
}

func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.UserRegisteredV1, m.handleUserRegistered, m); err != nil {
		return fmt.Errorf("failed to register UserRegistered consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletedV1, m.handleTaskCompleted, m); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	log.Printf("[activity] Registered event consumers: UserRegistered, TaskCreated, TaskUpdated, TaskCompleted, TaskDeleted")
	return nil
}

func (m *ActivityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-activity", json.Unmarshal, json.Marshal, m.listActivity,
	); err != nil {
		return fmt.Errorf("failed to register list-activity service: %w", err)
	}
	return nil
}

func (m *ActivityModule) handleUserRegistered(ctx context.Context, event events.UserRegisteredEvent, _ *mono.Msg) error {
	slog.InfoContext(ctx, "user registered", "user_id", event.UserID)
	m.record(event.UserID, Entry{
		Type:      TypeUserRegistered,
		Message:   fmt.Sprintf("Welcome, %s", event.Name),
		Timestamp: event.RegisteredAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskCreated(ctx context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	slog.InfoContext(ctx, "task created", "task_id", event.TaskID, "user_id", event.UserID)
	m.record(event.UserID, Entry{
		Type:      TypeTaskCreated,
		TaskID:    event.TaskID,
		Message:   fmt.Sprintf("Task '%s' created", event.Title),
		Timestamp: event.CreatedAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskUpdated(ctx context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	slog.InfoContext(ctx, "task updated", "task_id", event.TaskID, "user_id", event.UserID, "fields", event.Fields)
	m.record(event.UserID, Entry{
		Type:      TypeTaskUpdated,
		TaskID:    event.TaskID,
		Message:   fmt.Sprintf("Task %s updated: %v", event.TaskID, event.Fields),
		Timestamp: event.UpdatedAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskCompleted(ctx context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	slog.InfoContext(ctx, "task completed", "task_id", event.TaskID, "user_id", event.UserID)
	m.record(event.UserID, Entry{
		Type:      TypeTaskCompleted,
		TaskID:    event.TaskID,
		Message:   fmt.Sprintf("Task %s completed!", event.TaskID),
		Timestamp: event.CompletedAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskDeleted(ctx context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	slog.InfoContext(ctx, "task deleted", "task_id", event.TaskID, "user_id", event.UserID)
	m.record(event.UserID, Entry{
		Type:      TypeTaskDeleted,
		TaskID:    event.TaskID,
		Message:   fmt.Sprintf("Task %s deleted", event.TaskID),
		Timestamp: event.DeletedAt,
	})
	return nil
}

// record appends e to the user's trail, dropping the oldest entry when full.
func (m *ActivityModule) record(userID string, e Entry) {
	if userID == "" {
		return
	}
	e.ID = m.newID()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	trail := append(m.entries[userID], e)
	if len(trail) > m.capacity {
		trail = append([]Entry(nil), trail[len(trail)-m.capacity:]...)
	}
	m.entries[userID] = trail
}

// Recent returns up to limit entries for the user, newest first. A limit
// of zero or less returns everything kept.
func (m *ActivityModule) Recent(_ context.Context, userID string, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	trail := m.entries[userID]
	n := len(trail)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]Entry, 0, n)
	for i := len(trail) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, trail[i])
	}
	return result, nil
}

func (m *ActivityModule) Start(_ context.Context) error {
	log.Println("[activity] Module started - listening for user and task events")
	return nil
}

func (m *ActivityModule) Stop(_ context.Context) error {
	log.Println("[activity] Module stopped")
	return nil
}
