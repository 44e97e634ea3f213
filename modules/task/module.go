package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/task-manager/domain/apperror"
	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/events"
	"github.com/example/task-manager/store"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskModule provides task management services.
type TaskModule struct {
	handle  store.Handle
	service *Service
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a TaskModule backed by the given task store.
func NewModule(repo domain.Repository, handle store.Handle) *TaskModule {
	return &TaskModule{
		handle:  handle,
		service: NewService(repo, nil),
	}
}

func (m *TaskModule) Name() string {
	return "task"
}

// Service exposes the in-process service.
func (m *TaskModule) Service() *Service {
	return m.service
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.service.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskCompletedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "complete-task", json.Unmarshal, json.Marshal, m.completeTask,
	); err != nil {
		return fmt.Errorf("failed to register complete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	log.Printf("[task] Registered services: create-task, list-tasks, get-task, update-task, complete-task, delete-task")
	return nil
}

func (m *TaskModule) Start(ctx context.Context) error {
	if err := m.handle.Ping(ctx); err != nil {
		return fmt.Errorf("task store unavailable: %w", err)
	}
	if m.service.eventBus == nil {
		log.Println("[task] Warning: eventBus not set, events will not be published")
	}
	log.Printf("[task] Module started (store: %s)", m.handle.Describe())
	return nil
}

func (m *TaskModule) Stop(ctx context.Context) error {
	if err := m.handle.Close(ctx); err != nil {
		log.Printf("[task] Warning: failed to close task store: %v", err)
	}
	log.Println("[task] Module stopped")
	return nil
}

func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if err := m.handle.Ping(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"store": m.handle.Describe()},
	}
}

// Service handlers. Domain failures are returned in the reply so they
// keep their code across the container hop.

func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Create(ctx, req.OwnerID, req.Input)
	return taskReply(t, err)
}

func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.service.List(ctx, req.OwnerID)
	if ae, ok := apperror.As(err); ok {
		return ListTasksResponse{Tasks: []*domain.Task{}, Error: ae}, nil
	}
	if err != nil {
		return ListTasksResponse{}, err
	}
	return ListTasksResponse{Tasks: tasks, Total: len(tasks)}, nil
}

func (m *TaskModule) getTask(ctx context.Context, req TaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Get(ctx, req.OwnerID, req.TaskID)
	return taskReply(t, err)
}

func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Update(ctx, req.OwnerID, req.TaskID, req.Patch)
	return taskReply(t, err)
}

func (m *TaskModule) completeTask(ctx context.Context, req TaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Complete(ctx, req.OwnerID, req.TaskID)
	return taskReply(t, err)
}

func (m *TaskModule) deleteTask(ctx context.Context, req TaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	err := m.service.Delete(ctx, req.OwnerID, req.TaskID)
	if ae, ok := apperror.As(err); ok {
		return DeleteTaskResponse{Deleted: false, Error: ae}, nil
	}
	if err != nil {
		return DeleteTaskResponse{Deleted: false}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}

func taskReply(t *domain.Task, err error) (TaskResponse, error) {
	if ae, ok := apperror.As(err); ok {
		return TaskResponse{Error: ae}, nil
	}
	if err != nil {
		return TaskResponse{}, err
	}
	return TaskResponse{Task: t}, nil
}
