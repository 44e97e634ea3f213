package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-manager/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter wraps ServiceContainer for type-safe cross-module communication.
// This is the adapter that implements the TaskPort interface.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer from the task module received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// Create creates a task via the create-task service.
func (a *taskAdapter) Create(ctx context.Context, ownerID string, in CreateInput) (*domain.Task, error) {
	req := CreateTaskRequest{OwnerID: ownerID, Input: in}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"create-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("create-task service call failed: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Task, nil
}

// List lists the owner's tasks via the list-tasks service.
func (a *taskAdapter) List(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	req := ListTasksRequest{OwnerID: ownerID}
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-tasks",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-tasks service call failed: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if resp.Tasks == nil {
		resp.Tasks = []*domain.Task{}
	}
	return resp.Tasks, nil
}

// Get fetches a task via the get-task service.
func (a *taskAdapter) Get(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	return a.single(ctx, "get-task", TaskRequest{OwnerID: ownerID, TaskID: taskID})
}

// Update patches a task via the update-task service.
func (a *taskAdapter) Update(ctx context.Context, ownerID, taskID string, patch UpdateInput) (*domain.Task, error) {
	req := UpdateTaskRequest{OwnerID: ownerID, TaskID: taskID, Patch: patch}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("update-task service call failed: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Task, nil
}

// Complete completes a task via the complete-task service.
func (a *taskAdapter) Complete(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	return a.single(ctx, "complete-task", TaskRequest{OwnerID: ownerID, TaskID: taskID})
}

// Delete deletes a task via the delete-task service.
func (a *taskAdapter) Delete(ctx context.Context, ownerID, taskID string) error {
	req := TaskRequest{OwnerID: ownerID, TaskID: taskID}
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("delete-task service call failed: %w", err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if !resp.Deleted {
		return fmt.Errorf("task not deleted: %s", taskID)
	}
	return nil
}

func (a *taskAdapter) single(ctx context.Context, service string, req TaskRequest) (*domain.Task, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", service, err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Task, nil
}
