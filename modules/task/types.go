package task

import (
	"context"
	"time"

	"github.com/example/task-manager/domain/apperror"
	domain "github.com/example/task-manager/domain/task"
)

// CreateInput holds the caller-settable fields of a new task.
type CreateInput struct {
	Title       string         `json:"title" validate:"notblank"`
	Description string         `json:"description,omitempty"`
	DueDate     *time.Time     `json:"dueDate,omitempty"`
	Status      *domain.Status `json:"status,omitempty" validate:"omitnil,taskstatus"`
}

// UpdateInput is a partial update. Nil fields are left untouched; the id,
// owner and timestamps cannot be changed through it.
type UpdateInput struct {
	Title       *string        `json:"title,omitempty" validate:"omitnil,notblank"`
	Description *string        `json:"description,omitempty"`
	Completed   *bool          `json:"completed,omitempty"`
	DueDate     *time.Time     `json:"dueDate,omitempty"`
	Status      *domain.Status `json:"status,omitempty" validate:"omitnil,taskstatus"`
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	OwnerID string      `json:"owner_id"`
	Input   CreateInput `json:"input"`
}

// TaskRequest addresses a single task on behalf of its caller.
type TaskRequest struct {
	OwnerID string `json:"owner_id"`
	TaskID  string `json:"task_id"`
}

// UpdateTaskRequest is the request for updating a task.
type UpdateTaskRequest struct {
	OwnerID string      `json:"owner_id"`
	TaskID  string      `json:"task_id"`
	Patch   UpdateInput `json:"patch"`
}

// ListTasksRequest is the request for listing tasks.
type ListTasksRequest struct {
	OwnerID string `json:"owner_id"`
}

// TaskResponse is the reply carrying a single task.
type TaskResponse struct {
	Task  *domain.Task    `json:"task,omitempty"`
	Error *apperror.Error `json:"error,omitempty"`
}

// ListTasksResponse is the response for listing tasks.
type ListTasksResponse struct {
	Tasks []*domain.Task  `json:"tasks"`
	Total int             `json:"total"`
	Error *apperror.Error `json:"error,omitempty"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool            `json:"deleted"`
	Error   *apperror.Error `json:"error,omitempty"`
}

// TaskPort defines the task operations available to driving adapters such
// as the HTTP API. Every call is scoped to ownerID.
type TaskPort interface {
	Create(ctx context.Context, ownerID string, in CreateInput) (*domain.Task, error)
	List(ctx context.Context, ownerID string) ([]*domain.Task, error)
	Get(ctx context.Context, ownerID, taskID string) (*domain.Task, error)
	Update(ctx context.Context, ownerID, taskID string, patch UpdateInput) (*domain.Task, error)
	Complete(ctx context.Context, ownerID, taskID string) (*domain.Task, error)
	Delete(ctx context.Context, ownerID, taskID string) error
}
