package task

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Repository when no task has the given id.
var ErrNotFound = errors.New("task not found")

// Status represents the workflow state of a task.
type Status string

const (
	StatusPending    Status = "pendiente"
	StatusInProgress Status = "en progreso"
	StatusBlocked    Status = "bloqueada"
	StatusCompleted  Status = "completada"
)

// Statuses lists every accepted status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusBlocked, StatusCompleted}

// Valid reports whether s is one of the accepted statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusBlocked, StatusCompleted:
		return true
	}
	return false
}

// Task is a unit of work owned by exactly one user.
//
// Completed and Status are independent: neither is derived from the other.
type Task struct {
	ID          string     `json:"_id" gorm:"primaryKey;type:text"`
	Title       string     `json:"title" gorm:"not null;type:text"`
	Description string     `json:"description,omitempty" gorm:"type:text"`
	Completed   bool       `json:"completed" gorm:"not null"`
	OwnerID     string     `json:"userId" gorm:"index;not null;type:text"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Status      Status     `json:"status" gorm:"not null;type:text"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}

// Repository is the task store.
//
// ListByOwner returns tasks in insertion order.
type Repository interface {
	Create(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, id string) (*Task, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error
}
