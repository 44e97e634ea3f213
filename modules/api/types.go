package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/modules/task"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateTaskRequest is the body of POST /api/tasks. Any other field in the
// body, including completed, is ignored.
type CreateTaskRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	DueDate     *DueDate       `json:"dueDate"`
	Status      *domain.Status `json:"status"`
}

func (r CreateTaskRequest) input() task.CreateInput {
	return task.CreateInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate.Time(),
		Status:      r.Status,
	}
}

// UpdateTaskRequest is the body of PUT /api/tasks/:id. Absent fields are
// left unchanged; id, owner and timestamps are not accepted.
type UpdateTaskRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Completed   *bool          `json:"completed"`
	DueDate     *DueDate       `json:"dueDate"`
	Status      *domain.Status `json:"status"`
}

func (r UpdateTaskRequest) patch() task.UpdateInput {
	return task.UpdateInput{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		DueDate:     r.DueDate.Time(),
		Status:      r.Status,
	}
}

// errInvalidDueDate is returned while decoding a dueDate that is neither a
// calendar date nor an RFC 3339 timestamp.
var errInvalidDueDate = errors.New("dueDate must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")

// DueDate accepts "2006-01-02" or RFC 3339 on input.
type DueDate time.Time

// UnmarshalJSON implements json.Unmarshaler.
func (d *DueDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errInvalidDueDate
	}
	t, err := ParseDueDate(s)
	if err != nil {
		return err
	}
	*d = DueDate(t)
	return nil
}

// Time returns the value as a *time.Time, nil for a nil receiver.
func (d *DueDate) Time() *time.Time {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	return &t
}

// ParseDueDate parses a calendar date (as UTC midnight) or an RFC 3339 timestamp.
func ParseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", errInvalidDueDate, s)
}
