// Package client is the state layer of the task manager front end. It talks
// to the HTTP API, keeps the session token, and holds the view state a UI
// renders from.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/gofiber/fiber/v2"
)

// DefaultTimeout bounds a single API call when the context has no deadline.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// AuthResult is the body of a successful register or login.
type AuthResult struct {
	User  user.Profile `json:"user"`
	Token string       `json:"token"`
}

// LogoutResult is the body of a logout.
type LogoutResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TaskInput is the body of a task creation.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// DueDate is "YYYY-MM-DD" or RFC 3339.
	DueDate string `json:"dueDate,omitempty"`
	Status  string `json:"status,omitempty"`
}

// TaskPatch is the body of a task update. Nil fields are not sent.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// ActivityEntry is one line of the activity feed.
type ActivityEntry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TaskID    string    `json:"taskId,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// APIClient calls the task manager HTTP API.
type APIClient struct {
	baseURL string
	client  *fiber.Client
	timeout time.Duration
}

// NewAPIClient creates a client for the server at baseURL, e.g.
// "http://localhost:3000".
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		client:  &fiber.Client{UserAgent: "taskctl"},
		timeout: DefaultTimeout,
	}
}

// BaseURL returns the API root the client sends requests to.
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

func (c *APIClient) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, fiber.MethodPost, "/users/register", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, fiber.MethodPost, "/users/login", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) Logout(ctx context.Context) (*LogoutResult, error) {
	var out LogoutResult
	if err := c.do(ctx, fiber.MethodPost, "/users/logout", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the caller behind token.
func (c *APIClient) Me(ctx context.Context, token string) (*user.Identity, error) {
	var out user.Identity
	if err := c.do(ctx, fiber.MethodGet, "/users/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) ListTasks(ctx context.Context, token string) ([]task.Task, error) {
	var out []task.Task
	if err := c.do(ctx, fiber.MethodGet, "/tasks", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) GetTask(ctx context.Context, token, id string) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, fiber.MethodGet, "/tasks/"+id, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) CreateTask(ctx context.Context, token string, in TaskInput) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, fiber.MethodPost, "/tasks", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) UpdateTask(ctx context.Context, token, id string, patch TaskPatch) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, fiber.MethodPut, "/tasks/"+id, token, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) CompleteTask(ctx context.Context, token, id string) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, fiber.MethodPatch, "/tasks/"+id+"/complete", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) DeleteTask(ctx context.Context, token, id string) error {
	return c.do(ctx, fiber.MethodDelete, "/tasks/"+id, token, nil, nil)
}

func (c *APIClient) Activity(ctx context.Context, token string, limit int) ([]ActivityEntry, error) {
	var out []ActivityEntry
	path := fmt.Sprintf("/activity?limit=%d", limit)
	if err := c.do(ctx, fiber.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do sends one request. The agent has no context support, so the context
// only contributes its deadline and an early cancellation check.
func (c *APIClient) do(ctx context.Context, method, path, token string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	agent := c.agent(method, c.baseURL+path)
	agent.Timeout(c.requestTimeout(ctx))
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		agent.JSON(body)
	}

	status, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(errs...))
	}

	if status < 200 || status >= 300 {
		return decodeError(status, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *APIClient) agent(method, url string) *fiber.Agent {
	switch method {
	case fiber.MethodPost:
		return c.client.Post(url)
	case fiber.MethodPut:
		return c.client.Put(url)
	case fiber.MethodPatch:
		return c.client.Patch(url)
	case fiber.MethodDelete:
		return c.client.Delete(url)
	default:
		return c.client.Get(url)
	}
}

func (c *APIClient) requestTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < c.timeout {
			return left
		}
	}
	return c.timeout
}

func decodeError(status int, raw []byte) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		body.Message = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: body.Message}
}
