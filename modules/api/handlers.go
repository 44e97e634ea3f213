package api

import (
	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
	"github.com/gofiber/fiber/v2"
)

// defaultActivityLimit caps GET /api/activity when no limit is given.
const defaultActivityLimit = 20

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth     auth.AuthPort
	tasks    task.TaskPort
	activity activity.ActivityPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, taskPort task.TaskPort, activityPort activity.ActivityPort) *Handlers {
	return &Handlers{
		auth:     authPort,
		tasks:    taskPort,
		activity: activityPort,
	}
}

// Register handles POST /api/users/register.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(err)
	}

	result, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Login handles POST /api/users/login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(err)
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Logout handles POST /api/users/logout.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	return c.JSON(h.auth.Logout())
}

// Me handles GET /api/users/me.
func (h *Handlers) Me(c *fiber.Ctx) error {
	return c.JSON(identityFrom(c))
}

// CreateTask handles POST /api/tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(err)
	}

	created, err := h.tasks.Create(c.UserContext(), identityFrom(c).ID, req.input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListTasks handles GET /api/tasks.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.List(c.UserContext(), identityFrom(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(tasks)
}

// GetTask handles GET /api/tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	found, err := h.tasks.Get(c.UserContext(), identityFrom(c).ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(found)
}

// UpdateTask handles PUT /api/tasks/:id.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(err)
	}

	updated, err := h.tasks.Update(c.UserContext(), identityFrom(c).ID, c.Params("id"), req.patch())
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// CompleteTask handles PATCH /api/tasks/:id/complete.
func (h *Handlers) CompleteTask(c *fiber.Ctx) error {
	completed, err := h.tasks.Complete(c.UserContext(), identityFrom(c).ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(completed)
}

// DeleteTask handles DELETE /api/tasks/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	if err := h.tasks.Delete(c.UserContext(), identityFrom(c).ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Activity handles GET /api/activity.
func (h *Handlers) Activity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultActivityLimit)
	entries, err := h.activity.Recent(c.UserContext(), identityFrom(c).ID, limit)
	if err != nil {
		return err
	}
	return c.JSON(entries)
}
