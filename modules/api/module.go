package api

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/ratelimit"
	"github.com/example/task-manager/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
)

// APIModule is the HTTP API module.
type APIModule struct {
	cfg       *config.Config
	accessLog io.Writer
	app       *fiber.App
	rateLimit *ratelimit.Module

	authAdapter     auth.AuthPort
	taskAdapter     task.TaskPort
	activityAdapter activity.ActivityPort
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule. accessLog may be nil.
func NewModule(cfg *config.Config, accessLog io.Writer) *APIModule {
	return &APIModule{
		cfg:       cfg,
		accessLog: accessLog,
	}
}

// SetRateLimiter enables rate limiting on the register and login routes.
// Must be called before Start.
func (m *APIModule) SetRateLimiter(rl *ratelimit.Module) {
	m.rateLimit = rl
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task", "activity"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "task":
		m.taskAdapter = task.NewTaskAdapter(container)
	case "activity":
		m.activityAdapter = activity.NewActivityAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authAdapter == nil || m.taskAdapter == nil || m.activityAdapter == nil {
		return fmt.Errorf("auth, task and activity dependencies must be set")
	}

	ports := Ports{
		Auth:     m.authAdapter,
		Tasks:    m.taskAdapter,
		Activity: m.activityAdapter,
	}
	if m.rateLimit != nil {
		ports.RateLimit = m.rateLimit.Limit
	}

	app, err := NewApp(Options{
		CORSOrigins: m.cfg.CORSOrigins,
		AccessLog:   m.accessLog,
	}, ports)
	if err != nil {
		return err
	}
	m.app = app

	addr := m.cfg.Addr()
	go func() {
		if err := m.app.Listen(addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr":       m.cfg.Addr(),
			"rate_limit": m.rateLimit != nil,
		},
	}
}
