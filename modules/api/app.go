package api

import (
	"fmt"
	"io"

	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	nanoid "github.com/jaevor/go-nanoid"
)

// Ports are the services the HTTP layer talks to.
type Ports struct {
	Auth     auth.AuthPort
	Tasks    task.TaskPort
	Activity activity.ActivityPort
	// RateLimit returns the limiter for a route scope. Nil disables limiting.
	RateLimit func(scope string) fiber.Handler
}

// Options tune the Fiber app.
type Options struct {
	CORSOrigins string
	// AccessLog receives one line per request. Nil disables access logging.
	AccessLog io.Writer
}

// NewApp builds the Fiber application with middleware and routes.
func NewApp(opts Options, ports Ports) (*fiber.App, error) {
	if ports.Auth == nil || ports.Tasks == nil || ports.Activity == nil {
		return nil, fmt.Errorf("api: auth, task and activity ports are required")
	}

	newID, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("failed to create request id generator: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator:  newID,
		ContextKey: RequestIDContextKey,
	}))
	if opts.AccessLog != nil {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
			Output: opts.AccessLog,
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	setupRoutes(app, NewHandlers(ports.Auth, ports.Tasks, ports.Activity), ports)
	return app, nil
}

// setupRoutes configures all API routes.
func setupRoutes(app *fiber.App, handlers *Handlers, ports Ports) {
	limit := func(scope string) fiber.Handler {
		if ports.RateLimit == nil {
			return func(c *fiber.Ctx) error { return c.Next() }
		}
		return ports.RateLimit(scope)
	}
	requireAuth := AuthMiddleware(ports.Auth)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	api := app.Group("/api")

	users := api.Group("/users")
	users.Post("/register", limit("register"), handlers.Register)
	users.Post("/login", limit("login"), handlers.Login)
	users.Post("/logout", handlers.Logout)
	users.Get("/me", requireAuth, handlers.Me)

	tasks := api.Group("/tasks", requireAuth)
	tasks.Post("/", handlers.CreateTask)
	tasks.Get("/", handlers.ListTasks)
	tasks.Get("/:id", handlers.GetTask)
	tasks.Put("/:id", handlers.UpdateTask)
	tasks.Patch("/:id/complete", handlers.CompleteTask)
	tasks.Delete("/:id", handlers.DeleteTask)

	api.Get("/activity", requireAuth, handlers.Activity)
}
