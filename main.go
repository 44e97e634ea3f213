package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/domain/ratelimit"
	"github.com/example/task-manager/logging"
	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/modules/api"
	"github.com/example/task-manager/modules/auth"
	ratelimitmod "github.com/example/task-manager/modules/ratelimit"
	"github.com/example/task-manager/modules/task"
	"github.com/example/task-manager/store"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting task manager", "addr", cfg.Addr(), "store", cfg.StoreDriver)

	ctx := context.Background()

	users, usersHandle, err := store.OpenUsers(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open user store: %v", err)
	}
	tasks, tasksHandle, err := store.OpenTasks(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open task store: %v", err)
	}

	activityModule, err := activity.NewModule(activity.DefaultCapacity)
	if err != nil {
		log.Fatalf("Failed to create activity module: %v", err)
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	apiModule := api.NewModule(cfg, os.Stdout)

	// Independent modules first, then dependent modules
	app.Register(auth.NewModule(cfg, users, usersHandle))
	app.Register(task.NewModule(tasks, tasksHandle))
	app.Register(activityModule)
	if cfg.RateLimitEnabled() {
		rl := ratelimitmod.NewModule(cfg.RedisAddr, cfg.RedisPassword, ratelimit.Config{
			RequestsPerWindow: cfg.RateLimitRequests,
			WindowSize:        cfg.RateLimitWindow,
		})
		app.Register(rl)
		apiModule.SetRateLimiter(rl)
	}
	app.Register(apiModule)

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg *config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost%s):", cfg.Addr())
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/users/register       - Register a new user")
	log.Println("  POST   /api/users/login          - Login and get a token")
	log.Println("  POST   /api/users/logout         - Acknowledge logout")
	log.Println("  GET    /health                   - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /api/users/me             - Current user")
	log.Println("  GET    /api/tasks                - List tasks")
	log.Println("  POST   /api/tasks                - Create a task")
	log.Println("  GET    /api/tasks/:id            - Get a task")
	log.Println("  PUT    /api/tasks/:id            - Update a task")
	log.Println("  PATCH  /api/tasks/:id/complete   - Complete a task")
	log.Println("  DELETE /api/tasks/:id            - Delete a task")
	log.Println("  GET    /api/activity             - Recent activity")
	if cfg.RateLimitEnabled() {
		log.Printf("Register and login are limited to %d requests per %s per IP", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
