package ratelimit

import (
	"context"
	"fmt"
	"log"

	"github.com/example/task-manager/domain/ratelimit"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "task-manager:ratelimit:"

// Module provides rate limiting as a mono module.
type Module struct {
	client     *redis.Client
	limiter    *SlidingWindowLimiter
	middleware *Middleware
	redisAddr  string
}

var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a rate limiting module. The Redis client connects
// lazily, so construction never touches the network.
func NewModule(redisAddr, password string, config ratelimit.Config) *Module {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: password,
	})
	limiter := NewSlidingWindowLimiter(client, config, keyPrefix)
	return &Module{
		client:     client,
		limiter:    limiter,
		middleware: NewMiddleware(limiter, config),
		redisAddr:  redisAddr,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "rate-limiter"
}

// Start checks the Redis connection. An unreachable server is logged and
// tolerated because the middleware fails open.
func (m *Module) Start(ctx context.Context) error {
	if err := m.client.Ping(ctx).Err(); err != nil {
		log.Printf("[rate-limiter] Warning: Redis at %s unreachable, requests will not be limited: %v", m.redisAddr, err)
	} else {
		log.Printf("[rate-limiter] Connected to Redis at %s", m.redisAddr)
	}
	log.Println("[rate-limiter] Module started")
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if err := m.client.Close(); err != nil {
		log.Printf("[rate-limiter] Error closing Redis connection: %v", err)
	}
	log.Println("[rate-limiter] Module stopped")
	return nil
}

// Health reports whether Redis answers.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	cfg := m.limiter.Config()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"redis":    m.redisAddr,
			"requests": cfg.RequestsPerWindow,
			"window":   cfg.WindowSize.String(),
		},
	}
}

// Limit returns the IP-keyed middleware for the given route scope.
func (m *Module) Limit(scope string) fiber.Handler {
	return m.middleware.IPRateLimit(scope)
}
