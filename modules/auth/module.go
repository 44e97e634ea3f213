package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/domain/apperror"
	domain "github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/events"
	"github.com/example/task-manager/store"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthModule provides authentication services.
type AuthModule struct {
	cfg      *config.Config
	repo     domain.Repository
	handle   store.Handle
	service  *AuthService
	eventBus mono.EventBus
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)
var _ mono.EventEmitterModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule backed by the given credential store.
func NewModule(cfg *config.Config, repo domain.Repository, handle store.Handle) *AuthModule {
	m := &AuthModule{
		cfg:    cfg,
		repo:   repo,
		handle: handle,
	}
	m.service = NewAuthService(
		repo,
		NewPasswordHasher(cfg.BcryptCost),
		NewJWTManager(JWTConfig{
			SecretKey:     cfg.JWTSecret,
			TokenDuration: cfg.JWTExpiration,
			Issuer:        cfg.JWTIssuer,
		}),
	)
	m.service.OnRegistered = m.publishRegistered
	return m
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Service exposes the in-process service.
func (m *AuthModule) Service() *AuthService {
	return m.service
}

// SetEventBus is called by the framework before Start.
func (m *AuthModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events published by this module.
func (m *AuthModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.UserRegisteredV1.ToBase(),
	}
}

// Start verifies the credential store.
func (m *AuthModule) Start(ctx context.Context) error {
	if err := m.handle.Ping(ctx); err != nil {
		return fmt.Errorf("credential store unavailable: %w", err)
	}
	if m.eventBus == nil {
		log.Println("[auth] Warning: eventBus not set, events will not be published")
	}
	log.Printf("[auth] Module started (store: %s)", m.handle.Describe())
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(ctx context.Context) error {
	if err := m.handle.Close(ctx); err != nil {
		log.Printf("[auth] Warning: failed to close credential store: %v", err)
	}
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if err := m.handle.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: err.Error(),
		}
	}

	details := map[string]any{"store": m.handle.Describe()}
	if n, err := m.repo.Count(ctx); err == nil {
		details["users"] = n
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"register",
		json.Unmarshal,
		json.Marshal,
		m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"login",
		json.Unmarshal,
		json.Marshal,
		m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"authenticate",
		json.Unmarshal,
		json.Marshal,
		m.handleAuthenticate,
	); err != nil {
		return fmt.Errorf("failed to register authenticate service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"get-user",
		json.Unmarshal,
		json.Marshal,
		m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	log.Printf("[auth] Registered services: register, login, authenticate, get-user")
	return nil
}

// Domain failures travel in the reply's error field. A returned Go error
// is reserved for infrastructure faults.

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (AuthResponse, error) {
	result, err := m.service.Register(ctx, req.Name, req.Email, req.Password)
	if ae, ok := apperror.As(err); ok {
		return AuthResponse{Error: ae}, nil
	}
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{Result: result}, nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (AuthResponse, error) {
	result, err := m.service.Login(ctx, req.Email, req.Password)
	if ae, ok := apperror.As(err); ok {
		return AuthResponse{Error: ae}, nil
	}
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{Result: result}, nil
}

func (m *AuthModule) handleAuthenticate(ctx context.Context, req AuthenticateRequest, _ *mono.Msg) (AuthenticateResponse, error) {
	identity, err := m.service.Authenticate(ctx, req.Authorization)
	if ae, ok := apperror.As(err); ok {
		return AuthenticateResponse{Error: ae}, nil
	}
	if err != nil {
		return AuthenticateResponse{}, err
	}
	return AuthenticateResponse{Identity: identity}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	profile, err := m.service.GetUser(ctx, req.UserID)
	if ae, ok := apperror.As(err); ok {
		return GetUserResponse{Error: ae}, nil
	}
	if err != nil {
		return GetUserResponse{}, err
	}
	return GetUserResponse{User: profile}, nil
}

func (m *AuthModule) publishRegistered(user *domain.User) {
	if m.eventBus == nil {
		return
	}
	event := events.UserRegisteredEvent{
		UserID:       user.ID,
		Name:         user.Name,
		Email:        user.Email,
		RegisteredAt: user.CreatedAt.UTC().Truncate(time.Millisecond),
	}
	if err := events.UserRegisteredV1.Publish(m.eventBus, event, nil); err != nil {
		// Event publishing is best-effort; log but don't fail the operation
		log.Printf("[auth] Warning: failed to publish UserRegistered event for user %s: %v", user.ID, err)
	}
}
