package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-manager/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface for authentication operations.
// This is the port that other modules use to access auth functionality.
type AuthPort interface {
	Register(ctx context.Context, name, email, password string) (*Result, error)
	Login(ctx context.Context, email, password string) (*Result, error)
	Authenticate(ctx context.Context, authorization string) (*domain.Identity, error)
	GetUser(ctx context.Context, userID string) (*domain.Profile, error)
	Logout() LogoutResult
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// Logout is stateless and answered locally.
func (a *AuthAdapter) Logout() LogoutResult {
	return LogoutResult{Success: true, Message: LogoutMessage}
}

// Register creates an account via the register service.
func (a *AuthAdapter) Register(ctx context.Context, name, email, password string) (*Result, error) {
	req := RegisterRequest{Name: name, Email: email, Password: password}
	var resp AuthResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"register",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// Login authenticates via the login service.
func (a *AuthAdapter) Login(ctx context.Context, email, password string) (*Result, error) {
	req := LoginRequest{Email: email, Password: password}
	var resp AuthResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"login",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// Authenticate resolves the caller via the authenticate service.
func (a *AuthAdapter) Authenticate(ctx context.Context, authorization string) (*domain.Identity, error) {
	req := AuthenticateRequest{Authorization: authorization}
	var resp AuthenticateResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"authenticate",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("authenticate request failed: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Identity, nil
}

// GetUser retrieves a user profile by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.Profile, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-user",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-user request failed: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.User, nil
}
