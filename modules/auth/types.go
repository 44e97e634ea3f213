package auth

import (
	"github.com/example/task-manager/domain/apperror"
	"github.com/example/task-manager/domain/user"
)

// LogoutMessage is returned by Logout. Tokens are stateless, so the client
// is responsible for discarding its copy.
const LogoutMessage = "Logged out successfully. Please remove the token on the client side."

// Result is returned by register and login.
type Result struct {
	User  user.Profile `json:"user"`
	Token string       `json:"token"`
}

// LogoutResult acknowledges a logout.
type LogoutResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name" validate:"notblank,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"min=6,max=72"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

// AuthResponse is the reply of the register and login services.
type AuthResponse struct {
	Result *Result         `json:"result,omitempty"`
	Error  *apperror.Error `json:"error,omitempty"`
}

// AuthenticateRequest carries the raw Authorization header value.
type AuthenticateRequest struct {
	Authorization string `json:"authorization"`
}

// AuthenticateResponse is the reply of the authenticate service.
type AuthenticateResponse struct {
	Identity *user.Identity `json:"identity,omitempty"`
	Error    *apperror.Error `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse is the reply of the get-user service.
type GetUserResponse struct {
	User  *user.Profile   `json:"user,omitempty"`
	Error *apperror.Error `json:"error,omitempty"`
}
