package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/task-manager/domain/apperror"
	"github.com/example/task-manager/domain/objectid"
	domain "github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/validation"
)

const bearerPrefix = "Bearer "

// AuthService handles authentication business logic.
type AuthService struct {
	repo   domain.Repository
	hasher *PasswordHasher
	jwt    *JWTManager
	now    func() time.Time

	// OnRegistered, when set, is called after a user is stored.
	OnRegistered func(*domain.User)
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo domain.Repository, hasher *PasswordHasher, jwt *JWTManager) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
		now:    time.Now,
	}
}

var _ AuthPort = (*AuthService)(nil)

// Register creates a new user account and signs it in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Result, error) {
	req := RegisterRequest{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, apperror.ErrDuplicateEmail
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	user := &domain.User{
		ID:           objectid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration for the same email.
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, apperror.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.OnRegistered != nil {
		s.OnRegistered(user)
	}

	return s.signIn(user)
}

// Login verifies credentials. An unknown email and a wrong password
// produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Result, error) {
	req := LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, apperror.ErrInvalidCredentials
	}

	return s.signIn(user)
}

// Logout acknowledges a logout. Nothing is revoked server-side.
func (s *AuthService) Logout() LogoutResult {
	return LogoutResult{Success: true, Message: LogoutMessage}
}

// Authenticate resolves the caller from an Authorization header value.
func (s *AuthService) Authenticate(ctx context.Context, authorization string) (*domain.Identity, error) {
	raw, ok := strings.CutPrefix(authorization, bearerPrefix)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, apperror.ErrMissingToken
	}

	claims, err := s.jwt.ValidateToken(strings.TrimSpace(raw))
	if err != nil {
		slog.DebugContext(ctx, "token rejected", "reason", err)
		return nil, apperror.ErrInvalidToken
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.ErrUnknownSubject
		}
		return nil, fmt.Errorf("failed to resolve token subject: %w", err)
	}

	identity := user.Identity()
	return &identity, nil
}

// GetUser returns the sanitized profile of a user.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.New(apperror.CodeNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	profile := user.Profile()
	return &profile, nil
}

func (s *AuthService) signIn(user *domain.User) (*Result, error) {
	token, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &Result{User: user.Profile(), Token: token}, nil
}
