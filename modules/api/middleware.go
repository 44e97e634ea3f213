package api

import (
	"github.com/example/task-manager/domain/apperror"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	"github.com/gofiber/fiber/v2"
)

const (
	// IdentityContextKey is the key used to store the caller in the Fiber context.
	IdentityContextKey = "identity"
	// RequestIDContextKey is where the requestid middleware stores the id.
	RequestIDContextKey = "requestid"
)

// AuthMiddleware resolves the bearer token into an Identity. Failures are
// passed to the error handler, which answers 401.
func AuthMiddleware(authPort auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := authPort.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}
		if identity == nil {
			return apperror.ErrInvalidToken
		}

		c.Locals(IdentityContextKey, identity)
		return c.Next()
	}
}

// identityFrom returns the caller stored by AuthMiddleware.
func identityFrom(c *fiber.Ctx) *user.Identity {
	identity, _ := c.Locals(IdentityContextKey).(*user.Identity)
	return identity
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDContextKey).(string)
	return id
}
