package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/task-manager/domain/apperror"
	"github.com/gofiber/fiber/v2"
)

const (
	// UnauthorizedMessage is shared by every token failure so callers cannot
	// tell a missing token from a forged or orphaned one.
	UnauthorizedMessage = "not authorized, invalid or missing token"
	// MalformedJSONMessage is returned when the body cannot be decoded.
	MalformedJSONMessage = "malformed JSON, check the request body"
	// InternalMessage hides the cause of unexpected failures.
	InternalMessage = "internal server error"
)

var statusByCode = map[apperror.Code]int{
	apperror.CodeValidation:         fiber.StatusBadRequest,
	apperror.CodeDuplicateEmail:     fiber.StatusBadRequest,
	apperror.CodeInvalidIdentifier:  fiber.StatusBadRequest,
	apperror.CodeInvalidCredentials: fiber.StatusUnauthorized,
	apperror.CodeMissingToken:       fiber.StatusUnauthorized,
	apperror.CodeInvalidToken:       fiber.StatusUnauthorized,
	apperror.CodeUnknownSubject:     fiber.StatusUnauthorized,
	apperror.CodeForbidden:          fiber.StatusForbidden,
	apperror.CodeNotFound:           fiber.StatusNotFound,
}

// errorHandler is the last-resort mapping from handler errors to responses.
func errorHandler(c *fiber.Ctx, err error) error {
	status, message := classify(err)

	attrs := []any{
		"method", c.Method(),
		"path", c.Path(),
		"request_id", requestID(c),
	}
	switch {
	case status >= fiber.StatusInternalServerError:
		slog.ErrorContext(c.UserContext(), "request failed", append(attrs, "error", err)...)
	case status == fiber.StatusUnauthorized:
		if ae, ok := apperror.As(err); ok {
			attrs = append(attrs, "code", ae.Code)
		}
		slog.InfoContext(c.UserContext(), "request unauthorized", attrs...)
	}

	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Message: message,
	})
}

func classify(err error) (int, string) {
	if ae, ok := apperror.As(err); ok {
		status, known := statusByCode[ae.Code]
		if !known {
			return fiber.StatusInternalServerError, InternalMessage
		}
		if ae.Unauthorized() {
			return status, UnauthorizedMessage
		}
		return status, ae.Message
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code >= fiber.StatusInternalServerError {
			return fe.Code, InternalMessage
		}
		return fe.Code, fe.Message
	}

	return fiber.StatusInternalServerError, InternalMessage
}

// bodyError converts a BodyParser failure into a client error.
func bodyError(err error) error {
	if errors.Is(err, errInvalidDueDate) {
		return apperror.Validation(errInvalidDueDate.Error())
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperror.Validation(fmt.Sprintf("%s has the wrong type", typeErr.Field))
	}

	return fiber.NewError(fiber.StatusBadRequest, MalformedJSONMessage)
}
