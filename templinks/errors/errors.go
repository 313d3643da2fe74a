package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/imagehost/templinks/models"
)

// Temporary link errors
var (
	ErrPermissionDenied   = errors.New("tier cannot issue temporary links")
	ErrInvalidTTL         = errors.New("invalid link lifetime")
	ErrImageNotFound      = errors.New("image not found")
	ErrImageNotOwned      = errors.New("image not owned by caller")
	ErrLinkNotFound       = errors.New("temporary link not found")
	ErrLinkExpired        = errors.New("temporary link expired")
	ErrInvalidUserContext = errors.New("invalid user context")

	// Infrastructure errors
	ErrDatabaseOperation = errors.New("database operation failed")
	ErrStorageOperation  = errors.New("storage operation failed")
)

// TTLFieldMessage is the field error reported for an out of range lifetime
var TTLFieldMessage = fmt.Sprintf("seconds_to_expire must be in [%d, %d]", models.MinTTLSeconds, models.MaxTTLSeconds)

// Error codes
const (
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeImageNotFound      = "IMAGE_NOT_FOUND"
	CodeLinkNotFound       = "LINK_NOT_FOUND"
	CodeLinkExpired        = "LINK_EXPIRED"
	CodeMissingUserContext = "MISSING_USER_CONTEXT"
	CodeDatabaseOperation  = "DATABASE_OPERATION_FAILED"
	CodeStorageOperation   = "STORAGE_OPERATION_FAILED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// ErrorResponse represents the standardized error response format
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// HandleServiceError handles service errors and returns appropriate HTTP responses
func HandleServiceError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrPermissionDenied):
		return c.Status(http.StatusForbidden).JSON(ErrorResponse{
			Code:    CodePermissionDenied,
			Message: "Your tier cannot issue temporary links",
		})
	case errors.Is(err, ErrInvalidTTL):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Code:    CodeValidationError,
			Message: "Validation failed",
			Details: map[string]string{"seconds_to_expire": TTLFieldMessage},
		})
	// foreign images answer exactly like missing ones
	case errors.Is(err, ErrImageNotFound), errors.Is(err, ErrImageNotOwned):
		return c.Status(http.StatusNotFound).JSON(ErrorResponse{
			Code:    CodeImageNotFound,
			Message: "Image not found",
		})
	case errors.Is(err, ErrLinkNotFound):
		return NotFound(c)
	case errors.Is(err, ErrLinkExpired):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Code:    CodeLinkExpired,
			Message: "No images found",
		})
	case errors.Is(err, ErrDatabaseOperation):
		return c.Status(http.StatusServiceUnavailable).JSON(ErrorResponse{
			Code:    CodeDatabaseOperation,
			Message: "Database operation failed",
		})
	case errors.Is(err, ErrStorageOperation):
		return c.Status(http.StatusBadGateway).JSON(ErrorResponse{
			Code:    CodeStorageOperation,
			Message: "Storage operation failed",
		})
	default:
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Code:    CodeInternalError,
			Message: "Internal server error",
		})
	}
}

// NotFound answers an unknown or malformed token
func NotFound(c *fiber.Ctx) error {
	return c.Status(http.StatusNotFound).JSON(ErrorResponse{
		Code:    CodeLinkNotFound,
		Message: "Temporary link not found",
	})
}

// HandleValidationError handles malformed request bodies
func HandleValidationError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
		Code:    CodeValidationError,
		Message: message,
	})
}

// HandleUserContextError handles a missing authenticated principal
func HandleUserContextError(c *fiber.Ctx) error {
	return c.Status(http.StatusUnauthorized).JSON(ErrorResponse{
		Code:    CodeMissingUserContext,
		Message: "Authentication required",
	})
}
