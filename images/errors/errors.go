package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Image service specific errors
var (
	ErrImageNotFound      = errors.New("image not found")
	ErrImageTooLarge      = errors.New("image too large")
	ErrInvalidImage       = errors.New("invalid image")
	ErrInvalidUserContext = errors.New("invalid user context")
	ErrInvalidQuery       = errors.New("invalid query")

	// Infrastructure errors
	ErrDatabaseOperation = errors.New("database operation failed")
	ErrStorageOperation  = errors.New("storage operation failed")
	ErrRenderFailed      = errors.New("thumbnail rendering failed")
)

// Error codes
const (
	CodeImageNotFound      = "IMAGE_NOT_FOUND"
	CodeImageTooLarge      = "IMAGE_TOO_LARGE"
	CodeInvalidImage       = "INVALID_IMAGE"
	CodeInvalidQuery       = "INVALID_QUERY"
	CodeMissingUserContext = "MISSING_USER_CONTEXT"
	CodeDatabaseOperation  = "DATABASE_OPERATION_FAILED"
	CodeStorageOperation   = "STORAGE_OPERATION_FAILED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// ImageError carries a user-facing detail alongside a sentinel
type ImageError struct {
	Code    error
	Message string
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("%v: %s", e.Code, e.Message)
}

func (e *ImageError) Unwrap() error {
	return e.Code
}

// NewImageError wraps sentinel with a message safe to show to clients
func NewImageError(sentinel error, format string, a ...interface{}) *ImageError {
	return &ImageError{Code: sentinel, Message: fmt.Sprintf(format, a...)}
}

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

	var details interface{}
	var imgErr *ImageError
	if errors.As(err, &imgErr) {
		details = imgErr.Message
	}

	switch {
	case errors.Is(err, ErrImageNotFound):
		return c.Status(http.StatusNotFound).JSON(ErrorResponse{
			Code:    CodeImageNotFound,
			Message: "Image not found",
		})
	case errors.Is(err, ErrImageTooLarge):
		return c.Status(http.StatusRequestEntityTooLarge).JSON(ErrorResponse{
			Code:    CodeImageTooLarge,
			Message: "Image too large",
			Details: details,
		})
	case errors.Is(err, ErrInvalidImage):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Code:    CodeInvalidImage,
			Message: "Body must be a JPEG, PNG or GIF image",
			Details: details,
		})
	case errors.Is(err, ErrInvalidQuery):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Code:    CodeInvalidQuery,
			Message: "Invalid query parameters",
			Details: details,
		})
	case errors.Is(err, ErrDatabaseOperation):
		return c.Status(http.StatusServiceUnavailable).JSON(ErrorResponse{
			Code:    CodeDatabaseOperation,
			Message: "Database operation failed",
		})
	case errors.Is(err, ErrStorageOperation), errors.Is(err, ErrRenderFailed):
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

// HandleUserContextError handles a missing authenticated principal
func HandleUserContextError(c *fiber.Ctx) error {
	return c.Status(http.StatusUnauthorized).JSON(ErrorResponse{
		Code:    CodeMissingUserContext,
		Message: "Authentication required",
	})
}

// HandleUUIDError handles malformed id parameters
func HandleUUIDError(c *fiber.Ctx, field string) error {
	return c.Status(http.StatusNotFound).JSON(ErrorResponse{
		Code:    CodeImageNotFound,
		Message: "Invalid " + field,
	})
}
