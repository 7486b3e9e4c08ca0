package engine

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"entrykit/internal/store"
	"entrykit/internal/validation"
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func NotFoundError(kind, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  fiber.StatusNotFound,
		Message: fmt.Sprintf("%s with id %s not found", kind, id),
	}
}

func UnknownEntryTypeError(handle string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_ENTRY_TYPE",
		Status:  fiber.StatusNotFound,
		Message: fmt.Sprintf("Unknown entry type: %s", handle),
	}
}

func InvalidPayloadError(msg string) *AppError {
	return NewAppError("INVALID_PAYLOAD", fiber.StatusBadRequest, msg)
}

// ValidationError reports every message of errs, grouped by attribute in
// attribute order.
func ValidationError(errs validation.Errors) *AppError {
	var details []ErrorDetail
	for _, attr := range errs.Attributes() {
		for _, msg := range errs[attr] {
			details = append(details, ErrorDetail{Field: attr, Message: msg})
		}
	}
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  fiber.StatusUnprocessableEntity,
		Message: "Validation failed",
		Details: details,
	}
}

func ConflictError(msg string) *AppError {
	return NewAppError("CONFLICT", fiber.StatusConflict, msg)
}

func UnauthorizedError(msg string) *AppError {
	return NewAppError("UNAUTHORIZED", fiber.StatusUnauthorized, msg)
}

func ForbiddenError(msg string) *AppError {
	return NewAppError("FORBIDDEN", fiber.StatusForbidden, msg)
}

// RespondError writes appErr as the JSON error envelope.
func RespondError(c *fiber.Ctx, appErr *AppError) error {
	return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
}

// HandleWriteError maps store sentinels to HTTP errors. Other errors are
// returned unchanged for the app error handler.
func HandleWriteError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return RespondError(c, appErr)
	}
	if errors.Is(err, store.ErrUniqueViolation) {
		return RespondError(c, ConflictError("A record with this value already exists"))
	}
	if errors.Is(err, store.ErrNotFound) {
		return RespondError(c, NewAppError("NOT_FOUND", fiber.StatusNotFound, "Record not found"))
	}
	return err
}

// ErrorHandler is the fiber error handler: AppErrors keep their status,
// anything else is logged and hidden behind a 500.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return RespondError(c, appErr)
		}

		code := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			return c.Status(code).JSON(ErrorResponse{Error: &AppError{Code: "HTTP_ERROR", Message: fiberErr.Message}})
		}

		logger.Error("Request failed",
			zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
		return c.Status(code).JSON(ErrorResponse{
			Error: &AppError{
				Code:    "INTERNAL_ERROR",
				Message: "Internal server error",
			},
		})
	}
}
