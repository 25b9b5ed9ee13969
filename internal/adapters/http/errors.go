package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/estatemap/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusConflict, "conflict", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errBadGateway returns a 502 error for search API failures.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadGateway, "bad_gateway", msg)
}

// errFromService maps service errors onto the envelope. Internal details are
// logged, not returned.
func errFromService(c *fiber.Ctx, err error, what string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, what+" not found")
	case errors.Is(err, domain.ErrInvalidShape):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrEmptySelection):
		return errConflict(c, "no properties selected")
	case errors.Is(err, domain.ErrConflict):
		requestLogger(c).Warn("session update gave up", "error", err)
		return errConflict(c, "session is changing too quickly, retry")
	case errors.Is(err, domain.ErrUpstream):
		requestLogger(c).Warn("search api failed", "error", err)
		return errBadGateway(c, "search service unavailable")
	default:
		requestLogger(c).Error("request failed", "path", c.Path(), "error", err)
		return errInternal(c, "internal error")
	}
}
