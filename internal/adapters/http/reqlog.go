package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

type requestScope struct {
	id     string
	logger *slog.Logger
}

type requestScopeKey struct{}

// RequestIDLogMiddleware puts the request ID and a logger carrying it into
// the user context.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _ := c.Locals("requestid").(string)
		if id == "" {
			return c.Next()
		}

		logger := slog.Default().With("request_id", id)
		scope := requestScope{id: id, logger: logger}
		c.SetUserContext(context.WithValue(c.UserContext(), requestScopeKey{}, scope))
		return c.Next()
	}
}

func scopeFrom(ctx context.Context) (requestScope, bool) {
	s, ok := ctx.Value(requestScopeKey{}).(requestScope)
	return s, ok
}

// LoggerFromCtx returns the request logger, or slog.Default outside a request.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	if s, ok := scopeFrom(ctx); ok {
		return s.logger
	}
	return slog.Default()
}

// RequestIDFromCtx returns "" outside a request.
func RequestIDFromCtx(ctx context.Context) string {
	s, _ := scopeFrom(ctx)
	return s.id
}

// requestLogger is LoggerFromCtx plus the session of /v1/evaluations/:id
// routes. Route params are only known inside handlers.
func requestLogger(c *fiber.Ctx) *slog.Logger {
	logger := LoggerFromCtx(c.UserContext())
	if session := c.Params("id"); session != "" {
		logger = logger.With("session_id", session)
	}
	return logger
}
