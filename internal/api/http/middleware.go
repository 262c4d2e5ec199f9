package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/orgchartd/orgchart-service/internal/observability"
	"github.com/orgchartd/orgchart-service/internal/store"
	apperrors "github.com/orgchartd/orgchart-service/pkg/util/errorutil"
)

// retryAfterSeconds is advertised when the store is shutting down.
const retryAfterSeconds = "5"

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app.Use(observability.RequestLogger(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
}

// requestTimeoutMiddleware bounds the context handed to store saves and
// gateway pings.
func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus == nethttp.StatusServiceUnavailable {
					c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed",
						zap.String("path", c.Path()),
						zap.String("code", domainErr.Code),
						zap.Error(err))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError maps store and context failures that handlers pass through
// unchanged, then falls back to the generic mapping.
func toDomainError(err error) *apperrors.DomainError {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	switch {
	case errors.Is(err, store.ErrClosed):
		return apperrors.NewDomainError("UNAVAILABLE", "org chart store is closed", nethttp.StatusServiceUnavailable, nil)
	case errors.Is(err, store.ErrIDCollision):
		return apperrors.NewDomainError("CONFLICT", "could not allocate a unique id", nethttp.StatusConflict, nil)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewDomainError("TIMEOUT", "request timed out", nethttp.StatusGatewayTimeout, nil)
	}
	return apperrors.ToDomainError(err)
}
