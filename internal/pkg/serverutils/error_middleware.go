package serverutils

import (
	"errors"
	"log"

	"dealdocs-be/internal/service"
	"dealdocs-be/pkg/ingest"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors escaping handlers into JSON
// responses. Domain errors map to client statuses; everything else is a
// logged 500 with a generic message.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := fiber.StatusInternalServerError
		message := "Internal server error"

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			message = fiberErr.Message
		case errors.Is(err, ingest.ErrDocumentBusy):
			status = fiber.StatusConflict
			message = err.Error()
		case errors.Is(err, service.ErrNativeModeUnavailable),
			errors.Is(err, service.ErrSummaryModeUnavailable),
			errors.Is(err, service.ErrNoExtractedText),
			errors.Is(err, service.ErrInvalidParentRun):
			status = fiber.StatusBadRequest
			message = err.Error()
		default:
			log.Printf("[ERROR] %s %s: %v", ctx.Method(), ctx.Path(), err)
		}

		return ctx.Status(status).JSON(ErrorResponse(message))
	}
}
