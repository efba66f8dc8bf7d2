// Package response renders the uniform {success, message, data} envelope
// every endpoint answers with.
package response

import (
	"errors"
	"log/slog"

	"backend-snapgraph/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

const internalMessage = "Internal server error"

func OK(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Message: message, Data: data})
}

func Created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Message: message, Data: data})
}

// Fail writes err as a failed envelope. Store failures are reported as a
// generic internal error; their cause only reaches the logs.
func Fail(c *fiber.Ctx, err error) error {
	status, message := Classify(err)
	if status >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(Envelope{Success: false, Message: message})
}

func Classify(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return fiber.StatusBadRequest, apperr.Message(err)
	case apperr.KindNotFound:
		return fiber.StatusNotFound, apperr.Message(err)
	case apperr.KindConflict:
		return fiber.StatusConflict, apperr.Message(err)
	default:
		return fiber.StatusInternalServerError, internalMessage
	}
}

// ErrorHandler is installed on the fiber app so errors returned by
// middleware and unknown routes use the same envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return Fail(c, err)
}
