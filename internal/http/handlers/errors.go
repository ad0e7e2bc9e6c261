package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "courseshop/internal/log"
	"courseshop/internal/services"
)

const genericMessage = "Something went wrong. Please try again."

type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// classify maps an error onto an HTTP status and envelope type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusUnauthorized, "unauthorized"
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest, "validation_error"
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict, "conflict"
	}
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		switch fe.Code {
		case fiber.StatusNotFound:
			return fe.Code, "not_found"
		case fiber.StatusRequestEntityTooLarge:
			return fe.Code, "payload_too_large"
		case fiber.StatusTooManyRequests:
			return fe.Code, "rate_limited"
		case fiber.StatusMethodNotAllowed:
			return fe.Code, "method_not_allowed"
		default:
			return fe.Code, "bad_request"
		}
	}
	return fiber.StatusInternalServerError, "internal_error"
}

// message strips the sentinel prefix so clients see only the reason.
func message(err error, typ string) string {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	msg := err.Error()
	for _, prefix := range []string{typ + ": ", services.ErrNotFound.Error() + ": ", services.ErrValidation.Error() + ": "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}

func respondError(c *fiber.Ctx, err error) error {
	status, typ := classify(err)
	msg := genericMessage
	if status < fiber.StatusInternalServerError {
		msg = message(err, typ)
	}
	return c.Status(status).JSON(errorEnvelope{Error: errorBody{Type: typ, Message: msg}})
}

// fail logs err at a level matching its class and writes the envelope.
func fail(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	status, _ := classify(err)
	switch {
	case status >= fiber.StatusInternalServerError:
		applog.Error(c, action, err, fields)
	case status == fiber.StatusUnauthorized || status == fiber.StatusForbidden:
		applog.Security(c, action, fields)
	default:
		f := map[string]any{"reason": err.Error()}
		for k, v := range fields {
			f[k] = v
		}
		applog.Info(c, action, f)
	}
	return respondError(c, err)
}

func badRequest(c *fiber.Ctx, field, msg string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(errorEnvelope{Error: errorBody{Type: "validation_error", Message: msg}})
}

// ErrorHandler renders unhandled errors in the same envelope and never
// leaks internal detail.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, _ := classify(err)
	if status >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	return respondError(c, err)
}
