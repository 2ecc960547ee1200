package web

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
	"github.com/unyte/adconnect/pkg/providers"
	"github.com/unyte/adconnect/pkg/services"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

// errorStatus maps a service error to its HTTP status and problem type.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return fiber.StatusUnauthorized, "unauthenticated"
	case services.IsValidationError(err):
		return fiber.StatusBadRequest, "validation_error"
	case services.IsNotFoundError(err):
		return fiber.StatusNotFound, "connection_not_found"
	case errors.Is(err, providers.ErrProviderNotConfigured):
		return fiber.StatusNotFound, "provider_not_configured"
	case services.IsExternalError(err):
		return fiber.StatusBadGateway, "external_call_failed"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}

// handleServiceError provides typed error handling for service layer errors.
// Only the user-facing message of the error reaches the response body.
func handleServiceError(c fiber.Ctx, logger *slog.Logger, err error) error {
	status, problemType := errorStatus(err)

	detail := services.UserMessage(err)
	if errors.Is(err, providers.ErrProviderNotConfigured) {
		detail = "Platform is not configured"
	}

	if status >= fiber.StatusInternalServerError {
		logger.ErrorContext(c.Context(), "Request failed", "path", c.Path(), "error", err)
	}

	problem := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(status).JSON(problem)
}
