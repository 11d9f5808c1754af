package controller

import (
	"errors"

	"aether-base-be/internal/pkg/serverutils"
	"aether-base-be/internal/service"
	"aether-base-be/pkg/library"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// httpError maps service errors onto status codes for ErrorHandlerMiddleware.
func httpError(err error) error {
	switch {
	case errors.Is(err, service.ErrAuthRequired),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidOAuthState):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, library.ErrArtifactNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrGenerationInFlight),
		errors.Is(err, service.ErrLoginInProgress),
		errors.Is(err, service.ErrVerificationReplaced),
		errors.Is(err, service.ErrNotLoggedIn):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrUnsupportedMode):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrUnsupportedProvider):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}

// sessionFrom reads the session set by the jwt middleware.
func sessionFrom(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, ok := serverutils.SessionID(ctx)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "missing session")
	}
	return id, nil
}
