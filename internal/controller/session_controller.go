package controller

import (
	"aether-base-be/internal/pkg/serverutils"
	"aether-base-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Create(ctx *fiber.Ctx) error
	Current(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.IChatbotService
}

func NewSessionController(service service.IChatbotService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/sessions")
	h.Post("", c.Create)
	h.Get("/current", auth, c.Current)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	res, err := c.service.CreateSession(ctx.Context())
	if err != nil {
		return httpError(err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *sessionController) Current(ctx *fiber.Ctx) error {
	sessionId, err := sessionFrom(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetSnapshot(ctx.Context(), sessionId)
	if err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}
