package controller

import (
	"aether-base-be/internal/dto"
	"aether-base-be/internal/pkg/serverutils"
	"aether-base-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Login(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IAuthService
}

func NewAuthController(service service.IAuthService) IAuthController {
	return &authController{service: service}
}

func (c *authController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/auth")
	h.Post("/login", auth, c.Login)
	h.Post("/logout", auth, c.Logout)
}

// Login blocks for the verification delay; the pending state is pushed on
// the websocket meanwhile.
func (c *authController) Login(ctx *fiber.Ctx) error {
	sessionId, err := sessionFrom(ctx)
	if err != nil {
		return err
	}

	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Login(ctx.UserContext(), sessionId, &req)
	if err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Logged in", res))
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	sessionId, err := sessionFrom(ctx)
	if err != nil {
		return err
	}
	if err := c.service.Logout(ctx.UserContext(), sessionId); err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Logged out", nil))
}
