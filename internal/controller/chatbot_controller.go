package controller

import (
	"aether-base-be/internal/dto"
	"aether-base-be/internal/mapper"
	"aether-base-be/internal/pkg/serverutils"
	"aether-base-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Send(ctx *fiber.Ctx) error
	DocumentMode(ctx *fiber.Ctx) error
	QuickMode(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	DismissLoginPrompt(ctx *fiber.Ctx) error
}

type chatbotController struct {
	service service.IChatbotService
	mapper  *mapper.ChatMapper
}

func NewChatbotController(service service.IChatbotService) IChatbotController {
	return &chatbotController{service: service, mapper: mapper.NewChatMapper()}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/chat")
	h.Use(auth)
	h.Post("/send", c.Send)
	h.Post("/document-mode", c.DocumentMode)
	h.Post("/quick-mode", c.QuickMode)
	h.Post("/reset", c.Reset)
	h.Post("/login-prompt/dismiss", c.DismissLoginPrompt)
}

// Send accepts the message and answers before the workflow finishes; the
// outcome arrives as snapshots on the websocket.
func (c *chatbotController) Send(ctx *fiber.Ctx) error {
	sessionId, err := sessionFrom(ctx)
	if err != nil {
		return err
	}

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	attachment, err := c.mapper.AttachmentFromDTO(req.Attachment)
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	if err := c.service.Enqueue(ctx.Context(), sessionId, req.Chat, attachment); err != nil {
		return httpError(err)
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse[any]("Message accepted", nil))
}

func (c *chatbotController) DocumentMode(ctx *fiber.Ctx) error {
	sessionId, err := sessionFrom(ctx)
	if err != nil {
		return err
	}
	if err := c.service.StartDocumentMode(ctx.Context(), sessionId); err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Document mode activated", nil))
}

func (c *chatbotController) QuickMode(ctx *fiber.Ctx) error {
	sessionId, err := sessionFrom(ctx)
	if err != nil {
		return err
	}

	var req dto.QuickModeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.SetQuickMode(ctx.Context(), sessionId, req.Mode); err != nil {
		return httpError(err)
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse[any]("Quick mode accepted", nil))
}

func (c *chatbotController) Reset(ctx *fiber.Ctx) error {
	sessionId, err := sessionFrom(ctx)
	if err != nil {
		return err
	}
	if err := c.service.ResetChat(ctx.Context(), sessionId); err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Chat reset", nil))
}

func (c *chatbotController) DismissLoginPrompt(ctx *fiber.Ctx) error {
	sessionId, err := sessionFrom(ctx)
	if err != nil {
		return err
	}
	if err := c.service.DismissLoginPrompt(ctx.Context(), sessionId); err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Login prompt dismissed", nil))
}
