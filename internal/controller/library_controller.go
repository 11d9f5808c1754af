package controller

import (
	"fmt"

	"aether-base-be/internal/pkg/serverutils"
	"aether-base-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ILibraryController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	List(ctx *fiber.Ctx) error
	Open(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
	Content(ctx *fiber.Ctx) error
}

type libraryController struct {
	service service.IChatbotService
}

func NewLibraryController(service service.IChatbotService) ILibraryController {
	return &libraryController{service: service}
}

func (c *libraryController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/library")
	h.Use(auth)
	h.Get("", c.List)
	h.Post("/open", c.Open)
	h.Post("/close", c.Close)
	h.Get("/:id/content", c.Content)
}

func (c *libraryController) List(ctx *fiber.Ctx) error {
	sessionId, err := sessionFrom(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListArtifacts(ctx.Context(), sessionId)
	if err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get library", res))
}

func (c *libraryController) Open(ctx *fiber.Ctx) error {
	sessionId, err := sessionFrom(ctx)
	if err != nil {
		return err
	}
	if err := c.service.OpenLibrary(ctx.Context(), sessionId); err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Library opened", nil))
}

func (c *libraryController) Close(ctx *fiber.Ctx) error {
	sessionId, err := sessionFrom(ctx)
	if err != nil {
		return err
	}
	if err := c.service.CloseLibrary(ctx.Context(), sessionId); err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Library closed", nil))
}

// Content streams the decoded artifact bytes.
func (c *libraryController) Content(ctx *fiber.Ctx) error {
	sessionId, err := sessionFrom(ctx)
	if err != nil {
		return err
	}
	artifactId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid artifact id")
	}

	content, err := c.service.GetArtifactContent(ctx.Context(), sessionId, artifactId)
	if err != nil {
		return httpError(err)
	}

	ctx.Set(fiber.HeaderContentType, content.MimeType)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", content.FileName))
	return ctx.Send(content.Data)
}
