package controller

import (
	"net/url"

	"aether-base-be/internal/pkg/logger"
	"aether-base-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Login(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service   service.IOAuthService
	clientURL string
	logger    logger.ILogger
}

func NewOAuthController(service service.IOAuthService, clientURL string, log logger.ILogger) IOAuthController {
	return &oauthController{service: service, clientURL: clientURL, logger: log}
}

func (c *oauthController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	// e.g., /auth/google
	h := r.Group("/auth")
	h.Get("/:provider/callback", c.Callback)
	h.Get("/:provider", auth, c.Login)
}

func (c *oauthController) Login(ctx *fiber.Ctx) error {
	sessionId, err := sessionFrom(ctx)
	if err != nil {
		return err
	}
	provider := ctx.Params("provider")

	loginURL, err := c.service.GetLoginURL(ctx.UserContext(), sessionId, provider)
	if err != nil {
		c.logger.Warn("OAuthController", "Failed to get login URL", map[string]interface{}{"provider": provider, "error": err.Error()})
		return httpError(err)
	}

	c.logger.Info("OAuthController", "Redirecting to consent page", map[string]interface{}{"provider": provider, "session_id": sessionId})
	return ctx.Redirect(loginURL)
}

// Callback finishes the login and sends the browser back to the client with
// the outcome in the query string.
func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")
	code := ctx.Query("code")
	state := ctx.Query("state")

	if code == "" || state == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing code or state")
	}

	res, err := c.service.HandleCallback(ctx.UserContext(), provider, code, state)
	if err != nil {
		c.logger.Error("OAuthController", "HandleCallback failed", map[string]interface{}{"provider": provider, "error": err.Error()})
		return ctx.Redirect(c.clientURL + "?login=failed")
	}

	c.logger.Info("OAuthController", "User authenticated", map[string]interface{}{"provider": provider, "email": res.Auth.Email})
	return ctx.Redirect(c.clientURL + "?login=success&name=" + url.QueryEscape(res.Auth.DisplayName))
}
