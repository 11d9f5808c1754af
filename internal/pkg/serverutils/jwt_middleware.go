package serverutils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const LocalSessionID = "session_id"

// TokenFromRequest reads the bearer header, falling back to the token query
// parameter used by browser websockets.
func TokenFromRequest(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return ctx.Query("token")
}

// NewJwtMiddleware resolves the session token into Locals("session_id").
func NewJwtMiddleware(tokens *SessionTokens) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := TokenFromRequest(ctx)
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}

		sessionID, err := tokens.Parse(tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		ctx.Locals(LocalSessionID, sessionID)
		return ctx.Next()
	}
}

// SessionID returns the id set by the middleware.
func SessionID(ctx *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := ctx.Locals(LocalSessionID).(uuid.UUID)
	return id, ok
}
