package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokens(t *testing.T) {
	tokens := NewSessionTokens("secret", time.Hour)
	id := uuid.New()

	token, expiresAt, err := tokens.Issue(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	got, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = NewSessionTokens("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionTokensRejectOtherPurposes(t *testing.T) {
	tokens := NewSessionTokens("secret", time.Hour)
	id := uuid.New()

	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{
			name: "oauth state",
			claims: jwt.MapClaims{
				"session_id": id.String(),
				"purpose":    "oauth_state",
				"exp":        time.Now().Add(time.Hour).Unix(),
			},
		},
		{
			name: "no purpose",
			claims: jwt.MapClaims{
				"session_id": id.String(),
				"exp":        time.Now().Add(time.Hour).Unix(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims).SignedString([]byte("secret"))
			require.NoError(t, err)

			_, err = tokens.Parse(signed)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type request struct {
		Email string `validate:"required,email"`
		Mode  string `validate:"oneof=study site"`
	}

	assert.NoError(t, ValidateRequest(request{Email: "a@b.com", Mode: "site"}))

	err := ValidateRequest(request{Email: "nope", Mode: "poetry"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "email", verr.Fields["request.Email"])
	assert.Equal(t, "oneof", verr.Fields["request.Mode"])
}

func newTestApp(tokens *SessionTokens) *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/protected", NewJwtMiddleware(tokens), func(ctx *fiber.Ctx) error {
		id, _ := SessionID(ctx)
		return ctx.JSON(SuccessResponse("ok", id.String()))
	})
	app.Get("/teapot", func(ctx *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	app.Get("/invalid", func(ctx *fiber.Ctx) error {
		return &ValidationError{Fields: map[string]string{"chat": "max"}}
	})
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestJwtMiddleware(t *testing.T) {
	tokens := NewSessionTokens("secret", time.Hour)
	app := newTestApp(tokens)
	id := uuid.New()
	token, _, err := tokens.Issue(id)
	require.NoError(t, err)

	tests := []struct {
		name       string
		target     string
		header     string
		wantStatus int
	}{
		{name: "bearer header", target: "/protected", header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "query token", target: "/protected?token=" + token, wantStatus: http.StatusOK},
		{name: "missing", target: "/protected", wantStatus: http.StatusUnauthorized},
		{name: "garbage", target: "/protected", header: "Bearer abc", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeBody(t, resp)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, id.String(), body["data"])
			} else {
				assert.Equal(t, false, body["success"])
			}
		})
	}
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := newTestApp(NewSessionTokens("secret", time.Hour))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/teapot", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "short and stout", decodeBody(t, resp)["message"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/invalid", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, map[string]interface{}{"chat": "max"}, body["data"])
}
