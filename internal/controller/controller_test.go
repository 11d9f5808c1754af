package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aether-base-be/internal/dto"
	"aether-base-be/internal/entity"
	"aether-base-be/internal/pkg/serverutils"
	"aether-base-be/internal/service"
	"aether-base-be/pkg/library"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChatbot answers every call with err and records the last message.
type stubChatbot struct {
	err        error
	lastText   string
	attachment *entity.Attachment
	content    *dto.ArtifactContent
}

func (s *stubChatbot) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	return &dto.CreateSessionResponse{SessionId: uuid.New(), Token: "t"}, s.err
}

func (s *stubChatbot) GetSnapshot(ctx context.Context, id uuid.UUID) (*dto.SessionSnapshotResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.SessionSnapshotResponse{SessionId: id}, nil
}

func (s *stubChatbot) Submit(ctx context.Context, id uuid.UUID, text string, att *entity.Attachment) error {
	return s.Enqueue(ctx, id, text, att)
}

func (s *stubChatbot) Enqueue(ctx context.Context, id uuid.UUID, text string, att *entity.Attachment) error {
	s.lastText, s.attachment = text, att
	return s.err
}

func (s *stubChatbot) StartDocumentMode(ctx context.Context, id uuid.UUID) error { return s.err }
func (s *stubChatbot) SetQuickMode(ctx context.Context, id uuid.UUID, mode string) error {
	return s.err
}
func (s *stubChatbot) ResetChat(ctx context.Context, id uuid.UUID) error          { return s.err }
func (s *stubChatbot) OpenLibrary(ctx context.Context, id uuid.UUID) error        { return s.err }
func (s *stubChatbot) CloseLibrary(ctx context.Context, id uuid.UUID) error       { return s.err }
func (s *stubChatbot) DismissLoginPrompt(ctx context.Context, id uuid.UUID) error { return s.err }

func (s *stubChatbot) ListArtifacts(ctx context.Context, id uuid.UUID) ([]dto.ArtifactResponse, error) {
	return []dto.ArtifactResponse{}, s.err
}

func (s *stubChatbot) GetArtifactContent(ctx context.Context, id, artifactId uuid.UUID) (*dto.ArtifactContent, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.content, nil
}

func (s *stubChatbot) Close() {}

func newTestApp(t *testing.T, stub *stubChatbot) (*fiber.App, string) {
	t.Helper()
	tokens := serverutils.NewSessionTokens("secret", time.Hour)
	token, _, err := tokens.Issue(uuid.New())
	require.NoError(t, err)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	auth := serverutils.NewJwtMiddleware(tokens)
	NewSessionController(stub).RegisterRoutes(api, auth)
	NewChatbotController(stub).RegisterRoutes(api, auth)
	NewLibraryController(stub).RegisterRoutes(api, auth)
	return app, token
}

func do(t *testing.T, app *fiber.App, method, target, token, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSendChat(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "accepted", body: `{"chat":"oi"}`, wantStatus: http.StatusAccepted},
		{name: "with attachment", body: `{"chat":"deixe azul","attachment":{"data":"AQID","mime_type":"image/png"}}`, wantStatus: http.StatusAccepted},
		{name: "attachment must be an image", body: `{"chat":"x","attachment":{"data":"AQID","mime_type":"text/plain"}}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "auth gate", body: `{"chat":"criar um pdf"}`, err: service.ErrAuthRequired, wantStatus: http.StatusUnauthorized},
		{name: "in flight", body: `{"chat":"oi"}`, err: service.ErrGenerationInFlight, wantStatus: http.StatusConflict},
		{name: "empty", body: `{"chat":""}`, err: service.ErrEmptyMessage, wantStatus: http.StatusUnprocessableEntity},
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubChatbot{err: tt.err}
			app, token := newTestApp(t, stub)

			resp := do(t, app, http.MethodPost, "/api/chat/send", token, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestSendChatDecodesAttachment(t *testing.T) {
	stub := &stubChatbot{}
	app, token := newTestApp(t, stub)

	resp := do(t, app, http.MethodPost, "/api/chat/send", token, `{"chat":"deixe azul","attachment":{"data":"AQID","mime_type":"image/png"}}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	assert.Equal(t, "deixe azul", stub.lastText)
	require.NotNil(t, stub.attachment)
	assert.Equal(t, []byte{1, 2, 3}, stub.attachment.Data)
	assert.Equal(t, "image/png", stub.attachment.MIMEType)
}

func TestChatRoutesRequireToken(t *testing.T) {
	app, _ := newTestApp(t, &stubChatbot{})

	resp := do(t, app, http.MethodPost, "/api/chat/send", "", `{"chat":"oi"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDocumentModeWhenLoggedOut(t *testing.T) {
	app, token := newTestApp(t, &stubChatbot{err: service.ErrAuthRequired})

	resp := do(t, app, http.MethodPost, "/api/chat/document-mode", token, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, service.ErrAuthRequired.Error(), body["message"])
}

func TestQuickModeValidation(t *testing.T) {
	app, token := newTestApp(t, &stubChatbot{})

	resp := do(t, app, http.MethodPost, "/api/chat/quick-mode", token, `{"mode":"poesia"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = do(t, app, http.MethodPost, "/api/chat/quick-mode", token, `{"mode":"study"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestSessionRoutes(t *testing.T) {
	app, token := newTestApp(t, &stubChatbot{})

	resp := do(t, app, http.MethodPost, "/api/sessions", "", "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/sessions/current", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	app, token = newTestApp(t, &stubChatbot{err: service.ErrSessionNotFound})
	resp = do(t, app, http.MethodGet, "/api/sessions/current", token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLibraryContent(t *testing.T) {
	stub := &stubChatbot{content: &dto.ArtifactContent{
		FileName: "aether-site.html",
		MimeType: "text/html; charset=utf-8",
		Data:     []byte("<html></html>"),
	}}
	app, token := newTestApp(t, stub)

	resp := do(t, app, http.MethodGet, "/api/library/"+uuid.NewString()+"/content", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "aether-site.html")
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "<html></html>", string(raw))

	resp = do(t, app, http.MethodGet, "/api/library/not-a-uuid/content", token, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	app, token = newTestApp(t, &stubChatbot{err: library.ErrArtifactNotFound})
	resp = do(t, app, http.MethodGet, "/api/library/"+uuid.NewString()+"/content", token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
