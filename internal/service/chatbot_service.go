package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"aether-base-be/internal/config"
	"aether-base-be/internal/constant"
	"aether-base-be/internal/dto"
	"aether-base-be/internal/entity"
	"aether-base-be/internal/mapper"
	"aether-base-be/internal/pkg/logger"
	"aether-base-be/internal/pkg/serverutils"
	"aether-base-be/internal/repository/memory"
	"aether-base-be/pkg/ai/router"
	"aether-base-be/pkg/document"
	"aether-base-be/pkg/events"
	"aether-base-be/pkg/library"
	"aether-base-be/pkg/llm"
	"aether-base-be/pkg/pacing"
	"aether-base-be/pkg/store"

	"github.com/google/uuid"
)

// IChatbotService is the orchestrator: every session mutation goes through it.
type IChatbotService interface {
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	GetSnapshot(ctx context.Context, sessionId uuid.UUID) (*dto.SessionSnapshotResponse, error)

	// Submit classifies and runs one user turn, returning once it settles.
	Submit(ctx context.Context, sessionId uuid.UUID, text string, attachment *entity.Attachment) error
	// Enqueue applies the same gates as Submit synchronously and runs the
	// workflow in the background.
	Enqueue(ctx context.Context, sessionId uuid.UUID, text string, attachment *entity.Attachment) error

	StartDocumentMode(ctx context.Context, sessionId uuid.UUID) error
	SetQuickMode(ctx context.Context, sessionId uuid.UUID, mode string) error
	ResetChat(ctx context.Context, sessionId uuid.UUID) error

	OpenLibrary(ctx context.Context, sessionId uuid.UUID) error
	CloseLibrary(ctx context.Context, sessionId uuid.UUID) error
	DismissLoginPrompt(ctx context.Context, sessionId uuid.UUID) error

	ListArtifacts(ctx context.Context, sessionId uuid.UUID) ([]dto.ArtifactResponse, error)
	GetArtifactContent(ctx context.Context, sessionId uuid.UUID, artifactId uuid.UUID) (*dto.ArtifactContent, error)

	// Close cancels background workflows.
	Close()
}

type chatbotService struct {
	sessionRepo *memory.SessionRepository
	gateway     llm.Gateway
	router      *router.Router
	compiler    *document.Compiler
	events      events.Publisher
	tokens      *serverutils.SessionTokens
	mapper      *mapper.ChatMapper
	logger      logger.ILogger
	workflow    config.WorkflowConfig

	*snapshotNotifier

	baseCtx context.Context
	cancel  context.CancelFunc
}

func NewChatbotService(
	sessionRepo *memory.SessionRepository,
	gateway llm.Gateway,
	intentRouter *router.Router,
	compiler *document.Compiler,
	publisher IPublisherService,
	eventPublisher events.Publisher,
	tokens *serverutils.SessionTokens,
	log logger.ILogger,
	workflow config.WorkflowConfig,
) IChatbotService {
	if eventPublisher == nil {
		eventPublisher = events.NoopPublisher{}
	}
	chatMapper := mapper.NewChatMapper()
	baseCtx, cancel := context.WithCancel(context.Background())

	return &chatbotService{
		sessionRepo: sessionRepo,
		gateway:     gateway,
		router:      intentRouter,
		compiler:    compiler,
		events:      eventPublisher,
		tokens:      tokens,
		mapper:      chatMapper,
		logger:      log,
		workflow:    workflow,
		snapshotNotifier: &snapshotNotifier{
			publisher: publisher,
			mapper:    chatMapper,
			logger:    log,
		},
		baseCtx: baseCtx,
		cancel:  cancel,
	}
}

func (s *chatbotService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	session := store.NewSession()

	token, expiresAt, err := s.tokens.Issue(session.Id)
	if err != nil {
		return nil, err
	}
	s.sessionRepo.Save(session)

	s.logger.Info("ChatbotService", "Session created", map[string]interface{}{"session_id": session.Id})
	return &dto.CreateSessionResponse{
		SessionId: session.Id,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *chatbotService) GetSnapshot(ctx context.Context, sessionId uuid.UUID) (*dto.SessionSnapshotResponse, error) {
	session, err := findSession(s.sessionRepo, sessionId)
	if err != nil {
		return nil, err
	}
	return s.mapper.SnapshotToResponse(session.Snapshot()), nil
}

func (s *chatbotService) Submit(ctx context.Context, sessionId uuid.UUID, text string, attachment *entity.Attachment) error {
	session, err := findSession(s.sessionRepo, sessionId)
	if err != nil {
		return err
	}

	run, err := s.begin(session, text, attachment)
	if run != nil {
		run(ctx)
	}
	return err
}

func (s *chatbotService) Enqueue(ctx context.Context, sessionId uuid.UUID, text string, attachment *entity.Attachment) error {
	session, err := findSession(s.sessionRepo, sessionId)
	if err != nil {
		return err
	}

	run, err := s.begin(session, text, attachment)
	if run != nil {
		go run(s.baseCtx)
	}
	return err
}

// begin runs the synchronous part of a submission: validation, the in-flight
// lock, classification and the auth gate. The returned func is the rest of
// the work; it may be non-nil together with ErrAuthRequired (the delayed
// login notice of a blocked image request, which holds the in-flight lock
// until the notice is appended).
func (s *chatbotService) begin(session *store.Session, text string, attachment *entity.Attachment) (func(context.Context), error) {
	if strings.TrimSpace(text) == "" && attachment == nil {
		return nil, ErrEmptyMessage
	}
	if !session.BeginGeneration() {
		return nil, ErrGenerationInFlight
	}

	decision := s.router.Classify(text, attachment != nil, session.DocumentMode())
	loggedIn := session.Auth().LoggedIn()

	s.logger.Info("Router", "Submission classified", map[string]interface{}{
		"session_id": session.Id,
		"route":      decision.Route,
		"trigger":    decision.Trigger,
		"forced":     decision.ForcedByMode,
		"logged_in":  loggedIn,
	})

	switch decision.Route {
	case router.RouteDocument:
		session.SetDocumentMode(false)
		if !loggedIn {
			session.SetLoginPrompt(true)
			session.EndGeneration()
			s.notify(session)
			return nil, ErrAuthRequired
		}
		return s.guarded(session, func(ctx context.Context) {
			s.runDocument(ctx, session, decision.Topic, text, attachment)
		}), nil

	case router.RouteImage:
		if !loggedIn {
			s.appendUserTurn(session, text, attachment)
			session.SetLoginPrompt(true)
			s.notify(session)
			return func(ctx context.Context) {
				defer func() {
					session.EndGeneration()
					s.notify(session)
				}()
				s.loginNotice(ctx, session)
			}, ErrAuthRequired
		}
		return s.guarded(session, func(ctx context.Context) {
			s.runImage(ctx, session, text, attachment)
		}), nil

	default:
		return s.guarded(session, func(ctx context.Context) {
			s.runChat(ctx, session, text, attachment)
		}), nil
	}
}

// guarded releases the in-flight lock and settles every placeholder however
// the workflow ends.
func (s *chatbotService) guarded(session *store.Session, workflow func(context.Context)) func(context.Context) {
	return func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("ChatbotService", "Workflow panicked", map[string]interface{}{"session_id": session.Id, "panic": fmt.Sprint(r)})
			}
			if n := session.SettleAll(); n > 0 {
				s.logger.Warn("ChatbotService", "Settled dangling placeholders", map[string]interface{}{"session_id": session.Id, "count": n})
			}
			session.EndGeneration()
			s.notify(session)
		}()
		workflow(ctx)
	}
}

func (s *chatbotService) loginNotice(ctx context.Context, session *store.Session) {
	if err := pacing.Sleep(ctx, s.workflow.LoginNoticeDelay); err != nil {
		return
	}
	session.AppendTurn(entity.Turn{Speaker: entity.TurnSpeakerAssistant, Text: constant.LoginRequiredText})
	s.notify(session)
}

func (s *chatbotService) StartDocumentMode(ctx context.Context, sessionId uuid.UUID) error {
	session, err := findSession(s.sessionRepo, sessionId)
	if err != nil {
		return err
	}
	if err := s.requireAuth(session); err != nil {
		return err
	}

	session.SetDocumentMode(true)
	session.AppendTurn(entity.Turn{Speaker: entity.TurnSpeakerAssistant, Text: constant.DocumentModeActivatedText})
	s.notify(session)
	return nil
}

func (s *chatbotService) SetQuickMode(ctx context.Context, sessionId uuid.UUID, mode string) error {
	var prompt string
	switch mode {
	case constant.QuickModeStudy:
		prompt = constant.QuickModeStudyPrompt
	case constant.QuickModeSite:
		prompt = constant.QuickModeSitePrompt
	default:
		return ErrUnsupportedMode
	}

	session, err := findSession(s.sessionRepo, sessionId)
	if err != nil {
		return err
	}
	if err := s.requireAuth(session); err != nil {
		return err
	}

	return s.Enqueue(ctx, sessionId, prompt, nil)
}

func (s *chatbotService) ResetChat(ctx context.Context, sessionId uuid.UUID) error {
	session, err := findSession(s.sessionRepo, sessionId)
	if err != nil {
		return err
	}
	session.ResetConversation()
	s.logger.Info("ChatbotService", "Conversation reset", map[string]interface{}{"session_id": sessionId})
	s.notify(session)
	return nil
}

func (s *chatbotService) OpenLibrary(ctx context.Context, sessionId uuid.UUID) error {
	return s.setLibraryOpen(sessionId, true)
}

func (s *chatbotService) CloseLibrary(ctx context.Context, sessionId uuid.UUID) error {
	return s.setLibraryOpen(sessionId, false)
}

func (s *chatbotService) setLibraryOpen(sessionId uuid.UUID, open bool) error {
	session, err := findSession(s.sessionRepo, sessionId)
	if err != nil {
		return err
	}
	session.SetLibraryOpen(open)
	s.notify(session)
	return nil
}

func (s *chatbotService) DismissLoginPrompt(ctx context.Context, sessionId uuid.UUID) error {
	session, err := findSession(s.sessionRepo, sessionId)
	if err != nil {
		return err
	}
	session.SetLoginPrompt(false)
	s.notify(session)
	return nil
}

func (s *chatbotService) ListArtifacts(ctx context.Context, sessionId uuid.UUID) ([]dto.ArtifactResponse, error) {
	session, err := findSession(s.sessionRepo, sessionId)
	if err != nil {
		return nil, err
	}
	return s.mapper.ArtifactsToResponse(session.Library().List()), nil
}

func (s *chatbotService) GetArtifactContent(ctx context.Context, sessionId uuid.UUID, artifactId uuid.UUID) (*dto.ArtifactContent, error) {
	session, err := findSession(s.sessionRepo, sessionId)
	if err != nil {
		return nil, err
	}
	artifact, err := session.Library().Get(artifactId)
	if err != nil {
		return nil, err
	}

	switch artifact.Kind {
	case library.KindDocument:
		data, err := document.DecodeDataURI(artifact.Payload)
		if err != nil {
			return nil, err
		}
		return &dto.ArtifactContent{
			FileName: fmt.Sprintf("aether-%s.pdf", artifact.ID),
			MimeType: "application/pdf",
			Data:     data,
		}, nil

	case library.KindImage:
		data, err := base64.StdEncoding.DecodeString(artifact.Payload)
		if err != nil {
			return nil, fmt.Errorf("decode image payload: %w", err)
		}
		return &dto.ArtifactContent{
			FileName: fmt.Sprintf("aether-image-%s%s", artifact.ID, extensionFor(artifact.MIMEType)),
			MimeType: artifact.MIMEType,
			Data:     data,
		}, nil

	default:
		markup, ok := router.ExtractSite(artifact.Payload)
		if !ok {
			markup = artifact.Payload
		}
		return &dto.ArtifactContent{
			FileName: fmt.Sprintf("aether-site-%s.html", artifact.ID),
			MimeType: "text/html; charset=utf-8",
			Data:     []byte(markup),
		}, nil
	}
}

func (s *chatbotService) Close() {
	s.cancel()
}

// --- helpers shared by the workflows ---

func (s *chatbotService) requireAuth(session *store.Session) error {
	if session.Auth().LoggedIn() {
		return nil
	}
	session.SetLoginPrompt(true)
	s.notify(session)
	return ErrAuthRequired
}

func (s *chatbotService) appendUserTurn(session *store.Session, text string, attachment *entity.Attachment) entity.Turn {
	return session.AppendTurn(entity.Turn{
		Speaker:    entity.TurnSpeakerUser,
		Text:       text,
		Attachment: attachment,
	})
}

func (s *chatbotService) appendPlaceholder(session *store.Session, text string) entity.Turn {
	return session.AppendTurn(entity.Turn{
		Speaker:   entity.TurnSpeakerAssistant,
		Text:      text,
		Streaming: true,
	})
}

// chatSession returns the conversation's model handle, creating it on first use.
func (s *chatbotService) chatSession(ctx context.Context, session *store.Session) (llm.ChatSession, error) {
	if chat := session.ChatSession(); chat != nil {
		return chat, nil
	}
	chat, err := s.gateway.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	session.SetChatSession(chat)
	return chat, nil
}

// authorFor is the display name of the logged in user, or fallback.
func authorFor(session *store.Session, fallback string) string {
	if name := session.Auth().DisplayName; name != "" {
		return name
	}
	return fallback
}

func (s *chatbotService) addArtifact(ctx context.Context, session *store.Session, artifact library.Artifact) {
	added, inserted := session.Library().Add(artifact)
	if !inserted {
		s.logger.Debug("ChatbotService", "Duplicate site artifact skipped", map[string]interface{}{"session_id": session.Id})
		return
	}

	s.logger.Info("ChatbotService", "Artifact added", map[string]interface{}{
		"session_id":  session.Id,
		"artifact_id": added.ID,
		"kind":        added.Kind,
	})

	event := events.NewArtifactCreated(session.Id, added.ID, string(added.Kind), added.Title)
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("ChatbotService", "Failed to publish ARTIFACT_CREATED", map[string]interface{}{"error": err.Error()})
	}
}

func toLLMAttachment(a *entity.Attachment) *llm.Attachment {
	if a == nil {
		return nil
	}
	return &llm.Attachment{Data: a.Data, MIMEType: a.MIMEType}
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
