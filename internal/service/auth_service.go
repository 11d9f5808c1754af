package service

import (
	"context"
	"fmt"
	"strings"

	"aether-base-be/internal/config"
	"aether-base-be/internal/dto"
	"aether-base-be/internal/entity"
	"aether-base-be/internal/mapper"
	"aether-base-be/internal/pkg/logger"
	"aether-base-be/internal/repository/memory"
	"aether-base-be/pkg/events"
	"aether-base-be/pkg/pacing"
	"aether-base-be/pkg/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// IAuthService drives the loggedOut -> pendingVerification -> loggedIn
// machine of a session.
type IAuthService interface {
	Login(ctx context.Context, sessionId uuid.UUID, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, sessionId uuid.UUID) error

	// BeginExternalLogin marks the session pending while a third party verifies.
	BeginExternalLogin(ctx context.Context, sessionId uuid.UUID, provider string) error
	CompleteExternalLogin(ctx context.Context, sessionId uuid.UUID, provider, displayName, email string) (*dto.LoginResponse, error)
	AbortExternalLogin(ctx context.Context, sessionId uuid.UUID, provider string)
}

type authService struct {
	sessionRepo  *memory.SessionRepository
	events       events.Publisher
	cfg          config.AuthConfig
	passwordHash []byte
	mapper       *mapper.ChatMapper
	logger       logger.ILogger

	*snapshotNotifier
}

func NewAuthService(
	sessionRepo *memory.SessionRepository,
	publisher IPublisherService,
	eventPublisher events.Publisher,
	cfg config.AuthConfig,
	log logger.ILogger,
) (IAuthService, error) {
	if eventPublisher == nil {
		eventPublisher = events.NoopPublisher{}
	}

	hash := []byte(cfg.LocalPasswordHash)
	if len(hash) == 0 && cfg.LocalPassword != "" {
		generated, err := bcrypt.GenerateFromPassword([]byte(cfg.LocalPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash local password: %w", err)
		}
		hash = generated
	}

	chatMapper := mapper.NewChatMapper()
	return &authService{
		sessionRepo:  sessionRepo,
		events:       eventPublisher,
		cfg:          cfg,
		passwordHash: hash,
		mapper:       chatMapper,
		logger:       log,
		snapshotNotifier: &snapshotNotifier{
			publisher: publisher,
			mapper:    chatMapper,
			logger:    log,
		},
	}, nil
}

func (s *authService) Login(ctx context.Context, sessionId uuid.UUID, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	session, err := findSession(s.sessionRepo, sessionId)
	if err != nil {
		return nil, err
	}
	if auth := session.Auth(); auth.LoggedIn() {
		return &dto.LoginResponse{Auth: s.mapper.AuthToResponse(auth)}, nil
	}
	if err := s.begin(session, ProviderLocal); err != nil {
		return nil, err
	}

	// Verification is slow on purpose; the pending state is visible meanwhile.
	if err := pacing.Sleep(ctx, s.cfg.VerificationDelay); err != nil {
		s.abort(session, ProviderLocal)
		return nil, err
	}

	if !s.checkCredentials(req.Email, req.Password) {
		s.logger.Warn("AuthService", "Invalid credentials", map[string]interface{}{"session_id": sessionId, "email": req.Email})
		s.abort(session, ProviderLocal)
		return nil, ErrInvalidCredentials
	}

	return s.complete(ctx, session, ProviderLocal, s.cfg.LocalName, s.cfg.LocalEmail)
}

func (s *authService) checkCredentials(email, password string) bool {
	if len(s.passwordHash) == 0 {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(email), s.cfg.LocalEmail) {
		return false
	}
	return bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
}

func (s *authService) Logout(ctx context.Context, sessionId uuid.UUID) error {
	session, err := findSession(s.sessionRepo, sessionId)
	if err != nil {
		return err
	}
	if !session.Logout() {
		return ErrNotLoggedIn
	}

	s.logger.Info("AuthService", "Logged out", map[string]interface{}{"session_id": sessionId})
	if err := s.events.Publish(ctx, events.NewUserLogout(sessionId)); err != nil {
		s.logger.Warn("AuthService", "Failed to publish USER_LOGOUT", map[string]interface{}{"error": err.Error()})
	}
	s.notify(session)
	return nil
}

func (s *authService) BeginExternalLogin(ctx context.Context, sessionId uuid.UUID, provider string) error {
	session, err := findSession(s.sessionRepo, sessionId)
	if err != nil {
		return err
	}

	// An abandoned consent page must not lock the session out of retrying.
	if auth := session.Auth(); auth.Status == entity.AuthStatusPendingVerification && auth.Provider == provider {
		return nil
	}
	return s.begin(session, provider)
}

func (s *authService) CompleteExternalLogin(ctx context.Context, sessionId uuid.UUID, provider, displayName, email string) (*dto.LoginResponse, error) {
	session, err := findSession(s.sessionRepo, sessionId)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, session, provider, displayName, email)
}

func (s *authService) AbortExternalLogin(ctx context.Context, sessionId uuid.UUID, provider string) {
	if session, err := findSession(s.sessionRepo, sessionId); err == nil {
		s.abort(session, provider)
	}
}

func (s *authService) begin(session *store.Session, provider string) error {
	if session.BeginVerification(provider) {
		s.logger.Info("AuthService", "Verification started", map[string]interface{}{"session_id": session.Id, "provider": provider})
		s.notify(session)
		return nil
	}

	auth := session.Auth()
	if auth.LoggedIn() {
		return nil
	}
	// An external verification waits on a consent page that may never come
	// back; a new attempt takes over. A local one is always short-lived.
	if auth.Provider != ProviderLocal && session.ReplaceVerification(auth.Provider, provider) {
		s.logger.Info("AuthService", "Pending verification replaced", map[string]interface{}{
			"session_id": session.Id,
			"from":       auth.Provider,
			"provider":   provider,
		})
		s.notify(session)
		return nil
	}
	return ErrLoginInProgress
}

func (s *authService) complete(ctx context.Context, session *store.Session, provider, displayName, email string) (*dto.LoginResponse, error) {
	if session.CompleteLogin(provider, displayName, email) {
		auth := session.Auth()
		s.logger.Info("AuthService", "Logged in", map[string]interface{}{"session_id": session.Id, "provider": auth.Provider})
		if err := s.events.Publish(ctx, events.NewUserLogin(session.Id, auth.Provider, displayName)); err != nil {
			s.logger.Warn("AuthService", "Failed to publish USER_LOGIN", map[string]interface{}{"error": err.Error()})
		}
		s.notify(session)
	}

	auth := session.Auth()
	if auth.Status == entity.AuthStatusPendingVerification && auth.Provider != provider {
		return nil, ErrVerificationReplaced
	}
	if !auth.LoggedIn() {
		return nil, ErrInvalidCredentials
	}
	if auth.Provider != provider {
		return nil, ErrVerificationReplaced
	}
	return &dto.LoginResponse{Auth: s.mapper.AuthToResponse(auth)}, nil
}

func (s *authService) abort(session *store.Session, provider string) {
	if session.AbortVerification(provider) {
		s.notify(session)
	}
}
