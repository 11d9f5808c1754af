package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"aether-base-be/internal/config"
	"aether-base-be/internal/dto"
	"aether-base-be/internal/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	oauthStateTTL     = 10 * time.Minute
)

var (
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrInvalidOAuthState   = errors.New("invalid oauth state")
)

type IOAuthService interface {
	GetLoginURL(ctx context.Context, sessionId uuid.UUID, provider string) (string, error)
	HandleCallback(ctx context.Context, provider, code, state string) (*dto.LoginResponse, error)
}

type oauthService struct {
	auth        IAuthService
	googleConf  *oauth2.Config
	userInfoURL string
	secret      []byte
	logger      logger.ILogger
}

func NewOAuthService(cfg config.AuthConfig, secret string, auth IAuthService, log logger.ILogger) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	log.Info("OAuthService", "Initialized", map[string]interface{}{
		"google_configured": conf.ClientID != "",
		"redirect_url":      conf.RedirectURL,
	})

	return &oauthService{
		auth:        auth,
		googleConf:  conf,
		userInfoURL: googleUserInfoURL,
		secret:      []byte(secret),
		logger:      log,
	}
}

// GetLoginURL marks the session pending and returns the consent page URL.
// The state is a short-lived signed token naming the session.
func (s *oauthService) GetLoginURL(ctx context.Context, sessionId uuid.UUID, provider string) (string, error) {
	if provider != ProviderGoogle {
		return "", ErrUnsupportedProvider
	}

	state, err := s.signState(sessionId)
	if err != nil {
		return "", err
	}
	if err := s.auth.BeginExternalLogin(ctx, sessionId, provider); err != nil {
		return "", err
	}

	return s.googleConf.AuthCodeURL(state), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider, code, state string) (*dto.LoginResponse, error) {
	if provider != ProviderGoogle {
		return nil, ErrUnsupportedProvider
	}

	sessionId, err := s.parseState(state)
	if err != nil {
		return nil, err
	}

	user, err := s.fetchGoogleUser(ctx, code)
	if err != nil {
		s.logger.Error("OAuthService", "Google verification failed", map[string]interface{}{"session_id": sessionId, "error": err.Error()})
		s.auth.AbortExternalLogin(ctx, sessionId, provider)
		return nil, err
	}

	name := user.Name
	if name == "" {
		name = user.Email
	}
	return s.auth.CompleteExternalLogin(ctx, sessionId, provider, name, user.Email)
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (s *oauthService) fetchGoogleUser(ctx context.Context, code string) (*googleUser, error) {
	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	resp, err := s.googleConf.Client(ctx, token).Get(s.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading response: %w", err)
	}

	var user googleUser
	if err := json.Unmarshal(content, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	if user.Email == "" {
		return nil, errors.New("google profile has no email")
	}
	return &user, nil
}

func (s *oauthService) signState(sessionId uuid.UUID) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"session_id": sessionId.String(),
		"nonce":      base64.RawURLEncoding.EncodeToString(nonce),
		"purpose":    "oauth_state",
		"exp":        time.Now().Add(oauthStateTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *oauthService) parseState(state string) (uuid.UUID, error) {
	token, err := jwt.Parse(state, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidOAuthState
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidOAuthState
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["purpose"] != "oauth_state" {
		return uuid.Nil, ErrInvalidOAuthState
	}
	raw, _ := claims["session_id"].(string)
	sessionId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidOAuthState
	}
	return sessionId, nil
}
