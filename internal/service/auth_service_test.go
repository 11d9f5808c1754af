package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"aether-base-be/internal/config"
	"aether-base-be/internal/dto"
	"aether-base-be/internal/entity"
	"aether-base-be/internal/pkg/logger"
	"aether-base-be/internal/pkg/serverutils"
	"aether-base-be/internal/repository/memory"
	"aether-base-be/pkg/events"
	"aether-base-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var testAuthConfig = config.AuthConfig{
	VerificationDelay: 100 * time.Millisecond,
	LocalEmail:        "ana@exemplo.com",
	LocalName:         "Ana",
	LocalPassword:     "segredo",
}

func newAuthHarness(t *testing.T) (IAuthService, *memory.SessionRepository, *recordingPublisher) {
	t.Helper()
	repo := memory.NewSessionRepository(time.Hour)
	pub := &recordingPublisher{}

	svc, err := NewAuthService(repo, nil, pub, testAuthConfig, logger.NewNopLogger())
	require.NoError(t, err)
	return svc, repo, pub
}

func savedSession(repo *memory.SessionRepository) *store.Session {
	session := store.NewSession()
	repo.Save(session)
	return session
}

func TestLoginTransitions(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		password   string
		wantErr    error
		wantStatus entity.AuthStatus
	}{
		{
			name:       "valid credentials",
			email:      "ana@exemplo.com",
			password:   "segredo",
			wantStatus: entity.AuthStatusLoggedIn,
		},
		{
			name:       "email is case insensitive",
			email:      " ANA@exemplo.com ",
			password:   "segredo",
			wantStatus: entity.AuthStatusLoggedIn,
		},
		{
			name:       "wrong password",
			email:      "ana@exemplo.com",
			password:   "errada",
			wantErr:    ErrInvalidCredentials,
			wantStatus: entity.AuthStatusLoggedOut,
		},
		{
			name:       "unknown account",
			email:      "bia@exemplo.com",
			password:   "segredo",
			wantErr:    ErrInvalidCredentials,
			wantStatus: entity.AuthStatusLoggedOut,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newAuthHarness(t)
			session := savedSession(repo)

			res, err := svc.Login(context.Background(), session.Id, &dto.LoginRequest{Email: tt.email, Password: tt.password})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.True(t, res.Auth.LoggedIn)
				assert.Equal(t, "Ana", res.Auth.DisplayName)
				assert.Equal(t, ProviderLocal, res.Auth.Provider)
			}
			assert.Equal(t, tt.wantStatus, session.Auth().Status)
		})
	}
}

func TestLoginIsPendingWhileVerifying(t *testing.T) {
	svc, repo, _ := newAuthHarness(t)
	session := savedSession(repo)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Login(context.Background(), session.Id, &dto.LoginRequest{Email: "ana@exemplo.com", Password: "segredo"})
		done <- err
	}()

	require.Eventually(t, func() bool {
		return session.Auth().Status == entity.AuthStatusPendingVerification
	}, time.Second, time.Millisecond)

	_, err := svc.Login(context.Background(), session.Id, &dto.LoginRequest{Email: "ana@exemplo.com", Password: "segredo"})
	assert.ErrorIs(t, err, ErrLoginInProgress)

	require.NoError(t, <-done)
	assert.True(t, session.Auth().LoggedIn())
}

func TestLoginCancelledReturnsToLoggedOut(t *testing.T) {
	svc, repo, _ := newAuthHarness(t)
	session := savedSession(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Login(ctx, session.Id, &dto.LoginRequest{Email: "ana@exemplo.com", Password: "segredo"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, entity.AuthStatusLoggedOut, session.Auth().Status)
}

func TestLoginClearsLoginPrompt(t *testing.T) {
	svc, repo, _ := newAuthHarness(t)
	session := savedSession(repo)
	session.SetLoginPrompt(true)

	_, err := svc.Login(context.Background(), session.Id, &dto.LoginRequest{Email: "ana@exemplo.com", Password: "segredo"})
	require.NoError(t, err)
	assert.False(t, session.LoginPrompt())
}

func TestLogoutClearsConversation(t *testing.T) {
	svc, repo, pub := newAuthHarness(t)
	session := savedSession(repo)

	assert.ErrorIs(t, svc.Logout(context.Background(), session.Id), ErrNotLoggedIn)

	_, err := svc.Login(context.Background(), session.Id, &dto.LoginRequest{Email: "ana@exemplo.com", Password: "segredo"})
	require.NoError(t, err)

	session.AppendTurn(entity.Turn{Speaker: entity.TurnSpeakerUser, Text: "oi"})
	session.SetDocumentMode(true)

	require.NoError(t, svc.Logout(context.Background(), session.Id))

	snap := session.Snapshot()
	assert.Equal(t, entity.AuthStatusLoggedOut, snap.Auth.Status)
	assert.Empty(t, snap.Turns)
	assert.False(t, snap.DocumentMode)
	assert.Equal(t, []string{events.TypeUserLogin, events.TypeUserLogout}, pub.types())
}

func TestExternalLogin(t *testing.T) {
	svc, repo, _ := newAuthHarness(t)
	session := savedSession(repo)
	ctx := context.Background()

	require.NoError(t, svc.BeginExternalLogin(ctx, session.Id, ProviderGoogle))
	// retrying an abandoned consent page is allowed
	require.NoError(t, svc.BeginExternalLogin(ctx, session.Id, ProviderGoogle))
	assert.Equal(t, entity.AuthStatusPendingVerification, session.Auth().Status)

	res, err := svc.CompleteExternalLogin(ctx, session.Id, ProviderGoogle, "Bia", "bia@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, res.Auth.Provider)
	assert.Equal(t, "bia@gmail.com", res.Auth.Email)

	other := savedSession(repo)
	require.NoError(t, svc.BeginExternalLogin(ctx, other.Id, ProviderGoogle))
	svc.AbortExternalLogin(ctx, other.Id, ProviderGoogle)
	assert.Equal(t, entity.AuthStatusLoggedOut, other.Auth().Status)
}

func TestLocalLoginReplacesAbandonedConsent(t *testing.T) {
	svc, repo, _ := newAuthHarness(t)
	session := savedSession(repo)
	ctx := context.Background()

	require.NoError(t, svc.BeginExternalLogin(ctx, session.Id, ProviderGoogle))

	res, err := svc.Login(ctx, session.Id, &dto.LoginRequest{Email: "ana@exemplo.com", Password: "segredo"})
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, res.Auth.Provider)

	// the consent page coming back late cannot take the session over
	_, err = svc.CompleteExternalLogin(ctx, session.Id, ProviderGoogle, "Bia", "bia@gmail.com")
	assert.ErrorIs(t, err, ErrVerificationReplaced)
	assert.Equal(t, "Ana", session.Auth().DisplayName)
}

func TestLateConsentFailureKeepsLocalVerification(t *testing.T) {
	svc, repo, _ := newAuthHarness(t)
	session := savedSession(repo)
	ctx := context.Background()

	require.NoError(t, svc.BeginExternalLogin(ctx, session.Id, ProviderGoogle))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Login(ctx, session.Id, &dto.LoginRequest{Email: "ana@exemplo.com", Password: "segredo"})
		done <- err
	}()

	require.Eventually(t, func() bool {
		return session.Auth().Provider == ProviderLocal
	}, time.Second, time.Millisecond)

	svc.AbortExternalLogin(ctx, session.Id, ProviderGoogle)
	assert.Equal(t, entity.AuthStatusPendingVerification, session.Auth().Status)

	// an external attempt cannot replace a local verification
	assert.ErrorIs(t, svc.BeginExternalLogin(ctx, session.Id, ProviderGoogle), ErrLoginInProgress)

	require.NoError(t, <-done)
	assert.True(t, session.Auth().LoggedIn())
}

func TestOAuthCallbackCompletesLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "token-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(googleUser{ID: "1", Email: "bia@gmail.com", Name: "Bia", VerifiedEmail: true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	authSvc, repo, _ := newAuthHarness(t)
	session := savedSession(repo)

	svc := NewOAuthService(config.AuthConfig{GoogleClientID: "id", GoogleClientSecret: "secret"}, "state-secret", authSvc, logger.NewNopLogger()).(*oauthService)
	svc.googleConf.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	svc.userInfoURL = srv.URL + "/userinfo"

	loginURL, err := svc.GetLoginURL(context.Background(), session.Id, ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, entity.AuthStatusPendingVerification, session.Auth().Status)

	parsed, err := url.Parse(loginURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)

	// the state travels through the browser and must not open the API
	_, err = serverutils.NewSessionTokens("state-secret", time.Hour).Parse(state)
	assert.ErrorIs(t, err, serverutils.ErrInvalidToken)

	res, err := svc.HandleCallback(context.Background(), ProviderGoogle, "code-abc", state)
	require.NoError(t, err)
	assert.Equal(t, "Bia", res.Auth.DisplayName)
	assert.True(t, session.Auth().LoggedIn())
}

func TestOAuthRejectsBadState(t *testing.T) {
	authSvc, _, _ := newAuthHarness(t)
	svc := NewOAuthService(config.AuthConfig{}, "state-secret", authSvc, logger.NewNopLogger())

	_, err := svc.HandleCallback(context.Background(), ProviderGoogle, "code", "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidOAuthState)

	_, err = svc.GetLoginURL(context.Background(), uuid.New(), "github")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}
