package store

import (
	"aether-base-be/internal/entity"
)

func (s *Session) Auth() entity.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth
}

// BeginVerification moves loggedOut to pendingVerification.
// Returns false when the session is already pending or logged in.
func (s *Session) BeginVerification(provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.auth.Status != entity.AuthStatusLoggedOut {
		return false
	}
	s.auth = entity.AuthState{Status: entity.AuthStatusPendingVerification, Provider: provider}
	return true
}

// ReplaceVerification hands a pending verification of provider from over to
// provider to. Returns false when from is not the pending provider.
func (s *Session) ReplaceVerification(from, to string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.auth.Status != entity.AuthStatusPendingVerification || s.auth.Provider != from {
		return false
	}
	s.auth = entity.AuthState{Status: entity.AuthStatusPendingVerification, Provider: to}
	return true
}

// CompleteLogin moves a pending verification of provider to loggedIn and
// hides the login prompt.
func (s *Session) CompleteLogin(provider, displayName, email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.auth.Status != entity.AuthStatusPendingVerification || s.auth.Provider != provider {
		return false
	}
	s.auth = entity.AuthState{
		Status:      entity.AuthStatusLoggedIn,
		DisplayName: displayName,
		Email:       email,
		Provider:    provider,
	}
	s.loginPrompt = false
	return true
}

// AbortVerification moves a pending verification of provider back to
// loggedOut. Returns false when another provider, or none, is pending.
func (s *Session) AbortVerification(provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.auth.Status != entity.AuthStatusPendingVerification || s.auth.Provider != provider {
		return false
	}
	s.auth = entity.AuthState{Status: entity.AuthStatusLoggedOut}
	return true
}

// Logout moves loggedIn to loggedOut and clears the conversation.
func (s *Session) Logout() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.auth.Status != entity.AuthStatusLoggedIn {
		return false
	}
	s.auth = entity.AuthState{Status: entity.AuthStatusLoggedOut}
	s.resetConversationLocked()
	return true
}
