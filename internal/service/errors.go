package service

import "errors"

var (
	ErrAuthRequired         = errors.New("login required")
	ErrGenerationInFlight   = errors.New("a generation is already running for this session")
	ErrSessionNotFound      = errors.New("session not found")
	ErrEmptyMessage         = errors.New("message must have text or an attachment")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrLoginInProgress      = errors.New("login already in progress")
	ErrVerificationReplaced = errors.New("login was replaced by another attempt")
	ErrNotLoggedIn          = errors.New("not logged in")
	ErrUnsupportedMode      = errors.New("unsupported quick mode")
)
