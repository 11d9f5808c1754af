package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	SessionId uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AttachmentDTO carries image bytes base64-encoded at the boundary.
type AttachmentDTO struct {
	Data     string `json:"data" validate:"required,base64"`
	MimeType string `json:"mime_type" validate:"required,startswith=image/"`
}

type SendChatRequest struct {
	Chat       string         `json:"chat" validate:"max=20000"`
	Attachment *AttachmentDTO `json:"attachment,omitempty"`
}

type QuickModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=study site"`
}

type TurnResponse struct {
	Id         uuid.UUID      `json:"id"`
	Role       string         `json:"role"`
	Text       string         `json:"text"`
	Attachment *AttachmentDTO `json:"attachment,omitempty"`
	Streaming  bool           `json:"streaming"`
	CreatedAt  time.Time      `json:"created_at"`
}

type AuthStateResponse struct {
	Status      string `json:"status"`
	LoggedIn    bool   `json:"logged_in"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Provider    string `json:"provider,omitempty"`
}

// SessionSnapshotResponse is what the presentation layer renders.
type SessionSnapshotResponse struct {
	SessionId    uuid.UUID          `json:"session_id"`
	Turns        []TurnResponse     `json:"turns"`
	Auth         AuthStateResponse  `json:"auth"`
	DocumentMode bool               `json:"document_mode"`
	Progress     int                `json:"progress"`
	Loading      bool               `json:"loading"`
	LoginPrompt  bool               `json:"login_prompt"`
	LibraryOpen  bool               `json:"library_open"`
	Artifacts    []ArtifactResponse `json:"artifacts"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

type ArtifactResponse struct {
	Id        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	MimeType  string    `json:"mime_type"`
	Pages     int       `json:"pages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ArtifactContent is a decoded artifact payload ready to be served.
type ArtifactContent struct {
	FileName string
	MimeType string
	Data     []byte
}
