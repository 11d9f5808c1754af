package mapper

import (
	"encoding/base64"
	"fmt"
	"time"

	"aether-base-be/internal/dto"
	"aether-base-be/internal/entity"
	"aether-base-be/pkg/library"
	"aether-base-be/pkg/store"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) SnapshotToResponse(s store.Snapshot) *dto.SessionSnapshotResponse {
	turns := make([]dto.TurnResponse, 0, len(s.Turns))
	for _, t := range s.Turns {
		turns = append(turns, m.TurnToResponse(t))
	}

	return &dto.SessionSnapshotResponse{
		SessionId:    s.SessionId,
		Turns:        turns,
		Auth:         m.AuthToResponse(s.Auth),
		DocumentMode: s.DocumentMode,
		Progress:     s.Progress,
		Loading:      s.Loading,
		LoginPrompt:  s.LoginPrompt,
		LibraryOpen:  s.LibraryOpen,
		Artifacts:    m.ArtifactsToResponse(s.Artifacts),
		GeneratedAt:  time.Now(),
	}
}

func (m *ChatMapper) TurnToResponse(t entity.Turn) dto.TurnResponse {
	res := dto.TurnResponse{
		Id:        t.Id,
		Role:      string(t.Speaker),
		Text:      t.Text,
		Streaming: t.Streaming,
		CreatedAt: t.CreatedAt,
	}
	if t.Attachment != nil {
		res.Attachment = &dto.AttachmentDTO{
			Data:     base64.StdEncoding.EncodeToString(t.Attachment.Data),
			MimeType: t.Attachment.MIMEType,
		}
	}
	return res
}

func (m *ChatMapper) AuthToResponse(a entity.AuthState) dto.AuthStateResponse {
	return dto.AuthStateResponse{
		Status:      string(a.Status),
		LoggedIn:    a.LoggedIn(),
		DisplayName: a.DisplayName,
		Email:       a.Email,
		Provider:    a.Provider,
	}
}

// ArtifactsToResponse lists artifact metadata. Payloads are served separately.
func (m *ChatMapper) ArtifactsToResponse(artifacts []library.Artifact) []dto.ArtifactResponse {
	res := make([]dto.ArtifactResponse, 0, len(artifacts))
	for _, a := range artifacts {
		res = append(res, dto.ArtifactResponse{
			Id:        a.ID,
			Kind:      string(a.Kind),
			Title:     a.Title,
			Author:    a.Author,
			MimeType:  a.MIMEType,
			Pages:     a.Pages,
			CreatedAt: a.CreatedAt,
		})
	}
	return res
}

// AttachmentFromDTO decodes the base64 payload. A nil DTO is no attachment.
func (m *ChatMapper) AttachmentFromDTO(a *dto.AttachmentDTO) (*entity.Attachment, error) {
	if a == nil {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid attachment data: %w", err)
	}
	return &entity.Attachment{Data: data, MIMEType: a.MimeType}, nil
}
