package service

import (
	"context"

	"aether-base-be/internal/constant"
	"aether-base-be/internal/entity"
	"aether-base-be/internal/tracer"
	"aether-base-be/pkg/ai/router"
	"aether-base-be/pkg/library"
	"aether-base-be/pkg/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// runChat streams a reply into a placeholder turn. A reply that embeds a
// complete markup document becomes a site artifact for logged in users.
func (s *chatbotService) runChat(ctx context.Context, session *store.Session, text string, attachment *entity.Attachment) {
	ctx, span := tracer.Start(ctx, "ChatbotService.runChat", attribute.String("session.id", session.Id.String()))
	var spanErr error
	defer func() { tracer.End(span, spanErr) }()

	s.appendUserTurn(session, text, attachment)
	placeholder := s.appendPlaceholder(session, "")
	s.notify(session)

	full, err := s.streamInto(ctx, session, placeholder.Id, text, attachment)
	if err != nil {
		spanErr = err
		s.logger.Error("ChatbotService", "Chat completion failed", map[string]interface{}{"session_id": session.Id, "error": err.Error()})
		session.SettleTurn(placeholder.Id)
		session.AppendTurn(entity.Turn{Speaker: entity.TurnSpeakerAssistant, Text: constant.ChatFailureText})
		return
	}

	// Detection runs once, on the settled text.
	site := router.ContainsSite(full)
	span.SetAttributes(attribute.Int("reply.length", len(full)), attribute.Bool("reply.site", site))
	if site && session.Auth().LoggedIn() {
		s.addArtifact(ctx, session, library.Artifact{
			Kind:     library.KindSite,
			Title:    constant.SiteArtifactTitle,
			Author:   authorFor(session, constant.GeneratedAuthor),
			Payload:  full,
			MIMEType: "text/html",
		})
	}

	session.ResolveTurn(placeholder.Id, full, nil)
}

// streamInto runs a completion on the conversation handle and mirrors every
// cumulative increment into the placeholder turn.
func (s *chatbotService) streamInto(ctx context.Context, session *store.Session, turnId uuid.UUID, prompt string, attachment *entity.Attachment) (string, error) {
	chat, err := s.chatSession(ctx, session)
	if err != nil {
		return "", err
	}

	return chat.StreamCompletion(ctx, prompt, toLLMAttachment(attachment), func(cumulative string) {
		if session.UpdateTurnText(turnId, cumulative) {
			s.notify(session)
		}
	})
}
