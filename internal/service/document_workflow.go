package service

import (
	"context"
	"fmt"

	"aether-base-be/internal/constant"
	"aether-base-be/internal/entity"
	"aether-base-be/internal/tracer"
	"aether-base-be/pkg/ai/router"
	"aether-base-be/pkg/document"
	"aether-base-be/pkg/library"
	"aether-base-be/pkg/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// runDocument writes an article on topic, illustrates it and compiles it to a
// PDF artifact. The mode flag was already cleared by begin.
func (s *chatbotService) runDocument(ctx context.Context, session *store.Session, topic, text string, attachment *entity.Attachment) {
	ctx, span := tracer.Start(ctx, "ChatbotService.runDocument",
		attribute.String("session.id", session.Id.String()),
		attribute.String("document.topic", topic),
	)
	var spanErr error
	defer func() { tracer.End(span, spanErr) }()

	s.appendUserTurn(session, text, attachment)
	placeholder := s.appendPlaceholder(session, constant.DocumentPlaceholderText)
	s.notify(session)

	fail := func(step string, err error) {
		spanErr = fmt.Errorf("%s: %w", step, err)
		s.logger.Error("ChatbotService", "Document workflow failed", map[string]interface{}{
			"session_id": session.Id,
			"step":       step,
			"error":      err.Error(),
		})
		session.ResolveTurn(placeholder.Id, constant.DocumentFailureText, nil)
	}

	chat, err := s.chatSession(ctx, session)
	if err != nil {
		fail("session", err)
		return
	}

	body, err := chat.StreamCompletion(ctx, fmt.Sprintf(constant.DocumentContentPrompt, topic), toLLMAttachment(attachment), nil)
	if err != nil {
		fail("content", err)
		return
	}

	illustration := s.illustrationFor(ctx, session, placeholder.Id, topic, attachment)

	compiled, err := s.compiler.Compile(router.Title(topic), body, illustration)
	if err != nil {
		fail("compile", err)
		return
	}

	pages := compiled.Pages
	span.SetAttributes(attribute.Int("document.bytes", len(compiled.Data)), attribute.Bool("document.illustrated", illustration != nil))
	if info, err := document.Inspect(compiled.Data); err != nil {
		s.logger.Warn("ChatbotService", "Compiled document is not readable back", map[string]interface{}{"session_id": session.Id, "error": err.Error()})
	} else {
		pages = info.Pages
	}

	s.addArtifact(ctx, session, library.Artifact{
		Kind:     library.KindDocument,
		Title:    router.Title(topic),
		Author:   authorFor(session, constant.DocumentAuthor),
		Payload:  compiled.DataURI(),
		MIMEType: "application/pdf",
		Pages:    pages,
	})

	session.ResolveTurn(placeholder.Id, fmt.Sprintf(constant.DocumentSuccessText, topic), nil)
}

// illustrationFor reuses the user's image, or asks the gateway for one.
// A missing or failed illustration is not fatal.
func (s *chatbotService) illustrationFor(ctx context.Context, session *store.Session, placeholderId uuid.UUID, topic string, attachment *entity.Attachment) *document.Image {
	if attachment != nil {
		return &document.Image{Data: attachment.Data, MIMEType: attachment.MIMEType}
	}

	if session.UpdateTurnText(placeholderId, constant.DocumentIllustrationText) {
		s.notify(session)
	}

	img, err := s.gateway.SynthesizeImage(ctx, fmt.Sprintf(constant.DocumentIllustrationPrompt, topic), nil)
	if err != nil {
		s.logger.Warn("ChatbotService", "Illustration failed, compiling without image", map[string]interface{}{"session_id": session.Id, "error": err.Error()})
		return nil
	}
	if img == nil {
		return nil
	}
	return &document.Image{Data: img.Data, MIMEType: img.MIMEType}
}
