package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
	"unicode/utf8"

	"aether-base-be/internal/constant"
	"aether-base-be/internal/entity"
	"aether-base-be/internal/tracer"
	"aether-base-be/pkg/library"
	"aether-base-be/pkg/llm"
	"aether-base-be/pkg/pacing"
	"aether-base-be/pkg/store"

	"go.opentelemetry.io/otel/attribute"
)

// runImage synthesizes or edits an image. A fast result is held until the
// pacing duration has elapsed since the call began.
func (s *chatbotService) runImage(ctx context.Context, session *store.Session, text string, attachment *entity.Attachment) {
	ctx, span := tracer.Start(ctx, "ChatbotService.runImage",
		attribute.String("session.id", session.Id.String()),
		attribute.Bool("image.edit", attachment != nil),
	)
	var spanErr error
	defer func() { tracer.End(span, spanErr) }()

	s.appendUserTurn(session, text, attachment)
	placeholder := s.appendPlaceholder(session, constant.ImagePlaceholderText)
	s.notify(session)

	progress := pacing.StartProgress(s.workflow.ImagePacing, s.workflow.ProgressTick, func(percent int) {
		session.SetProgress(percent)
		s.notify(session)
	})
	defer func() {
		progress.Stop()
		session.SetProgress(0)
	}()

	start := time.Now()
	img, err := s.gateway.SynthesizeImage(ctx, text, toLLMAttachment(attachment))
	if err == nil && img == nil {
		err = llm.ErrEmptySynthesis
	}
	if err == nil {
		err = pacing.Hold(ctx, start, s.workflow.ImagePacing)
	}
	if err != nil {
		spanErr = err
		s.logger.Error("ChatbotService", "Image workflow failed", map[string]interface{}{"session_id": session.Id, "error": err.Error()})
		progress.Stop()
		session.ResolveTurn(placeholder.Id, constant.ImageFailureText, nil)
		return
	}
	progress.Stop()

	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	session.ResolveTurn(placeholder.Id, fmt.Sprintf(constant.ImageSuccessText, text), &entity.Attachment{
		Data:     img.Data,
		MIMEType: mimeType,
	})

	s.addArtifact(ctx, session, library.Artifact{
		Kind:     library.KindImage,
		Title:    imageTitle(text),
		Author:   authorFor(session, constant.GeneratedAuthor),
		Payload:  base64.StdEncoding.EncodeToString(img.Data),
		MIMEType: mimeType,
	})
}

// imageTitle keeps the first runes of the prompt followed by "...".
func imageTitle(text string) string {
	if utf8.RuneCountInString(text) <= constant.ImageTitleLength {
		return text + "..."
	}
	return string([]rune(text)[:constant.ImageTitleLength]) + "..."
}
