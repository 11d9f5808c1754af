package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"aether-base-be/pkg/llm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const providerName = "gemini"

var tracer = otel.Tracer("aether-base-be/pkg/llm/gemini")

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type Config struct {
	APIKey            string
	BaseURL           string // empty uses the public endpoint
	ChatModel         string
	ImageModel        string
	Temperature       float64
	SystemInstruction string
	RequestsPerSec    float64
	Burst             int
	HTTPClient        *http.Client
}

// GeminiGateway talks to the Gemini API through the official genai client.
// Every outbound call waits on a shared token bucket.
type GeminiGateway struct {
	client  *genai.Client
	cfg     Config
	limiter *rate.Limiter
}

var _ llm.Gateway = &GeminiGateway{}

func NewGeminiGateway(ctx context.Context, cfg Config) (*GeminiGateway, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gemini-2.5-flash"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "gemini-2.5-flash-image"
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(cfg.BaseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, llm.Wrap(providerName, "new client", err)
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &GeminiGateway{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

func (g *GeminiGateway) NewSession(ctx context.Context) (llm.ChatSession, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(g.cfg.Temperature)),
	}
	if g.cfg.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(g.cfg.SystemInstruction, genai.RoleUser)
	}

	chat, err := g.client.Chats.Create(ctx, g.cfg.ChatModel, config, nil)
	if err != nil {
		return nil, llm.Wrap(providerName, "create chat", err)
	}
	return &chatSession{chat: chat, model: g.cfg.ChatModel, limiter: g.limiter}, nil
}

func (g *GeminiGateway) SynthesizeImage(ctx context.Context, prompt string, attachment *llm.Attachment) (img *llm.Image, err error) {
	ctx, span := tracer.Start(ctx, "GeminiGateway.SynthesizeImage", trace.WithAttributes(
		attribute.String("llm.model", g.cfg.ImageModel),
		attribute.Bool("llm.attachment", attachment != nil),
	))
	defer func() {
		span.SetAttributes(attribute.Bool("llm.image_returned", img != nil))
		endSpan(span, err)
	}()

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, llm.Wrap(providerName, "synthesize image", err)
	}

	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if attachment != nil {
		parts = append(parts, genai.NewPartFromBytes(attachment.Data, attachment.MIMEType))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.ImageModel,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	)
	if err != nil {
		return nil, llm.Wrap(providerName, "synthesize image", err)
	}

	return firstInlineImage(resp), nil
}

func firstInlineImage(resp *genai.GenerateContentResponse) *llm.Image {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mime := part.InlineData.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		return &llm.Image{Data: part.InlineData.Data, MIMEType: mime}
	}
	return nil
}

type chatSession struct {
	chat    *genai.Chat
	model   string
	limiter *rate.Limiter
}

func (s *chatSession) StreamCompletion(ctx context.Context, text string, attachment *llm.Attachment, onIncrement llm.IncrementFunc) (full string, err error) {
	ctx, span := tracer.Start(ctx, "GeminiGateway.StreamCompletion", trace.WithAttributes(
		attribute.String("llm.model", s.model),
		attribute.Bool("llm.attachment", attachment != nil),
	))
	defer func() {
		span.SetAttributes(attribute.Int("llm.reply_length", len(full)))
		endSpan(span, err)
	}()

	if err := s.limiter.Wait(ctx); err != nil {
		return "", llm.Wrap(providerName, "stream completion", err)
	}

	parts := []genai.Part{*genai.NewPartFromText(text)}
	if attachment != nil {
		parts = append(parts, *genai.NewPartFromBytes(attachment.Data, attachment.MIMEType))
	}

	var sb strings.Builder
	for resp, err := range s.chat.SendMessageStream(ctx, parts...) {
		if err != nil {
			return sb.String(), llm.Wrap(providerName, "stream completion", err)
		}
		delta := resp.Text()
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if onIncrement != nil {
			onIncrement(sb.String())
		}
	}
	return sb.String(), nil
}
