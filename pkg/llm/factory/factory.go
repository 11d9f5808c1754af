package factory

import (
	"context"
	"fmt"

	"aether-base-be/internal/config"
	"aether-base-be/internal/constant"
	"aether-base-be/pkg/llm"
	"aether-base-be/pkg/llm/gemini"
	"aether-base-be/pkg/llm/ollama"
)

func NewGateway(ctx context.Context, cfg *config.Config) (llm.Gateway, error) {
	switch cfg.Ai.Provider {
	case "gemini":
		return gemini.NewGeminiGateway(ctx, gemini.Config{
			APIKey:            cfg.Keys.GoogleGemini,
			BaseURL:           cfg.Ai.GeminiBaseURL,
			ChatModel:         cfg.Ai.ChatModel,
			ImageModel:        cfg.Ai.ImageModel,
			Temperature:       cfg.Ai.Temperature,
			SystemInstruction: constant.SystemInstruction,
			RequestsPerSec:    cfg.Ai.RequestsPerSec,
			Burst:             cfg.Ai.Burst,
		})
	case "ollama":
		baseURL := cfg.Ai.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaGateway(baseURL, cfg.Ai.OllamaModel,
			llm.WithTemperature(cfg.Ai.Temperature),
			llm.WithSystemInstruction(constant.SystemInstruction),
		), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Ai.Provider)
	}
}
