package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"aether-base-be/pkg/llm"
)

const providerName = "ollama"

// OllamaGateway is a text-only fallback backed by a local Ollama server.
// It keeps the conversation history client side since /api/chat is stateless.
type OllamaGateway struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
	options   llm.Options
}

var _ llm.Gateway = &OllamaGateway{}

func NewOllamaGateway(baseURL, modelName string, opts ...llm.Option) *OllamaGateway {
	return &OllamaGateway{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
		options: llm.ApplyOptions(llm.Options{Temperature: 0.7}, opts...),
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type ollamaChatChunk struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

func (o *OllamaGateway) NewSession(ctx context.Context) (llm.ChatSession, error) {
	s := &chatSession{gateway: o}
	if o.options.SystemInstruction != "" {
		s.history = append(s.history, ollamaMessage{Role: "system", Content: o.options.SystemInstruction})
	}
	return s, nil
}

// SynthesizeImage always reports absence: Ollama has no image output.
func (o *OllamaGateway) SynthesizeImage(ctx context.Context, prompt string, attachment *llm.Attachment) (*llm.Image, error) {
	return nil, nil
}

type chatSession struct {
	gateway *OllamaGateway
	mu      sync.Mutex
	history []ollamaMessage
}

func (s *chatSession) StreamCompletion(ctx context.Context, text string, attachment *llm.Attachment, onIncrement llm.IncrementFunc) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userMsg := ollamaMessage{Role: "user", Content: text}
	if attachment != nil {
		userMsg.Images = []string{base64.StdEncoding.EncodeToString(attachment.Data)}
	}

	messages := make([]ollamaMessage, 0, len(s.history)+1)
	messages = append(messages, s.history...)
	messages = append(messages, userMsg)

	full, err := s.gateway.streamChat(ctx, messages, onIncrement)
	if err != nil {
		return full, llm.Wrap(providerName, "stream completion", err)
	}

	s.history = append(messages, ollamaMessage{Role: "assistant", Content: full})
	return full, nil
}

func (o *OllamaGateway) streamChat(ctx context.Context, messages []ollamaMessage, onIncrement llm.IncrementFunc) (string, error) {
	payloadBytes, err := json.Marshal(ollamaChatRequest{
		Model:    o.ModelName,
		Messages: messages,
		Stream:   true,
		Options:  &ollamaOptions{Temperature: o.options.Temperature},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/chat", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(body))
	}

	// One JSON object per line until done=true.
	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return full.String(), fmt.Errorf("unmarshal chunk: %w", err)
		}
		if chunk.Error != "" {
			return full.String(), fmt.Errorf("ollama stream error: %s", chunk.Error)
		}
		if chunk.Message.Content != "" {
			full.WriteString(chunk.Message.Content)
			if onIncrement != nil {
				onIncrement(full.String())
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("read stream: %w", err)
	}

	return full.String(), nil
}
