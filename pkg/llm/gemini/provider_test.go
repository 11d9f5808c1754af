package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"aether-base-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGemini struct {
	mu     sync.Mutex
	bodies []string
	chunks []string
	image  []byte
	status int
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		fmt.Fprintf(w, `{"error":{"code":%d,"message":"boom","status":"INTERNAL"}}`, f.status)
		return
	}

	switch {
	case strings.Contains(r.URL.Path, ":streamGenerateContent"):
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range f.chunks {
			fmt.Fprintf(w, "data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":%q}]}}]}\n\n", chunk)
		}
	case strings.Contains(r.URL.Path, ":generateContent"):
		w.Header().Set("Content-Type", "application/json")
		if f.image == nil {
			fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"sem imagem"}]}}]}`)
			return
		}
		fmt.Fprintf(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"},{"inlineData":{"mimeType":"image/png","data":%q}}]}}]}`,
			base64.StdEncoding.EncodeToString(f.image))
	default:
		http.NotFound(w, r)
	}
}

func newTestGateway(t *testing.T, fake *fakeGemini) *GeminiGateway {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	gw, err := NewGeminiGateway(context.Background(), Config{
		APIKey:            "test-key",
		BaseURL:           srv.URL,
		Temperature:       0.7,
		SystemInstruction: "persona",
	})
	require.NoError(t, err)
	return gw
}

func TestNewGeminiGatewayRequiresKey(t *testing.T) {
	_, err := NewGeminiGateway(context.Background(), Config{})
	assert.Error(t, err)
}

func TestStreamCompletionDeliversCumulativeText(t *testing.T) {
	fake := &fakeGemini{chunks: []string{"Olá", ", mundo", "!"}}
	gw := newTestGateway(t, fake)

	session, err := gw.NewSession(context.Background())
	require.NoError(t, err)

	var increments []string
	full, err := session.StreamCompletion(context.Background(), "oi", nil, func(text string) {
		increments = append(increments, text)
	})
	require.NoError(t, err)

	assert.Equal(t, "Olá, mundo!", full)
	assert.Equal(t, []string{"Olá", "Olá, mundo", "Olá, mundo!"}, increments)

	require.Len(t, fake.bodies, 1)
	assert.Contains(t, fake.bodies[0], "persona")
}

func TestStreamCompletionSendsInlineAttachment(t *testing.T) {
	fake := &fakeGemini{chunks: []string{"vejo um gato"}}
	gw := newTestGateway(t, fake)

	session, err := gw.NewSession(context.Background())
	require.NoError(t, err)

	_, err = session.StreamCompletion(context.Background(), "o que é isso?", &llm.Attachment{
		Data:     []byte("png-bytes"),
		MIMEType: "image/png",
	}, nil)
	require.NoError(t, err)

	require.Len(t, fake.bodies, 1)
	assert.Contains(t, fake.bodies[0], "inlineData")
	assert.Contains(t, fake.bodies[0], base64.StdEncoding.EncodeToString([]byte("png-bytes")))
}

func TestStreamCompletionWrapsProviderFailure(t *testing.T) {
	gw := newTestGateway(t, &fakeGemini{status: http.StatusInternalServerError})

	session, err := gw.NewSession(context.Background())
	require.NoError(t, err)

	_, err = session.StreamCompletion(context.Background(), "oi", nil, nil)
	require.Error(t, err)

	var pe *llm.ProviderError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "gemini", pe.Provider)
}

func TestSynthesizeImage(t *testing.T) {
	t.Run("returns first inline image", func(t *testing.T) {
		gw := newTestGateway(t, &fakeGemini{image: []byte{0x89, 'P', 'N', 'G'}})

		img, err := gw.SynthesizeImage(context.Background(), "um gato", nil)
		require.NoError(t, err)
		require.NotNil(t, img)
		assert.Equal(t, "image/png", img.MIMEType)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, img.Data)
	})

	t.Run("text only response is absence", func(t *testing.T) {
		gw := newTestGateway(t, &fakeGemini{})

		img, err := gw.SynthesizeImage(context.Background(), "um gato", nil)
		require.NoError(t, err)
		assert.Nil(t, img)
	})

	t.Run("attachment is sent as edit input", func(t *testing.T) {
		fake := &fakeGemini{image: []byte("edited")}
		gw := newTestGateway(t, fake)

		_, err := gw.SynthesizeImage(context.Background(), "deixe azul", &llm.Attachment{Data: []byte("orig"), MIMEType: "image/jpeg"})
		require.NoError(t, err)
		require.Len(t, fake.bodies, 1)
		assert.Contains(t, fake.bodies[0], "image/jpeg")
	})

	t.Run("http failure is a provider error", func(t *testing.T) {
		gw := newTestGateway(t, &fakeGemini{status: http.StatusUnauthorized})

		_, err := gw.SynthesizeImage(context.Background(), "um gato", nil)
		var pe *llm.ProviderError
		assert.True(t, errors.As(err, &pe))
	})
}
