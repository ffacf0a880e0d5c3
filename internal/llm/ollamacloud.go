package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agrigenius/core/internal/errx"
)

// Decoding defaults keep answers concise and reproducible.
const (
	defaultModel       = "llama3.1"
	defaultTemperature = 0.2
	defaultMaxTokens   = 500
)

// OllamaCloudClient implements Gateway against an OpenAI-style
// chat-completions endpoint hosted by Ollama Cloud.
type OllamaCloudClient struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	timeout  time.Duration
}

func NewOllamaCloudClient(client *http.Client, endpoint, apiKey, model string, timeout time.Duration) *OllamaCloudClient {
	if endpoint == "" {
		endpoint = "https://api.ollama.com/v1/chat/completions"
	}
	if model == "" {
		model = defaultModel
	}
	return &OllamaCloudClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   client,
		timeout:  timeout,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// Complete sends the assembled context as the system message and the
// translated question as the user message. Non-2xx statuses surface the
// provider's error body for diagnostics.
func (c *OllamaCloudClient) Complete(ctx context.Context, systemContext, userQuestion string) (string, error) {
	if c.apiKey == "" {
		return "", errx.LLM(fmt.Errorf("api key not configured"))
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemContext},
			{Role: "user", Content: userQuestion},
		},
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return "", errx.LLM(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errx.LLM(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errx.LLM(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(msg))
		log.Error().Int("status", resp.StatusCode).Str("body", detail).Msg("chat completion failed")
		if detail != "" {
			return "", errx.LLM(fmt.Errorf("status %d: %s", resp.StatusCode, detail))
		}
		return "", errx.LLM(fmt.Errorf("status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errx.LLM(err)
	}

	return extractText(raw), nil
}
