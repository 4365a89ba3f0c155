package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OllamaClient talks to an Ollama server's /api/chat endpoint
type OllamaClient struct {
	baseURL  string
	settings ModelSettings
	client   *http.Client
}

// NewOllamaClient creates a client for a local or remote Ollama server
func NewOllamaClient(config *Config, settings ModelSettings) *OllamaClient {
	return &OllamaClient{
		baseURL:  strings.TrimRight(defaultIfEmpty(config.BaseURL, DefaultOllamaURL), "/"),
		settings: settings,
		client:   &http.Client{Timeout: config.timeout()},
	}
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaContent struct {
	Content string `json:"content"`
}

type ollamaResponse struct {
	Message  *ollamaContent  `json:"message"`
	Messages []ollamaContent `json:"messages"`
	Response *string         `json:"response"`
}

// Chat posts the transcript without streaming and returns the reply text
func (c *OllamaClient) Chat(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:    c.settings.ModelID,
		Messages: messages,
		Stream:   false,
		Options: ollamaOptions{
			Temperature: c.settings.Temperature,
			NumPredict:  c.settings.MaxNewTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", &RequestError{Provider: ProviderOllama, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &RequestError{Provider: ProviderOllama, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RequestError{Provider: ProviderOllama, StatusCode: resp.StatusCode, Message: "failed to read body", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RequestError{Provider: ProviderOllama, StatusCode: resp.StatusCode, Message: snippet(raw)}
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &RequestError{Provider: ProviderOllama, StatusCode: resp.StatusCode, Message: "invalid response JSON", Cause: err}
	}

	// Servers differ in where the reply text lives
	switch {
	case parsed.Message != nil:
		return parsed.Message.Content, nil
	case len(parsed.Messages) > 0:
		return parsed.Messages[len(parsed.Messages)-1].Content, nil
	case parsed.Response != nil:
		return *parsed.Response, nil
	default:
		return string(raw), nil
	}
}

// Model returns the configured model identifier
func (c *OllamaClient) Model() string {
	return c.settings.ModelID
}

// Close is a no-op; the HTTP client holds no resources that need releasing
func (c *OllamaClient) Close() error {
	return nil
}
