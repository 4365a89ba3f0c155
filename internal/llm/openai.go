package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAIClient talks to an OpenAI-compatible /chat/completions endpoint
type OpenAIClient struct {
	apiKey   string
	baseURL  string
	settings ModelSettings
	client   *http.Client
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint
func NewOpenAIClient(config *Config, settings ModelSettings) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for openai provider")
	}
	return &OpenAIClient{
		apiKey:   config.APIKey,
		baseURL:  strings.TrimRight(defaultIfEmpty(config.BaseURL, DefaultOpenAIURL), "/"),
		settings: settings,
		client:   &http.Client{Timeout: config.timeout()},
	}, nil
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat posts the transcript and returns the first choice's content.
// Tool results are sent as user turns since they carry no tool_call_id.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	wire := make([]openAIMessage, 0, len(messages))
	for _, m := range messages {
		role := string(m.Role)
		if m.Role == RoleTool {
			role = string(RoleUser)
		}
		wire = append(wire, openAIMessage{Role: role, Content: m.Content})
	}

	body, err := json.Marshal(openAIRequest{
		Model:       c.settings.ModelID,
		Messages:    wire,
		MaxTokens:   c.settings.MaxNewTokens,
		Temperature: c.settings.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &RequestError{Provider: ProviderOpenAI, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &RequestError{Provider: ProviderOpenAI, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RequestError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Message: "failed to read body", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RequestError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Message: snippet(raw)}
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &RequestError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Message: "invalid response JSON", Cause: err}
	}
	if len(parsed.Choices) == 0 {
		return "", &RequestError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Message: "response had no choices"}
	}
	return parsed.Choices[0].Message.Content, nil
}

// Model returns the configured model identifier
func (c *OpenAIClient) Model() string {
	return c.settings.ModelID
}

// Close is a no-op
func (c *OpenAIClient) Close() error {
	return nil
}
