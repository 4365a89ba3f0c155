package llm

import (
	"context"
	"strings"
)

// Role is the author of a transcript message
type Role string

// Transcript roles
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a chat transcript
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatClient sends a full transcript and returns the complete reply
type ChatClient interface {
	// Chat returns the model's reply to the transcript. Transport failures and
	// non-success statuses are returned as errors.
	Chat(ctx context.Context, messages []Message) (string, error)
	// Model returns the model identifier in use
	Model() string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a chat client for a pipeline task based on configuration
func NewClient(ctx context.Context, config *Config, task Task) (ChatClient, error) {
	if config == nil {
		config = DefaultConfig()
	}
	settings := config.Settings(task)

	switch config.Provider {
	case ProviderOllama, "":
		return NewOllamaClient(config, settings), nil
	case ProviderOpenAI:
		return NewOpenAIClient(config, settings)
	case ProviderGemini:
		return NewGeminiClient(ctx, config, settings)
	default:
		return nil, ErrUnsupportedProvider{Provider: config.Provider}
	}
}

// snippet shortens an error body for inclusion in a RequestError
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
