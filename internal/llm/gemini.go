package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements ChatClient for Google Gemini
type GeminiClient struct {
	client   *genai.Client
	settings ModelSettings
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, settings ModelSettings) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:   client,
		settings: settings,
	}, nil
}

// Chat replays the transcript as a chat session and sends the final user turn
func (c *GeminiClient) Chat(ctx context.Context, messages []Message) (string, error) {
	model := c.client.GenerativeModel(c.settings.ModelID)
	model.SetTemperature(float32(c.settings.Temperature))
	if c.settings.MaxNewTokens > 0 {
		model.SetMaxOutputTokens(int32(c.settings.MaxNewTokens))
	}

	system, turns := geminiTurns(messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	session := model.StartChat()
	last := turns[len(turns)-1]
	session.History = toContents(turns[:len(turns)-1])

	resp, err := session.SendMessage(ctx, genai.Text(last.text))
	if err != nil {
		return "", &RequestError{Provider: ProviderGemini, Cause: err}
	}

	return extractTextFromResponse(resp)
}

// Model returns the configured model identifier
func (c *GeminiClient) Model() string {
	return c.settings.ModelID
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

type geminiTurn struct {
	role string // "user" or "model"
	text string
}

// geminiTurns folds a transcript into alternating user/model turns.
// System messages are joined into one instruction, tool results become user turns,
// and the result always ends with a user turn.
func geminiTurns(messages []Message) (string, []geminiTurn) {
	var system []string
	var turns []geminiTurn

	for _, m := range messages {
		var role, text string
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
			continue
		case RoleAssistant:
			role, text = "model", m.Content
		case RoleTool:
			role, text = "user", "Tool output:\n"+m.Content
		default:
			role, text = "user", m.Content
		}

		if n := len(turns); n > 0 && turns[n-1].role == role {
			turns[n-1].text += "\n\n" + text
			continue
		}
		turns = append(turns, geminiTurn{role: role, text: text})
	}

	if len(turns) == 0 || turns[len(turns)-1].role != "user" {
		turns = append(turns, geminiTurn{role: "user", text: "Continue."})
	}
	return strings.Join(system, "\n\n"), turns
}

func toContents(turns []geminiTurn) []*genai.Content {
	out := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		out = append(out, &genai.Content{Role: t.role, Parts: []genai.Part{genai.Text(t.text)}})
	}
	return out
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
