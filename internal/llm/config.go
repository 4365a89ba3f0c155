// Package llm provides chat clients for the language models that drive the pipeline agents.
// Each pipeline task gets its own model settings so validation and drafting can use different models.
package llm

import "time"

// Task identifies which pipeline agent a client serves
type Task string

const (
	// TaskValidator drives the scrape and validate agents
	TaskValidator Task = "validator"
	// TaskOutbound drives email drafting
	TaskOutbound Task = "outbound"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderOllama is a local Ollama server
	ProviderOllama Provider = "ollama"
	// ProviderOpenAI is any OpenAI-compatible chat completions endpoint
	ProviderOpenAI Provider = "openai"
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// Default values used when configuration leaves them unset
const (
	DefaultOllamaURL    = "http://localhost:11434"
	DefaultOpenAIURL    = "https://api.openai.com/v1"
	DefaultModelID      = "phi3.5"
	DefaultMaxNewTokens = 240
	DefaultTemperature  = 0.1
	DefaultTimeout      = 10 * time.Minute
)

// ModelSettings configures generation for one task
type ModelSettings struct {
	ModelID      string
	MaxNewTokens int
	Temperature  float64
}

// Config holds provider connection details and per-task model settings
type Config struct {
	Provider Provider
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	Models   map[Task]ModelSettings
}

// DefaultSettings returns the settings used for any task without its own entry
func DefaultSettings() ModelSettings {
	return ModelSettings{
		ModelID:      DefaultModelID,
		MaxNewTokens: DefaultMaxNewTokens,
		Temperature:  DefaultTemperature,
	}
}

// DefaultConfig returns the default configuration (local Ollama)
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderOllama,
		BaseURL:  DefaultOllamaURL,
		Timeout:  DefaultTimeout,
		Models: map[Task]ModelSettings{
			TaskValidator: DefaultSettings(),
			TaskOutbound:  DefaultSettings(),
		},
	}
}

// Settings returns the model settings for a task.
// Missing tasks fall back to the validator settings, then to DefaultSettings.
// Zero fields inside a configured entry are filled from DefaultSettings.
func (c *Config) Settings(task Task) ModelSettings {
	s, ok := c.Models[task]
	if !ok {
		s, ok = c.Models[TaskValidator]
	}
	if !ok {
		return DefaultSettings()
	}

	def := DefaultSettings()
	if s.ModelID == "" {
		s.ModelID = def.ModelID
	}
	if s.MaxNewTokens <= 0 {
		s.MaxNewTokens = def.MaxNewTokens
	}
	return s
}

// WithModel returns a new Config with a specific model for a task
func (c *Config) WithModel(task Task, modelID string) *Config {
	newConfig := *c
	newConfig.Models = make(map[Task]ModelSettings, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	s := newConfig.Settings(task)
	s.ModelID = modelID
	newConfig.Models[task] = s
	return &newConfig
}

func (c *Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func defaultIfEmpty(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
