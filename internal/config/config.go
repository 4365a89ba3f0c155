// Package config provides YAML configuration loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/signal-agent/internal/fetch"
	"github.com/jonathan/signal-agent/internal/llm"
)

// DefaultPath is where the CLI looks for configuration by default
const DefaultPath = "configs/config.yml"

// DefaultCandidatePaths are the site paths the scraper is asked to try
var DefaultCandidatePaths = []string{
	"/", "/locations", "/book", "/schedule", "/appointments",
	"/careers", "/jobs", "/blog", "/news", "/press",
}

// Config is the full application configuration.
type Config struct {
	LLM         LLMConfig      `yaml:"llm"`
	Pipeline    PipelineConfig `yaml:"pipeline"`
	Fetch       FetchConfig    `yaml:"fetch"`
	DatabaseURL string         `yaml:"database_url"`
}

// LLMConfig selects the provider and per-role model settings.
type LLMConfig struct {
	Provider       string                `yaml:"provider"`
	BaseURL        string                `yaml:"base_url"`
	APIKey         string                `yaml:"api_key"`
	RequestTimeout time.Duration         `yaml:"request_timeout"`
	Roles          map[string]RoleConfig `yaml:"roles"`
}

// RoleConfig holds generation settings for one pipeline role.
type RoleConfig struct {
	ModelID      string   `yaml:"model_id"`
	MaxNewTokens int      `yaml:"max_new_tokens"`
	Temperature  *float64 `yaml:"temperature"`
}

// PipelineConfig holds stage budgets and the outbound gate.
type PipelineConfig struct {
	CandidatePaths      []string      `yaml:"candidate_paths"`
	ConfidenceThreshold float64       `yaml:"confidence_threshold"`
	ScrapeStepLimit     int           `yaml:"scrape_step_limit"`
	ValidateStepLimit   int           `yaml:"validate_step_limit"`
	PageCharLimit       int           `yaml:"page_char_limit"`
	ToolResultChars     int           `yaml:"tool_result_chars"`
	Concurrency         int           `yaml:"concurrency"`
	DomainTimeout       time.Duration `yaml:"domain_timeout"`
	VerticalsDir        string        `yaml:"verticals_dir"`
	CallToAction        string        `yaml:"call_to_action"`
}

// FetchConfig configures polite fetching.
type FetchConfig struct {
	UserAgent     string        `yaml:"user_agent"`
	Timeout       time.Duration `yaml:"timeout"`
	MinDelay      time.Duration `yaml:"min_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	RespectRobots bool          `yaml:"respect_robots"`
	UseBrowser    bool          `yaml:"use_browser"`
	ScreenshotDir string        `yaml:"screenshot_dir"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
}

// Error reports an invalid configuration value.
type Error struct {
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("config error: '%s' %s", e.Field, e.Message)
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Default returns the built-in configuration.
func Default() *Config {
	temp := llm.DefaultTemperature
	role := RoleConfig{ModelID: llm.DefaultModelID, MaxNewTokens: llm.DefaultMaxNewTokens, Temperature: &temp}
	return &Config{
		LLM: LLMConfig{
			Provider:       string(llm.ProviderOllama),
			RequestTimeout: llm.DefaultTimeout,
			Roles: map[string]RoleConfig{
				string(llm.TaskValidator): role,
				string(llm.TaskOutbound):  role,
			},
		},
		Pipeline: PipelineConfig{
			CandidatePaths:      append([]string(nil), DefaultCandidatePaths...),
			ConfidenceThreshold: 0.6,
			ScrapeStepLimit:     5,
			ValidateStepLimit:   4,
			PageCharLimit:       5000,
			ToolResultChars:     4000,
			Concurrency:         1,
			DomainTimeout:       10 * time.Minute,
			VerticalsDir:        "configs/verticals",
		},
		Fetch: FetchConfig{
			UserAgent:     fetch.DefaultUserAgent,
			Timeout:       fetch.DefaultTimeout,
			MinDelay:      time.Second,
			MaxDelay:      1500 * time.Millisecond,
			RespectRobots: true,
			CacheTTL:      7 * 24 * time.Hour,
		},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML %s: %w", path, err)
	}
	cfg.fillZeroes()
	return cfg, nil
}

// fillZeroes restores defaults for fields a partial file zeroed out.
func (c *Config) fillZeroes() {
	def := Default()
	if c.LLM.Provider == "" {
		c.LLM.Provider = def.LLM.Provider
	}
	if c.LLM.RequestTimeout == 0 {
		c.LLM.RequestTimeout = def.LLM.RequestTimeout
	}
	if c.LLM.Roles == nil {
		c.LLM.Roles = def.LLM.Roles
	}
	if len(c.Pipeline.CandidatePaths) == 0 {
		c.Pipeline.CandidatePaths = def.Pipeline.CandidatePaths
	}
	if c.Pipeline.PageCharLimit == 0 {
		c.Pipeline.PageCharLimit = def.Pipeline.PageCharLimit
	}
	if c.Pipeline.ToolResultChars == 0 {
		c.Pipeline.ToolResultChars = def.Pipeline.ToolResultChars
	}
	if c.Pipeline.DomainTimeout == 0 {
		c.Pipeline.DomainTimeout = def.Pipeline.DomainTimeout
	}
	if c.Pipeline.VerticalsDir == "" {
		c.Pipeline.VerticalsDir = def.Pipeline.VerticalsDir
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = def.Fetch.UserAgent
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = def.Fetch.Timeout
	}
	if c.Fetch.CacheTTL == 0 {
		c.Fetch.CacheTTL = def.Fetch.CacheTTL
	}
}

// ApplyEnv overrides connection settings from the environment.
func (c *Config) ApplyEnv() {
	if v := firstEnv("LLM_BASE_URL", "OLLAMA_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := firstEnv("LLM_API_KEY", "GEMINI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	switch llm.Provider(c.LLM.Provider) {
	case llm.ProviderOllama, llm.ProviderOpenAI, llm.ProviderGemini:
	default:
		return &Error{Field: "llm.provider", Message: fmt.Sprintf("unknown provider %q", c.LLM.Provider)}
	}
	for name, role := range c.LLM.Roles {
		if role.MaxNewTokens < 0 {
			return &Error{Field: "llm.roles." + name + ".max_new_tokens", Message: "must be non-negative"}
		}
		if role.Temperature != nil && (*role.Temperature < 0 || *role.Temperature > 2) {
			return &Error{Field: "llm.roles." + name + ".temperature", Message: "must be within [0, 2]"}
		}
	}

	p := c.Pipeline
	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
		return &Error{Field: "pipeline.confidence_threshold", Message: "must be within [0, 1]"}
	}
	if p.ScrapeStepLimit < 1 {
		return &Error{Field: "pipeline.scrape_step_limit", Message: "must be at least 1"}
	}
	if p.ValidateStepLimit < 1 {
		return &Error{Field: "pipeline.validate_step_limit", Message: "must be at least 1"}
	}
	if p.Concurrency < 1 {
		return &Error{Field: "pipeline.concurrency", Message: "must be at least 1"}
	}
	if p.PageCharLimit < 1 {
		return &Error{Field: "pipeline.page_char_limit", Message: "must be at least 1"}
	}
	if p.DomainTimeout < 0 {
		return &Error{Field: "pipeline.domain_timeout", Message: "must be non-negative"}
	}

	f := c.Fetch
	if f.MinDelay < 0 || f.MaxDelay < 0 {
		return &Error{Field: "fetch.min_delay", Message: "delays must be non-negative"}
	}
	if f.MinDelay > f.MaxDelay {
		return &Error{Field: "fetch.min_delay", Message: "must not exceed fetch.max_delay"}
	}
	return nil
}

// LLMClientConfig converts the llm section for the chat clients.
func (c *Config) LLMClientConfig() *llm.Config {
	out := &llm.Config{
		Provider: llm.Provider(c.LLM.Provider),
		BaseURL:  c.LLM.BaseURL,
		APIKey:   c.LLM.APIKey,
		Timeout:  c.LLM.RequestTimeout,
		Models:   make(map[llm.Task]llm.ModelSettings, len(c.LLM.Roles)),
	}
	for name, role := range c.LLM.Roles {
		s := llm.ModelSettings{
			ModelID:      role.ModelID,
			MaxNewTokens: role.MaxNewTokens,
			Temperature:  llm.DefaultTemperature,
		}
		if role.Temperature != nil {
			s.Temperature = *role.Temperature
		}
		out.Models[llm.Task(name)] = s
	}
	return out
}

// FetchClientConfig converts the fetch section for the web collaborator.
func (c *Config) FetchClientConfig() fetch.Config {
	return fetch.Config{
		UserAgent:     c.Fetch.UserAgent,
		Timeout:       c.Fetch.Timeout,
		MinDelay:      c.Fetch.MinDelay,
		MaxDelay:      c.Fetch.MaxDelay,
		RespectRobots: c.Fetch.RespectRobots,
		UseBrowser:    c.Fetch.UseBrowser,
		CacheTTL:      c.Fetch.CacheTTL,
	}
}
