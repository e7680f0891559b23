package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Generation parameters shared by every provider.
const (
	DefaultTemperature float32 = 0.2
	DefaultMaxTokens           = 4096
)

// StructuredRequest asks a provider for a JSON document matching Schema
type StructuredRequest struct {
	JobID        string
	Stage        string
	SystemPrompt string
	UserPrompt   string
	SchemaName   string
	Schema       *jsonschema.Definition
}

// StructuredResponse is the raw JSON returned by a provider plus usage
type StructuredResponse struct {
	Content          json.RawMessage
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// LLMProvider is implemented by every structured-generation backend
type LLMProvider interface {
	GenerateStructured(ctx context.Context, req *StructuredRequest) (*StructuredResponse, error)
	GetProviderName() string
	GetModel() string
}

// ProviderType selects the structured-generation backend.
type ProviderType string

const (
	ProviderOpenAI   ProviderType = "openai"
	ProviderGemini   ProviderType = "gemini"
	ProviderGroq     ProviderType = "groq"
	ProviderDeepSeek ProviderType = "deepseek"
	ProviderClaude   ProviderType = "claude"
)

// Settings are the per-call generation parameters of a provider.
type Settings struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

func (s Settings) withDefaults(model string) Settings {
	if s.Model == "" {
		s.Model = model
	}
	if s.Temperature == 0 {
		s.Temperature = DefaultTemperature
	}
	if s.MaxTokens == 0 {
		s.MaxTokens = DefaultMaxTokens
	}
	if s.Timeout == 0 {
		s.Timeout = 90 * time.Second
	}
	return s
}

// ProviderConfig is the backend choice read from the environment.
type ProviderConfig struct {
	Type     ProviderType
	Settings Settings
}

type providerEntry struct {
	keyEnv       string
	defaultModel string
	build        func(Settings) LLMProvider
}

var providers = map[ProviderType]providerEntry{
	ProviderOpenAI: {"OPENAI_API_KEY", "gpt-4o-mini", func(s Settings) LLMProvider {
		return NewChatProvider(openAIEndpoint, s)
	}},
	ProviderGroq: {"GROQ_API_KEY", "llama-3.3-70b-versatile", func(s Settings) LLMProvider {
		return NewChatProvider(groqEndpoint, s)
	}},
	ProviderDeepSeek: {"DEEPSEEK_API_KEY", "deepseek-chat", func(s Settings) LLMProvider {
		return NewChatProvider(deepSeekEndpoint, s)
	}},
	ProviderGemini: {"GEMINI_API_KEY", "gemini-2.5-flash", func(s Settings) LLMProvider {
		return NewGeminiProvider(s)
	}},
	ProviderClaude: {"CLAUDE_API_KEY", "claude-3-5-sonnet-20241022", func(s Settings) LLMProvider {
		return NewClaudeProvider(s)
	}},
}

// NewProvider builds the backend named by cfg.Type.
func NewProvider(cfg *ProviderConfig) (LLMProvider, error) {
	entry, ok := providers[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider type: %s", cfg.Type)
	}
	if cfg.Settings.APIKey == "" {
		return nil, fmt.Errorf("%s is required", entry.keyEnv)
	}
	return entry.build(cfg.Settings.withDefaults(entry.defaultModel)), nil
}

// LoadProviderFromEnv reads LLM_PROVIDER (default openai), the matching
// *_API_KEY, LLM_MODEL and LLM_MAX_TOKENS.
func LoadProviderFromEnv() (*ProviderConfig, error) {
	t := ProviderType(strings.ToLower(os.Getenv("LLM_PROVIDER")))
	if t == "" {
		t = ProviderOpenAI
	}
	entry, ok := providers[t]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider type: %s", t)
	}

	cfg := &ProviderConfig{
		Type: t,
		Settings: Settings{
			APIKey:      os.Getenv(entry.keyEnv),
			Model:       os.Getenv("LLM_MODEL"),
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		},
	}
	if cfg.Settings.Model == "" {
		cfg.Settings.Model = entry.defaultModel
	}

	if raw := os.Getenv("LLM_MAX_TOKENS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid LLM_MAX_TOKENS: %q", raw)
		}
		cfg.Settings.MaxTokens = n
	}

	return cfg, nil
}

// schemaInstruction renders the schema into prompt text for providers
// without native schema enforcement.
func schemaInstruction(req *StructuredRequest) string {
	if req.Schema == nil {
		return "Respond with a single valid JSON object and nothing else."
	}
	schemaJSON, err := json.Marshal(req.Schema)
	if err != nil {
		return "Respond with a single valid JSON object and nothing else."
	}
	return fmt.Sprintf("Respond with a single valid JSON object (no markdown, no prose) that conforms to the JSON schema %q:\n%s",
		req.SchemaName, string(schemaJSON))
}
