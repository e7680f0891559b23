package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// ChatEndpoint describes an OpenAI-compatible chat completions API.
type ChatEndpoint struct {
	Name    string
	BaseURL string
	// NativeSchema enables the json_schema response format. Endpoints
	// without it get json_object mode with the schema in the prompt.
	NativeSchema bool
}

var (
	openAIEndpoint   = ChatEndpoint{Name: "OpenAI", NativeSchema: true}
	groqEndpoint     = ChatEndpoint{Name: "Groq", BaseURL: "https://api.groq.com/openai/v1"}
	deepSeekEndpoint = ChatEndpoint{Name: "DeepSeek", BaseURL: "https://api.deepseek.com"}
)

// ChatProvider talks to OpenAI and the APIs that mimic it.
type ChatProvider struct {
	endpoint ChatEndpoint
	client   *openai.Client
	settings Settings
}

// NewChatProvider creates a new ChatProvider
func NewChatProvider(endpoint ChatEndpoint, s Settings) *ChatProvider {
	config := openai.DefaultConfig(s.APIKey)
	if endpoint.BaseURL != "" {
		config.BaseURL = endpoint.BaseURL
	}
	if s.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: s.Timeout}
	}
	return &ChatProvider{
		endpoint: endpoint,
		client:   openai.NewClientWithConfig(config),
		settings: s,
	}
}

func (p *ChatProvider) GetProviderName() string {
	return p.endpoint.Name
}

func (p *ChatProvider) GetModel() string {
	return p.settings.Model
}

func (p *ChatProvider) GenerateStructured(ctx context.Context, req *StructuredRequest) (*StructuredResponse, error) {
	system, format := p.responseFormat(req)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.settings.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		Temperature:    p.settings.Temperature,
		MaxTokens:      p.settings.MaxTokens,
		ResponseFormat: format,
	})
	if err != nil {
		return nil, fmt.Errorf("%s error (model: %s): %w", p.endpoint.Name, p.settings.Model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", p.endpoint.Name)
	}

	model := p.settings.Model
	if resp.Model != "" {
		model = resp.Model
	}
	return &StructuredResponse{
		Content:          json.RawMessage(resp.Choices[0].Message.Content),
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (p *ChatProvider) responseFormat(req *StructuredRequest) (string, *openai.ChatCompletionResponseFormat) {
	if p.endpoint.NativeSchema && req.Schema != nil {
		return req.SystemPrompt, &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: req.Schema,
			},
		}
	}
	return req.SystemPrompt + "\n\n" + schemaInstruction(req),
		&openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
}
