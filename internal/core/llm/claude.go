package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeProvider uses the Anthropic messages API.
type ClaudeProvider struct {
	client   anthropic.Client
	settings Settings
}

// NewClaudeProvider creates a new ClaudeProvider
func NewClaudeProvider(s Settings) *ClaudeProvider {
	return &ClaudeProvider{
		client: anthropic.NewClient(
			option.WithAPIKey(s.APIKey),
			option.WithMaxRetries(0),
			option.WithRequestTimeout(s.Timeout),
		),
		settings: s,
	}
}

func (p *ClaudeProvider) GetProviderName() string {
	return "Anthropic Claude"
}

func (p *ClaudeProvider) GetModel() string {
	return p.settings.Model
}

func (p *ClaudeProvider) GenerateStructured(ctx context.Context, req *StructuredRequest) (*StructuredResponse, error) {
	system := req.SystemPrompt + "\n\n" + schemaInstruction(req)

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.settings.Model),
		MaxTokens:   int64(p.settings.MaxTokens),
		Temperature: anthropic.Float(float64(p.settings.Temperature)),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude error (model: %s): %w", p.settings.Model, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("no response from Claude")
	}

	return &StructuredResponse{
		Content:          json.RawMessage(sb.String()),
		Model:            p.settings.Model,
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
	}, nil
}
