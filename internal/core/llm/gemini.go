package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider calls the generateContent REST endpoint in JSON mode.
type GeminiProvider struct {
	settings Settings
	baseURL  string
	client   *http.Client
}

// NewGeminiProvider creates a new GeminiProvider
func NewGeminiProvider(s Settings) *GeminiProvider {
	return &GeminiProvider{
		settings: s,
		baseURL:  geminiBaseURL,
		client:   &http.Client{Timeout: s.Timeout},
	}
}

func (p *GeminiProvider) GetProviderName() string {
	return "Google Gemini"
}

func (p *GeminiProvider) GetModel() string {
	return p.settings.Model
}

// Gemini REST API request/response structures
type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float32 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (p *GeminiProvider) GenerateStructured(ctx context.Context, req *StructuredRequest) (*StructuredResponse, error) {
	body, err := json.Marshal(geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: req.SystemPrompt + "\n\n" + schemaInstruction(req)}},
		},
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.UserPrompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      p.settings.Temperature,
			MaxOutputTokens:  p.settings.MaxTokens,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.settings.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.settings.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini error (model: %s, status: %d): %s", p.settings.Model, resp.StatusCode, string(raw))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return nil, fmt.Errorf("no response from Gemini")
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("empty candidate from Gemini (finish reason: %s)", parsed.Candidates[0].FinishReason)
	}

	log.Debug().Int("bytes", len(raw)).Str("model", p.settings.Model).Msg("🔍 Gemini response received")

	return &StructuredResponse{
		Content:          json.RawMessage(text.String()),
		Model:            p.settings.Model,
		PromptTokens:     parsed.UsageMetadata.PromptTokenCount,
		CompletionTokens: parsed.UsageMetadata.CandidatesTokenCount,
	}, nil
}
