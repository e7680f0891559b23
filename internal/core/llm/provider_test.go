package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewProviderRequiresKey(t *testing.T) {
	_, err := NewProvider(&ProviderConfig{Type: ProviderGroq})
	if err == nil || !strings.Contains(err.Error(), "GROQ_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}

	if _, err := NewProvider(&ProviderConfig{Type: "mistral", Settings: Settings{APIKey: "k"}}); err == nil {
		t.Fatal("expected unknown provider error")
	}
}

func TestNewProviderDefaults(t *testing.T) {
	p, err := NewProvider(&ProviderConfig{Type: ProviderDeepSeek, Settings: Settings{APIKey: "k"}})
	if err != nil {
		t.Fatal(err)
	}
	if p.GetProviderName() != "DeepSeek" || p.GetModel() != "deepseek-chat" {
		t.Fatalf("unexpected provider %s/%s", p.GetProviderName(), p.GetModel())
	}

	chat := p.(*ChatProvider)
	if chat.settings.MaxTokens != DefaultMaxTokens || chat.settings.Temperature != DefaultTemperature {
		t.Fatalf("defaults not applied: %+v", chat.settings)
	}
}

func TestLoadProviderFromEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LLM_MAX_TOKENS", "2048")

	cfg, err := LoadProviderFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != ProviderGemini || cfg.Settings.APIKey != "secret" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Settings.Model != "gemini-2.5-flash" || cfg.Settings.MaxTokens != 2048 {
		t.Fatalf("unexpected settings %+v", cfg.Settings)
	}

	t.Setenv("LLM_MAX_TOKENS", "lots")
	if _, err := LoadProviderFromEnv(); err == nil {
		t.Fatal("expected invalid LLM_MAX_TOKENS error")
	}
}

func TestChatProviderResponseFormat(t *testing.T) {
	req := &StructuredRequest{SystemPrompt: "sys", SchemaName: "outline"}

	native := NewChatProvider(openAIEndpoint, Settings{APIKey: "k"})
	system, _ := native.responseFormat(req)
	if !strings.Contains(system, "single valid JSON object") {
		t.Fatal("a request without schema must carry the JSON instruction")
	}

	compat := NewChatProvider(groqEndpoint, Settings{APIKey: "k"})
	system, format := compat.responseFormat(req)
	if format.Type != "json_object" || !strings.HasPrefix(system, "sys") {
		t.Fatalf("unexpected format %s / %q", format.Type, system)
	}
}

func TestGeminiProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.GenerationConfig.ResponseMimeType != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "{\"title\":"}, {"text": "\"Q3\"}"}]}}],
			"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 5}
		}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider(Settings{APIKey: "secret", Model: "gemini-test"}.withDefaults(""))
	p.baseURL = srv.URL

	resp, err := p.GenerateStructured(context.Background(), &StructuredRequest{SystemPrompt: "s", UserPrompt: "u"})
	if err != nil {
		t.Fatal(err)
	}
	if string(resp.Content) != `{"title":"Q3"}` {
		t.Fatalf("unexpected content %s", resp.Content)
	}
	if resp.PromptTokens != 12 || resp.CompletionTokens != 5 {
		t.Fatalf("unexpected usage %+v", resp)
	}

	p.settings.APIKey = "wrong"
	if _, err := p.GenerateStructured(context.Background(), &StructuredRequest{}); err == nil {
		t.Fatal("expected status error")
	}
}
