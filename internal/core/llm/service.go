package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ErrGenerationService wraps every structured-generation failure: transport,
// provider errors, and responses that are not valid JSON.
var ErrGenerationService = errors.New("generation service error")

// CallRecord describes one call to the generation backend
type CallRecord struct {
	JobID            string
	Stage            string
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	EstimatedCost    float64
	Success          bool
	Error            string
	Duration         time.Duration
}

// CallRecorder persists call records (audit trail)
type CallRecorder interface {
	RecordCall(ctx context.Context, rec CallRecord) error
}

// Service wraps an LLMProvider with rate limiting, validation and call auditing
type Service struct {
	provider LLMProvider
	limiter  *rate.Limiter
	recorder CallRecorder
}

// NewService creates LLM service with provider from environment.
// rpm caps outgoing requests per minute; zero disables the limit.
func NewService(rpm int) (*Service, error) {
	cfg, err := LoadProviderFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load LLM config: %w", err)
	}

	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	log.Info().
		Str("provider", provider.GetProviderName()).
		Str("model", provider.GetModel()).
		Int("rpm", rpm).
		Msg("🤖 Using LLM provider")

	s := NewServiceWithProvider(provider)
	s.SetRateLimit(rpm)
	return s, nil
}

// NewServiceWithProvider creates service with custom provider (for testing)
func NewServiceWithProvider(provider LLMProvider) *Service {
	return &Service{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Inf, 1),
	}
}

// SetRateLimit limits calls to rpm requests per minute with a small burst.
func (s *Service) SetRateLimit(rpm int) {
	if rpm <= 0 {
		s.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}
	s.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// SetRecorder attaches an audit recorder. Recording failures are logged only.
func (s *Service) SetRecorder(recorder CallRecorder) {
	s.recorder = recorder
}

// GetProviderName returns current provider name
func (s *Service) GetProviderName() string {
	return s.provider.GetProviderName()
}

// Generate performs one structured call and returns the cleaned JSON document.
func (s *Service) Generate(ctx context.Context, req *StructuredRequest) (json.RawMessage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", ErrGenerationService, err)
	}

	start := time.Now()
	resp, err := s.provider.GenerateStructured(ctx, req)
	rec := CallRecord{
		JobID:    req.JobID,
		Stage:    req.Stage,
		Provider: s.provider.GetProviderName(),
		Model:    s.provider.GetModel(),
		Duration: time.Since(start),
	}

	if err != nil {
		rec.Error = err.Error()
		s.record(ctx, rec)
		return nil, fmt.Errorf("%w: %w", ErrGenerationService, err)
	}

	if resp.Model != "" {
		rec.Model = resp.Model
	}
	rec.PromptTokens = resp.PromptTokens
	rec.CompletionTokens = resp.CompletionTokens
	rec.EstimatedCost = EstimateCost(rec.Model, resp.PromptTokens, resp.CompletionTokens)

	content := CleanJSON(string(resp.Content))
	if !json.Valid([]byte(content)) {
		rec.Error = "response is not valid JSON"
		s.record(ctx, rec)
		return nil, fmt.Errorf("%w: %s returned invalid JSON for %s", ErrGenerationService, rec.Provider, req.SchemaName)
	}

	rec.Success = true
	s.record(ctx, rec)

	log.Debug().
		Str("job_id", req.JobID).
		Str("stage", req.Stage).
		Int("prompt_tokens", rec.PromptTokens).
		Int("completion_tokens", rec.CompletionTokens).
		Dur("duration", rec.Duration).
		Msg("LLM call completed")

	return json.RawMessage(content), nil
}

func (s *Service) record(ctx context.Context, rec CallRecord) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordCall(ctx, rec); err != nil {
		log.Warn().Err(err).Str("job_id", rec.JobID).Str("stage", rec.Stage).Msg("⚠️ Failed to record generation call")
	}
}

// CleanJSON strips markdown code fences and surrounding whitespace.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
