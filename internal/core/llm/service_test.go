package llm

import (
	"context"
	"errors"
	"math"
	"testing"
)

type stubProvider struct {
	content string
	err     error
	calls   int
}

func (p *stubProvider) GenerateStructured(ctx context.Context, req *StructuredRequest) (*StructuredResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &StructuredResponse{Content: []byte(p.content), Model: "gpt-4o-mini", PromptTokens: 1000, CompletionTokens: 500}, nil
}

func (p *stubProvider) GetProviderName() string { return "stub" }
func (p *stubProvider) GetModel() string        { return "gpt-4o-mini" }

type memoryRecorder struct {
	records []CallRecord
}

func (r *memoryRecorder) RecordCall(ctx context.Context, rec CallRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func TestGenerateStripsCodeFences(t *testing.T) {
	provider := &stubProvider{content: "```json\n{\"ok\": true}\n```"}
	svc := NewServiceWithProvider(provider)
	rec := &memoryRecorder{}
	svc.SetRecorder(rec)

	out, err := svc.Generate(context.Background(), &StructuredRequest{JobID: "job-1", Stage: "planning", SchemaName: "x"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if string(out) != `{"ok": true}` {
		t.Fatalf("unexpected content %q", out)
	}
	if len(rec.records) != 1 || !rec.records[0].Success {
		t.Fatalf("expected one successful record, got %+v", rec.records)
	}
	if rec.records[0].JobID != "job-1" || rec.records[0].Stage != "planning" {
		t.Fatalf("record missing job context: %+v", rec.records[0])
	}
	if rec.records[0].EstimatedCost <= 0 {
		t.Fatalf("expected positive cost estimate, got %f", rec.records[0].EstimatedCost)
	}
}

func TestGenerateInvalidJSON(t *testing.T) {
	svc := NewServiceWithProvider(&stubProvider{content: "Sure! Here is your deck."})
	rec := &memoryRecorder{}
	svc.SetRecorder(rec)

	_, err := svc.Generate(context.Background(), &StructuredRequest{SchemaName: "slide_structure"})
	if !errors.Is(err, ErrGenerationService) {
		t.Fatalf("expected ErrGenerationService, got %v", err)
	}
	if len(rec.records) != 1 || rec.records[0].Success {
		t.Fatalf("expected one failed record, got %+v", rec.records)
	}
}

func TestGenerateProviderError(t *testing.T) {
	cause := errors.New("connection reset")
	svc := NewServiceWithProvider(&stubProvider{err: cause})

	_, err := svc.Generate(context.Background(), &StructuredRequest{})
	if !errors.Is(err, ErrGenerationService) {
		t.Fatalf("expected ErrGenerationService, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected underlying cause to be preserved, got %v", err)
	}
}

func TestGenerateHonorsCancelledContext(t *testing.T) {
	provider := &stubProvider{content: "{}"}
	svc := NewServiceWithProvider(provider)
	svc.SetRateLimit(1)

	// Drain the single burst token.
	if _, err := svc.Generate(context.Background(), &StructuredRequest{}); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Generate(ctx, &StructuredRequest{}); !errors.Is(err, ErrGenerationService) {
		t.Fatalf("expected limiter failure wrapped in ErrGenerationService, got %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("provider should not be called when limiter rejects, calls=%d", provider.calls)
	}
}

func TestEstimateCost(t *testing.T) {
	got := EstimateCost("gpt-4o-mini-2024-07-18", 1_000_000, 1_000_000)
	if math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("expected 0.75, got %f", got)
	}
	if EstimateCost("unknown-model", 1000, 1000) != 0 {
		t.Fatal("unknown model should cost 0")
	}
}

func TestCleanJSON(t *testing.T) {
	cases := map[string]string{
		"```json\n{}\n```": "{}",
		"```\n[]```":       "[]",
		"  {\"a\":1} ":     `{"a":1}`,
	}
	for in, want := range cases {
		if got := CleanJSON(in); got != want {
			t.Errorf("CleanJSON(%q) = %q, want %q", in, got, want)
		}
	}
}
