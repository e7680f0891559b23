package audit

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	calls := []GenerationCall{
		{Stage: "planning", TotalTokens: 1200, EstimatedCost: 0.0004, Success: true},
		{Stage: "chart_building", TotalTokens: 800, EstimatedCost: 0.0002, Success: false, Error: "invalid JSON"},
	}

	sum := Summarize("job-1", calls)
	if sum.JobID != "job-1" || sum.Calls != 2 || sum.Failed != 1 || sum.TotalTokens != 2000 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if math.Abs(sum.EstimatedCost-0.0006) > 1e-12 {
		t.Fatalf("unexpected cost %v", sum.EstimatedCost)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize("job-1", nil)
	if sum.Calls != 0 || sum.EstimatedCost != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}
