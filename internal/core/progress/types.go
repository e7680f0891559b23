package progress

import (
	"context"
	"errors"
	"time"
)

var (
	ErrStepRegression = errors.New("progress step regression")
	ErrNoProgress     = errors.New("no progress recorded")
)

// Step is a pipeline state reported to clients
type Step string

const (
	StepAnalyzing     Step = "analyzing"
	StepPlanning      Step = "planning"
	StepChartBuilding Step = "chart_building"
	StepComposing     Step = "composing"
	StepDone          Step = "done"
	StepError         Step = "error"
)

var stepOrder = map[Step]int{
	StepAnalyzing:     1,
	StepPlanning:      2,
	StepChartBuilding: 3,
	StepComposing:     4,
	StepDone:          5,
}

// Terminal reports whether no further step follows in the same run
func (s Step) Terminal() bool {
	return s == StepDone || s == StepError
}

func (s Step) Valid() bool {
	_, ok := stepOrder[s]
	return ok || s == StepError
}

// Record is one progress event for a job
type Record struct {
	ID        int64          `json:"id"`
	JobID     string         `json:"jobId"`
	Step      Step           `json:"step"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"timestamp"`
}

// Store is an append-only progress log addressed by job id.
// Append assigns ID; Latest returns ErrNoProgress for unknown jobs.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	Latest(ctx context.Context, jobID string) (*Record, error)
	List(ctx context.Context, jobID string) ([]Record, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
