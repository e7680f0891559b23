package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/llm"
	"gorm.io/gorm"
)

// Service records structured-generation calls
type Service struct {
	db *gorm.DB
}

// NewService creates a new audit service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RecordCall writes one audit row. It implements llm.CallRecorder.
func (s *Service) RecordCall(ctx context.Context, call llm.CallRecord) error {
	row := &GenerationCall{
		JobID:            call.JobID,
		Stage:            call.Stage,
		Provider:         call.Provider,
		Model:            call.Model,
		PromptTokens:     call.PromptTokens,
		CompletionTokens: call.CompletionTokens,
		TotalTokens:      call.PromptTokens + call.CompletionTokens,
		EstimatedCost:    call.EstimatedCost,
		Success:          call.Success,
		Error:            call.Error,
		ExecutionMs:      call.Duration.Milliseconds(),
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to record generation call: %w", err)
	}
	return nil
}

// ListByJob returns the calls of a job, oldest first
func (s *Service) ListByJob(ctx context.Context, jobID string) ([]GenerationCall, error) {
	var calls []GenerationCall
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&calls).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list generation calls: %w", err)
	}
	return calls, nil
}

// Summarize aggregates token usage and cost for a job
func Summarize(jobID string, calls []GenerationCall) CallSummary {
	sum := CallSummary{JobID: jobID, Calls: len(calls)}
	for _, c := range calls {
		if !c.Success {
			sum.Failed++
		}
		sum.TotalTokens += c.TotalTokens
		sum.EstimatedCost += c.EstimatedCost
	}
	return sum
}

// DeleteBefore removes call rows created before cutoff
func (s *Service) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&GenerationCall{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old generation calls: %w", result.Error)
	}
	return result.RowsAffected, nil
}
