package audit

import (
	"time"

	"github.com/google/uuid"
)

// GenerationCall is one structured-generation request made for a job
type GenerationCall struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`

	// Context
	JobID string `json:"job_id" gorm:"type:varchar(64);not null;index"`
	Stage string `json:"stage" gorm:"type:varchar(32);not null;index"` // planning, chart_building

	// Model details
	Provider string `json:"provider" gorm:"type:text;not null"`
	Model    string `json:"model" gorm:"type:text;not null"`

	// Usage
	PromptTokens     int     `json:"prompt_tokens" gorm:"not null;default:0"`
	CompletionTokens int     `json:"completion_tokens" gorm:"not null;default:0"`
	TotalTokens      int     `json:"total_tokens" gorm:"not null;default:0"`
	EstimatedCost    float64 `json:"estimated_cost" gorm:"type:numeric(12,6);not null;default:0"` // USD

	// Outcome
	Success     bool   `json:"success" gorm:"not null;index"`
	Error       string `json:"error,omitempty" gorm:"type:text"`
	ExecutionMs int64  `json:"execution_ms" gorm:"type:bigint"`

	// Timestamps
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName specifies the table name
func (GenerationCall) TableName() string {
	return "generation_calls"
}

// CallSummary aggregates the calls of one job
type CallSummary struct {
	JobID         string  `json:"job_id"`
	Calls         int     `json:"calls"`
	Failed        int     `json:"failed"`
	TotalTokens   int     `json:"total_tokens"`
	EstimatedCost float64 `json:"estimated_cost"`
}
