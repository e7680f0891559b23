package models

import (
	"time"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/pipeline"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Generation statuses
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

// Generation is one deck generation request and its outcome
type Generation struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	DatasetID string    `gorm:"type:text;not null;index" json:"dataset_id"`
	Status    string    `gorm:"type:text;not null;default:'pending';index" json:"status"`

	// Request
	BusinessContext datatypes.JSON `gorm:"type:jsonb" json:"business_context" swaggertype:"object"`
	Options         datatypes.JSON `gorm:"type:jsonb" json:"options" swaggertype:"object"`

	// Result
	Deck         datatypes.JSON `gorm:"type:jsonb" json:"-"`
	Analysis     datatypes.JSON `gorm:"type:jsonb" json:"-"`
	QualityScore *int           `gorm:"type:integer" json:"quality_score,omitempty"`
	ErrorMessage string         `gorm:"type:text" json:"error_message,omitempty"`

	// Timestamps
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName specifies the table name
func (Generation) TableName() string {
	return "generations"
}

// BeforeCreate sets UUID before creating
func (g *Generation) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// HasDeck reports whether a deck has been persisted. The deck column is
// written only by a successful run, so a later status change does not hide it.
func (g *Generation) HasDeck() bool {
	return len(g.Deck) > 0
}

// CreateGenerationRequest starts a deck generation for an uploaded dataset
type CreateGenerationRequest struct {
	DatasetID       string               `json:"dataset_id"`
	BusinessContext deck.BusinessContext `json:"business_context"`
	Options         pipeline.Options     `json:"options"`
	// NotifyEmail receives a message when the generation finishes
	NotifyEmail string `json:"notify_email,omitempty"`
}

// CreateGenerationResponse is returned once the generation is queued
type CreateGenerationResponse struct {
	JobID     string `json:"jobId"`
	Status    string `json:"status"`
	StreamURL string `json:"stream_url"`
}

// GenerationPayload is the background job payload
type GenerationPayload struct {
	GenerationID    string               `json:"generation_id"`
	DatasetID       string               `json:"dataset_id"`
	BusinessContext deck.BusinessContext `json:"business_context"`
	Options         pipeline.Options     `json:"options"`
	NotifyEmail     string               `json:"notify_email,omitempty"`
}
