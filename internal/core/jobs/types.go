package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// JobStatus is the lifecycle state of a queued job
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// JobPriority orders pending jobs; higher runs first
type JobPriority int

const PriorityNormal JobPriority = 5

const (
	QueueGenerations = "generations"
	TypeGenerateDeck = "generate_deck"
)

// Job is one row of the jobs table
type Job struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Reference string         `gorm:"type:varchar(64);not null;index"` // generation id
	Queue     string         `gorm:"type:varchar(100);not null;index"`
	Type      string         `gorm:"type:varchar(100);not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`

	Status   JobStatus   `gorm:"type:varchar(20);not null;default:'pending';index"`
	Priority JobPriority `gorm:"type:int;not null;default:5;index"`

	// Attempts counts claims; the job is final once Attempts reaches MaxRetries
	Attempts   int `gorm:"not null;default:0"`
	MaxRetries int `gorm:"not null;default:1"`

	ScheduledAt *time.Time `gorm:"index"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time

	Error    string         `gorm:"type:text"`
	Result   datatypes.JSON `gorm:"type:jsonb"`
	Metadata datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Job) TableName() string {
	return "jobs"
}

// DecodePayload unmarshals the job payload into v
func (j *Job) DecodePayload(v any) error {
	return json.Unmarshal(j.Payload, v)
}

// Final reports whether a failure now would be permanent
func (j *Job) Final() bool {
	return j.Attempts >= j.MaxRetries
}

// JobHandler runs jobs of one type
type JobHandler interface {
	Handle(ctx context.Context, job *Job) error
	GetType() string
}

// Store is the part of the queue a worker needs
type Store interface {
	Dequeue(ctx context.Context, queueName string) (*Job, error)
	MarkCompleted(ctx context.Context, jobID uuid.UUID, result any) error
	MarkFailed(ctx context.Context, jobID uuid.UUID, err error) error
}

// EnqueueOptions tune a single Enqueue call; zero values take defaults
type EnqueueOptions struct {
	Queue      string
	Priority   JobPriority
	MaxRetries int
	ScheduleAt *time.Time
	Metadata   map[string]any
}

// WorkerConfig contains configuration for job workers
type WorkerConfig struct {
	Queue        string
	Concurrency  int           // goroutines polling the queue
	PollInterval time.Duration // delay between polls
	Timeout      time.Duration // per-job deadline, 0 for none
}

// DefaultWorkerConfig returns default worker configuration
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Queue:        QueueGenerations,
		Concurrency:  2,
		PollInterval: time.Second,
		Timeout:      10 * time.Minute,
	}
}
