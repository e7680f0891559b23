package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Queue is a postgres-backed job queue. Workers in several processes may
// share it; claims use SELECT ... FOR UPDATE SKIP LOCKED.
type Queue struct {
	db  *gorm.DB
	now func() time.Time
}

// NewQueue creates a new job queue
func NewQueue(db *gorm.DB) *Queue {
	return &Queue{db: db, now: time.Now}
}

func toJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// Enqueue inserts a pending job
func (q *Queue) Enqueue(ctx context.Context, reference, jobType string, payload any, opts EnqueueOptions) (*Job, error) {
	if opts.Queue == "" {
		opts.Queue = QueueGenerations
	}
	if opts.Priority == 0 {
		opts.Priority = PriorityNormal
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}

	body, err := toJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payload: %w", err)
	}
	meta, err := toJSON(opts.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize metadata: %w", err)
	}

	job := &Job{
		Reference:   reference,
		Queue:       opts.Queue,
		Type:        jobType,
		Payload:     body,
		Status:      StatusPending,
		Priority:    opts.Priority,
		MaxRetries:  opts.MaxRetries,
		ScheduledAt: opts.ScheduleAt,
		Metadata:    meta,
	}
	if err := q.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// Dequeue claims the next due job, or returns nil when there is none
func (q *Queue) Dequeue(ctx context.Context, queueName string) (*Job, error) {
	var job Job
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := q.now()
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("queue = ? AND status = ?", queueName, StatusPending).
			Where("scheduled_at IS NULL OR scheduled_at <= ?", now).
			Order("priority DESC, created_at ASC").
			First(&job).Error
		if err != nil {
			return err
		}

		job.Status = StatusProcessing
		job.StartedAt = &now
		job.Attempts++
		return tx.Model(&job).Updates(map[string]any{
			"status":     job.Status,
			"started_at": now,
			"attempts":   job.Attempts,
		}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}
	return &job, nil
}

// MarkCompleted records success and an optional result document
func (q *Queue) MarkCompleted(ctx context.Context, jobID uuid.UUID, result any) error {
	res, err := toJSON(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	updates := map[string]any{"status": StatusCompleted, "completed_at": q.now(), "error": ""}
	if res != nil {
		updates["result"] = res
	}
	return q.db.WithContext(ctx).Model(&Job{}).Where("id = ?", jobID).Updates(updates).Error
}

// MarkFailed records the failure and puts the job back with a backoff while
// attempts remain
func (q *Queue) MarkFailed(ctx context.Context, jobID uuid.UUID, cause error) error {
	var job Job
	if err := q.db.WithContext(ctx).Select("id", "attempts", "max_retries").First(&job, "id = ?", jobID).Error; err != nil {
		return fmt.Errorf("failed to find job: %w", err)
	}
	return q.db.WithContext(ctx).Model(&Job{}).Where("id = ?", jobID).Updates(q.failureUpdates(&job, cause.Error())).Error
}

func (q *Queue) failureUpdates(job *Job, reason string) map[string]any {
	now := q.now()
	updates := map[string]any{"error": reason, "failed_at": now}
	if job.Final() {
		updates["status"] = StatusFailed
		return updates
	}
	updates["status"] = StatusPending
	updates["scheduled_at"] = now.Add(time.Duration(calculateBackoff(job.Attempts)) * time.Second)
	return updates
}

// RecoverStale releases jobs stuck in processing since before cutoff, which
// happens when a process dies mid-job. It returns how many were released.
func (q *Queue) RecoverStale(ctx context.Context, queueName string, cutoff time.Time) (int, error) {
	var stale []Job
	err := q.db.WithContext(ctx).
		Select("id", "attempts", "max_retries").
		Where("queue = ? AND status = ? AND started_at < ?", queueName, StatusProcessing, cutoff).
		Find(&stale).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find stale jobs: %w", err)
	}
	for i := range stale {
		err := q.db.WithContext(ctx).Model(&Job{}).
			Where("id = ? AND status = ?", stale[i].ID, StatusProcessing).
			Updates(q.failureUpdates(&stale[i], "interrupted: worker stopped before the job finished")).Error
		if err != nil {
			return i, fmt.Errorf("failed to release job %s: %w", stale[i].ID, err)
		}
	}
	return len(stale), nil
}

// DeleteOldJobs deletes finished jobs last touched before now-olderThan
func (q *Queue) DeleteOldJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	result := q.db.WithContext(ctx).
		Where("status IN ? AND COALESCE(completed_at, failed_at, updated_at) < ?",
			[]JobStatus{StatusCompleted, StatusFailed}, q.now().Add(-olderThan)).
		Delete(&Job{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// calculateBackoff returns 2^attempt seconds, capped at one hour
func calculateBackoff(attempt int) int {
	if attempt >= 12 {
		return 3600
	}
	return min(1<<attempt, 3600)
}
