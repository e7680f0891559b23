package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProgressEvent is the postgres row for one progress record
type ProgressEvent struct {
	ID        int64          `gorm:"primaryKey;autoIncrement;index:idx_generation_progress_job,priority:2"`
	JobID     string         `gorm:"type:varchar(64);not null;index:idx_generation_progress_job,priority:1"`
	Step      string         `gorm:"type:varchar(32);not null"`
	Message   string         `gorm:"type:text"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"index"`
}

// TableName specifies the table name
func (ProgressEvent) TableName() string {
	return "generation_progress"
}

// GormStore persists progress in postgres
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new gorm-backed progress store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Append(ctx context.Context, rec *Record) error {
	row := ProgressEvent{
		JobID:     rec.JobID,
		Step:      string(rec.Step),
		Message:   rec.Message,
		CreatedAt: rec.CreatedAt,
	}
	if len(rec.Metadata) > 0 {
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode progress metadata: %w", err)
		}
		row.Metadata = datatypes.JSON(meta)
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append progress: %w", err)
	}
	rec.ID = row.ID
	return nil
}

func (s *GormStore) Latest(ctx context.Context, jobID string) (*Record, error) {
	var row ProgressEvent
	err := s.db.WithContext(ctx).Where("job_id = ?", jobID).Order("id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest progress: %w", err)
	}
	return row.toRecord(), nil
}

func (s *GormStore) List(ctx context.Context, jobID string) ([]Record, error) {
	var rows []ProgressEvent
	if err := s.db.WithContext(ctx).Where("job_id = ?", jobID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	out := make([]Record, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toRecord())
	}
	return out, nil
}

func (s *GormStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&ProgressEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old progress: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (e *ProgressEvent) toRecord() *Record {
	rec := &Record{
		ID:        e.ID,
		JobID:     e.JobID,
		Step:      Step(e.Step),
		Message:   e.Message,
		CreatedAt: e.CreatedAt,
	}
	if len(e.Metadata) > 0 {
		_ = json.Unmarshal(e.Metadata, &rec.Metadata)
	}
	return rec
}
