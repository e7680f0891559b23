package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Dataset is an uploaded table kept for analysis
type Dataset struct {
	ID       uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name     string         `gorm:"type:text;not null" json:"name"`
	Columns  pq.StringArray `gorm:"type:text[]" json:"columns" swaggertype:"array,string"`
	Rows     datatypes.JSON `gorm:"type:jsonb" json:"-"`
	RowCount int            `gorm:"type:integer;not null;default:0" json:"row_count"`
	// SourceKey points at the archived upload, when there was one
	SourceKey string `gorm:"type:text" json:"source_key,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (Dataset) TableName() string {
	return "datasets"
}

// BeforeCreate sets UUID before creating
func (d *Dataset) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// CreateDatasetRequest uploads rows as JSON
type CreateDatasetRequest struct {
	Name    string           `json:"name"`
	Columns []string         `json:"columns,omitempty"`
	Rows    []map[string]any `json:"rows"`
}
