package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/analysis"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/modules/decks/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DatasetRepo interface {
	analysis.DatasetSource
	Create(ctx context.Context, d *models.Dataset) error
	GetByID(ctx context.Context, id string) (*models.Dataset, error)
}

type datasetRepo struct {
	db *gorm.DB
}

func NewDatasetRepo(db *gorm.DB) DatasetRepo {
	return &datasetRepo{db: db}
}

func (r *datasetRepo) Create(ctx context.Context, d *models.Dataset) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	return nil
}

func (r *datasetRepo) GetByID(ctx context.Context, id string) (*models.Dataset, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", analysis.ErrDatasetNotFound, id)
	}

	var d models.Dataset
	err = r.db.WithContext(ctx).First(&d, "id = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", analysis.ErrDatasetNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadDataset resolves stored rows for the analysis bridge
func (r *datasetRepo) LoadDataset(ctx context.Context, id string) (*analysis.Dataset, error) {
	d, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if len(d.Rows) > 0 {
		if err := json.Unmarshal(d.Rows, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode dataset rows: %w", err)
		}
	}

	return &analysis.Dataset{
		ID:      d.ID.String(),
		Name:    d.Name,
		Columns: []string(d.Columns),
		Rows:    rows,
	}, nil
}
