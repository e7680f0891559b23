package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/analysis"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/pipeline"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/modules/decks/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrGenerationNotFound is returned for unknown generation ids
var ErrGenerationNotFound = errors.New("generation not found")

type GenerationRepo interface {
	pipeline.DeckStore
	Create(ctx context.Context, g *models.Generation) error
	GetByID(ctx context.Context, id string) (*models.Generation, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, qualityScore int) error
}

type generationRepo struct {
	db *gorm.DB
}

func NewGenerationRepo(db *gorm.DB) GenerationRepo {
	return &generationRepo{db: db}
}

func (r *generationRepo) Create(ctx context.Context, g *models.Generation) error {
	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("failed to create generation: %w", err)
	}
	return nil
}

func (r *generationRepo) GetByID(ctx context.Context, id string) (*models.Generation, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", ErrGenerationNotFound, id)
	}

	var g models.Generation
	err = r.db.WithContext(ctx).First(&g, "id = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGenerationNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// MarkRunning starts a run. Finished generations keep their done status.
func (r *generationRepo) MarkRunning(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Generation{}).
		Where("id = ? AND status <> ?", id, models.StatusDone).
		Updates(map[string]any{
			"status":        models.StatusRunning,
			"started_at":    now,
			"error_message": "",
		}).Error
}

// MarkCompleted finishes a generation whose deck is not persisted (demo runs)
func (r *generationRepo) MarkCompleted(ctx context.Context, id string, qualityScore int) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Generation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        models.StatusDone,
			"quality_score": qualityScore,
			"completed_at":  now,
		}).Error
}

// LoadDeck returns the persisted deck of a finished generation
func (r *generationRepo) LoadDeck(ctx context.Context, jobID string) (*deck.FinalDeck, error) {
	g, err := r.GetByID(ctx, jobID)
	if errors.Is(err, ErrGenerationNotFound) {
		return nil, pipeline.ErrDeckNotFound
	}
	if err != nil {
		return nil, err
	}
	if !g.HasDeck() {
		return nil, pipeline.ErrDeckNotFound
	}

	var d deck.FinalDeck
	if err := json.Unmarshal(g.Deck, &d); err != nil {
		return nil, fmt.Errorf("failed to decode stored deck: %w", err)
	}
	return &d, nil
}

// SaveDeck stores the deck and the analysis it was built from
func (r *generationRepo) SaveDeck(ctx context.Context, jobID string, d *deck.FinalDeck, a *analysis.Result) error {
	deckJSON, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode deck: %w", err)
	}
	analysisJSON, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Generation{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":        models.StatusDone,
			"deck":          datatypes.JSON(deckJSON),
			"analysis":      datatypes.JSON(analysisJSON),
			"quality_score": d.Metadata.QualityScore,
			"error_message": "",
			"completed_at":  now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save deck: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrGenerationNotFound, jobID)
	}
	return nil
}

// MarkFailed records the failure unless a deck was already stored
func (r *generationRepo) MarkFailed(ctx context.Context, jobID string, cause error) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Generation{}).
		Where("id = ? AND status <> ?", jobID, models.StatusDone).
		Updates(map[string]any{
			"status":        models.StatusError,
			"error_message": cause.Error(),
			"completed_at":  now,
		}).Error
}
