package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/analysis"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/composer"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/pipeline"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/progress"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/storage"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/modules/decks/models"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/modules/decks/repositories"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
	"gorm.io/datatypes"
)

var (
	// ErrInvalidRequest marks caller mistakes the handlers map to 400
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDeckNotFound is returned when neither the store nor the demo cache has the deck
	ErrDeckNotFound = errors.New("deck not found")
	// ErrArtifactsDisabled is returned by PublishExport when no artifact store is wired
	ErrArtifactsDisabled = errors.New("artifact storage not configured")
)

const maxDatasetRows = 50000

// Enqueuer queues background generation jobs
type Enqueuer interface {
	EnqueueGeneration(ctx context.Context, generationID string, payload any) (*jobs.Job, error)
}

// CallLister reads the generation-call audit trail
type CallLister interface {
	ListByJob(ctx context.Context, jobID string) ([]audit.GenerationCall, error)
}

// ArtifactStore keeps exports and source files outside the database
type ArtifactStore interface {
	SaveExport(ctx context.Context, deckID, filename, contentType string, data []byte) (*storage.Object, error)
	ArchiveDataset(ctx context.Context, datasetID, filename string, r io.Reader) (*storage.Object, error)
}

// DeckService wires datasets, generations and the pipeline for the HTTP layer
type DeckService struct {
	generations repositories.GenerationRepo
	datasets    repositories.DatasetRepo
	queue       Enqueuer
	cache       composer.DeckCache
	tracker     *progress.Tracker
	calls       CallLister
	artifacts   ArtifactStore
	exporter    *export.Service
	baseURL     string
}

func NewDeckService(
	generations repositories.GenerationRepo,
	datasets repositories.DatasetRepo,
	queue Enqueuer,
	cache composer.DeckCache,
	tracker *progress.Tracker,
	calls CallLister,
	artifacts ArtifactStore,
	baseURL string,
) *DeckService {
	return &DeckService{
		generations: generations,
		datasets:    datasets,
		queue:       queue,
		cache:       cache,
		tracker:     tracker,
		calls:       calls,
		artifacts:   artifacts,
		exporter:    export.NewService(),
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// Tracker exposes the progress tracker for streaming
func (s *DeckService) Tracker() *progress.Tracker {
	return s.tracker
}

// CreateDataset stores JSON rows. Columns default to the sorted keys of the first row.
func (s *DeckService) CreateDataset(ctx context.Context, req *models.CreateDatasetRequest) (*models.Dataset, error) {
	if len(req.Rows) == 0 {
		return nil, fmt.Errorf("%w: dataset has no rows", ErrInvalidRequest)
	}
	if len(req.Rows) > maxDatasetRows {
		return nil, fmt.Errorf("%w: dataset exceeds %d rows", ErrInvalidRequest, maxDatasetRows)
	}

	columns := req.Columns
	if len(columns) == 0 {
		for k := range req.Rows[0] {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "dataset"
	}
	return s.saveDataset(ctx, &models.Dataset{Name: name}, columns, req.Rows)
}

// ImportDataset parses an uploaded csv or xlsx file and archives the original
func (s *DeckService) ImportDataset(ctx context.Context, filename string, r io.Reader) (*models.Dataset, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".csv" && ext != ".xlsx" {
		return nil, fmt.Errorf("%w: unsupported file type %q (use .csv or .xlsx)", ErrInvalidRequest, filepath.Ext(filename))
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	var (
		columns []string
		rows    []map[string]any
	)
	if ext == ".csv" {
		columns, rows, err = analysis.ReadCSV(bytes.NewReader(raw))
	} else {
		columns, rows, err = analysis.ReadXLSX(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: dataset has no rows", ErrInvalidRequest)
	}
	if len(rows) > maxDatasetRows {
		return nil, fmt.Errorf("%w: dataset exceeds %d rows", ErrInvalidRequest, maxDatasetRows)
	}

	d := &models.Dataset{ID: uuid.New(), Name: filename}
	if s.artifacts != nil {
		obj, err := s.artifacts.ArchiveDataset(ctx, d.ID.String(), filename, bytes.NewReader(raw))
		if err != nil {
			log.Warn().Err(err).Str("dataset_id", d.ID.String()).Msg("⚠️ Failed to archive dataset file")
		} else {
			d.SourceKey = obj.Key
		}
	}
	return s.saveDataset(ctx, d, columns, rows)
}

func (s *DeckService) saveDataset(ctx context.Context, d *models.Dataset, columns []string, rows []map[string]any) (*models.Dataset, error) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rows: %w", err)
	}

	d.Columns = columns
	d.Rows = datatypes.JSON(raw)
	d.RowCount = len(rows)
	if err := s.datasets.Create(ctx, d); err != nil {
		return nil, err
	}

	log.Info().Str("dataset_id", d.ID.String()).Int("rows", len(rows)).Int("columns", len(columns)).Msg("📥 Dataset stored")
	return d, nil
}

// CreateGeneration records a pending generation and queues it
func (s *DeckService) CreateGeneration(ctx context.Context, req *models.CreateGenerationRequest) (*models.CreateGenerationResponse, error) {
	if strings.TrimSpace(req.DatasetID) == "" {
		return nil, fmt.Errorf("%w: dataset_id is required", ErrInvalidRequest)
	}
	if req.Options.QualityThreshold < 0 || req.Options.QualityThreshold > 100 {
		return nil, fmt.Errorf("%w: qualityThreshold must be between 0 and 100", ErrInvalidRequest)
	}
	if req.Options.MaxSlides < 0 {
		return nil, fmt.Errorf("%w: maxSlides cannot be negative", ErrInvalidRequest)
	}
	if req.NotifyEmail != "" {
		if _, err := mail.ParseAddress(req.NotifyEmail); err != nil {
			return nil, fmt.Errorf("%w: notify_email is not a valid address", ErrInvalidRequest)
		}
	}
	if _, err := s.datasets.GetByID(ctx, req.DatasetID); err != nil {
		if errors.Is(err, analysis.ErrDatasetNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return nil, err
	}

	bc, _ := json.Marshal(req.BusinessContext)
	opts, _ := json.Marshal(req.Options)
	g := &models.Generation{
		DatasetID:       req.DatasetID,
		Status:          models.StatusPending,
		BusinessContext: datatypes.JSON(bc),
		Options:         datatypes.JSON(opts),
	}
	if err := s.generations.Create(ctx, g); err != nil {
		return nil, err
	}

	id := g.ID.String()
	payload := models.GenerationPayload{
		GenerationID:    id,
		DatasetID:       req.DatasetID,
		BusinessContext: req.BusinessContext,
		Options:         req.Options,
		NotifyEmail:     req.NotifyEmail,
	}
	if _, err := s.queue.EnqueueGeneration(ctx, id, payload); err != nil {
		_ = s.generations.MarkFailed(context.WithoutCancel(ctx), id, err)
		return nil, fmt.Errorf("failed to enqueue generation: %w", err)
	}

	log.Info().Str("job_id", id).Str("dataset_id", req.DatasetID).Msg("📨 Generation queued")
	return &models.CreateGenerationResponse{
		JobID:     id,
		Status:    models.StatusPending,
		StreamURL: fmt.Sprintf("/generations/%s/stream", id),
	}, nil
}

// GetGeneration returns the status record
func (s *DeckService) GetGeneration(ctx context.Context, id string) (*models.Generation, error) {
	return s.generations.GetByID(ctx, id)
}

// LatestProgress returns the most recent progress record of a generation
func (s *DeckService) LatestProgress(ctx context.Context, id string) (*progress.Record, error) {
	return s.tracker.Latest(ctx, id)
}

// Calls returns the audit trail of a generation and its summary
func (s *DeckService) Calls(ctx context.Context, id string) ([]audit.GenerationCall, audit.CallSummary, error) {
	if s.calls == nil {
		return []audit.GenerationCall{}, audit.Summarize(id, nil), nil
	}
	calls, err := s.calls.ListByJob(ctx, id)
	if err != nil {
		return nil, audit.CallSummary{}, err
	}
	return calls, audit.Summarize(id, calls), nil
}

// GetDeck reads the persisted deck, then the demo cache
func (s *DeckService) GetDeck(ctx context.Context, id string) (*deck.FinalDeck, error) {
	d, err := s.generations.LoadDeck(ctx, id)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, pipeline.ErrDeckNotFound) {
		return nil, err
	}

	if s.cache != nil {
		cached, ok, cerr := s.cache.Get(ctx, id)
		if cerr != nil {
			log.Warn().Err(cerr).Str("job_id", id).Msg("⚠️ Deck cache lookup failed")
		}
		if ok {
			return cached, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDeckNotFound, id)
}

// Export renders the deck in the requested format
func (s *DeckService) Export(ctx context.Context, id string, format export.ExportFormat) ([]byte, string, string, error) {
	d, err := s.GetDeck(ctx, id)
	if err != nil {
		return nil, "", "", err
	}
	data, contentType, err := s.exporter.ExportBytes(d, format)
	if err != nil {
		return nil, "", "", err
	}
	return data, contentType, s.exporter.Filename(d, format), nil
}

// PublishExport renders the deck and stores the file in the artifact store
func (s *DeckService) PublishExport(ctx context.Context, id string, format export.ExportFormat) (*storage.Object, error) {
	if s.artifacts == nil {
		return nil, ErrArtifactsDisabled
	}
	data, contentType, filename, err := s.Export(ctx, id, format)
	if err != nil {
		return nil, err
	}
	return s.artifacts.SaveExport(ctx, id, filename, contentType, data)
}

// ShareURL is the public address of a deck
func (s *DeckService) ShareURL(id string) string {
	return s.baseURL + "/decks/" + id
}

// QRCode returns a PNG QR code pointing at the deck share URL
func (s *DeckService) QRCode(ctx context.Context, id string, size int) ([]byte, error) {
	if _, err := s.GetDeck(ctx, id); err != nil {
		return nil, err
	}
	if size <= 0 || size > 1024 {
		size = 256
	}
	png, err := qrcode.Encode(s.ShareURL(id), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR: %w", err)
	}
	return png, nil
}
