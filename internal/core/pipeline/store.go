package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/analysis"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
)

// ErrDeckNotFound is returned when no deck was persisted for a job
var ErrDeckNotFound = errors.New("deck not found")

// DeckStore persists finished decks. SaveDeck is called once per successful
// run; MarkFailed never writes a deck.
type DeckStore interface {
	LoadDeck(ctx context.Context, jobID string) (*deck.FinalDeck, error)
	SaveDeck(ctx context.Context, jobID string, d *deck.FinalDeck, a *analysis.Result) error
	MarkFailed(ctx context.Context, jobID string, cause error) error
}

var safeJobID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileDeckStore writes decks as JSON files, one per job
type FileDeckStore struct {
	dir string
}

// NewFileDeckStore creates a store rooted at dir
func NewFileDeckStore(dir string) (*FileDeckStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &FileDeckStore{dir: dir}, nil
}

type fileRecord struct {
	Status   string           `json:"status"`
	Deck     *deck.FinalDeck  `json:"deck,omitempty"`
	Analysis *analysis.Result `json:"analysis,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func (s *FileDeckStore) path(jobID string) (string, error) {
	if !safeJobID.MatchString(jobID) {
		return "", fmt.Errorf("invalid job id %q", jobID)
	}
	return filepath.Join(s.dir, jobID+".json"), nil
}

func (s *FileDeckStore) LoadDeck(ctx context.Context, jobID string) (*deck.FinalDeck, error) {
	p, err := s.path(jobID)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrDeckNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read deck: %w", err)
	}

	var rec fileRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode deck: %w", err)
	}
	if rec.Deck == nil {
		return nil, ErrDeckNotFound
	}
	return rec.Deck, nil
}

func (s *FileDeckStore) SaveDeck(ctx context.Context, jobID string, d *deck.FinalDeck, a *analysis.Result) error {
	return s.write(jobID, fileRecord{Status: "done", Deck: d, Analysis: a})
}

func (s *FileDeckStore) MarkFailed(ctx context.Context, jobID string, cause error) error {
	if _, err := s.LoadDeck(ctx, jobID); err == nil {
		// a previous successful run stays readable
		return nil
	}
	return s.write(jobID, fileRecord{Status: "error", Error: cause.Error()})
}

func (s *FileDeckStore) write(jobID string, rec fileRecord) error {
	p, err := s.path(jobID)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode deck: %w", err)
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write deck: %w", err)
	}
	return os.Rename(tmp, p)
}
