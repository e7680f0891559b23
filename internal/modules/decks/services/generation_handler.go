package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/pipeline"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/modules/decks/models"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/modules/decks/repositories"
	"github.com/rs/zerolog/log"
)

// Runner executes the generation pipeline for one job
type Runner interface {
	Run(ctx context.Context, jobID, datasetID string, bc deck.BusinessContext, opts pipeline.Options) (*deck.FinalDeck, error)
}

// CompletionNotifier tells requesters how their generation ended
type CompletionNotifier interface {
	DeckReady(ctx context.Context, to, jobID string, d *deck.FinalDeck) error
	GenerationFailed(ctx context.Context, to, jobID string, cause error) error
}

// GenerationHandler runs generate_deck jobs from the queue
type GenerationHandler struct {
	runner      Runner
	generations repositories.GenerationRepo
	defaults    pipeline.Options
	notifier    CompletionNotifier
}

// NewGenerationHandler creates a new generation job handler. Zero-valued
// request options take their values from defaults.
func NewGenerationHandler(runner Runner, generations repositories.GenerationRepo, defaults pipeline.Options) *GenerationHandler {
	return &GenerationHandler{runner: runner, generations: generations, defaults: defaults}
}

// SetNotifier enables completion emails for requests carrying notify_email
func (h *GenerationHandler) SetNotifier(n CompletionNotifier) {
	h.notifier = n
}

func (h *GenerationHandler) GetType() string {
	return jobs.TypeGenerateDeck
}

func (h *GenerationHandler) Handle(ctx context.Context, job *jobs.Job) error {
	var payload models.GenerationPayload
	if err := job.DecodePayload(&payload); err != nil {
		return fmt.Errorf("invalid generation payload: %w", err)
	}
	if payload.GenerationID == "" {
		payload.GenerationID = job.Reference
	}

	opts := payload.Options
	if opts.QualityThreshold == 0 {
		opts.QualityThreshold = h.defaults.QualityThreshold
	}
	if opts.MaxSlides == 0 {
		opts.MaxSlides = h.defaults.MaxSlides
	}

	if opts.SkipIfExists && !opts.Demo {
		existing, err := h.generations.LoadDeck(ctx, payload.GenerationID)
		if err == nil {
			log.Info().Str("job_id", payload.GenerationID).Msg("♻️ Deck already generated, skipping run")
			h.notify(ctx, payload, func(ctx context.Context) error {
				return h.notifier.DeckReady(ctx, payload.NotifyEmail, payload.GenerationID, existing)
			})
			return nil
		}
		if !errors.Is(err, pipeline.ErrDeckNotFound) {
			log.Warn().Err(err).Str("job_id", payload.GenerationID).Msg("⚠️ Failed to load existing deck, regenerating")
		}
	}

	if err := h.generations.MarkRunning(ctx, payload.GenerationID); err != nil {
		log.Warn().Err(err).Str("job_id", payload.GenerationID).Msg("⚠️ Failed to mark generation running")
	}

	result, err := h.runner.Run(ctx, payload.GenerationID, payload.DatasetID, payload.BusinessContext, opts)
	if err != nil {
		// the orchestrator already published the error step and marked the row failed
		if job.Final() {
			h.notify(ctx, payload, func(ctx context.Context) error {
				return h.notifier.GenerationFailed(ctx, payload.NotifyEmail, payload.GenerationID, err)
			})
		}
		return err
	}

	if opts.Demo {
		if err := h.generations.MarkCompleted(ctx, payload.GenerationID, result.Metadata.QualityScore); err != nil {
			log.Warn().Err(err).Str("job_id", payload.GenerationID).Msg("⚠️ Failed to mark demo generation done")
		}
	}
	h.notify(ctx, payload, func(ctx context.Context) error {
		return h.notifier.DeckReady(ctx, payload.NotifyEmail, payload.GenerationID, result)
	})
	return nil
}

// notify never fails the job; a lost email is only logged
func (h *GenerationHandler) notify(ctx context.Context, payload models.GenerationPayload, send func(context.Context) error) {
	if h.notifier == nil || payload.NotifyEmail == "" {
		return
	}
	if err := send(context.WithoutCancel(ctx)); err != nil {
		log.Warn().Err(err).Str("job_id", payload.GenerationID).Msg("⚠️ Failed to send completion email")
	}
}
