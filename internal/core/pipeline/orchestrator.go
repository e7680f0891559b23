package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/analysis"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/layout"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/progress"
	"github.com/rs/zerolog/log"
)

// ErrQualityBelowThreshold is returned when the analysis score is under the requested minimum
var ErrQualityBelowThreshold = errors.New("data quality below threshold")

// Analyzer produces the statistical profile of a dataset
type Analyzer interface {
	Analyze(ctx context.Context, datasetID string) (*analysis.Result, error)
}

// Planner produces the slide outline
type Planner interface {
	Plan(ctx context.Context, jobID string, a *analysis.Result, bc deck.BusinessContext) (*deck.PresentationStructure, error)
}

// ChartBuilder attaches charts to outline slides
type ChartBuilder interface {
	Build(ctx context.Context, jobID string, s *deck.PresentationStructure, a *analysis.Result, datasetID string) ([]deck.ChartConfig, error)
}

// Composer assembles and scores the final deck. Stash keeps demo decks
// that are never written to the store.
type Composer interface {
	Compose(ctx context.Context, jobID string, s *deck.PresentationStructure, slides []deck.StyledSlide) (*deck.FinalDeck, error)
	Stash(ctx context.Context, jobID string, d *deck.FinalDeck)
}

// Publisher receives progress steps
type Publisher interface {
	Publish(ctx context.Context, jobID string, step progress.Step, message string, metadata map[string]any) error
}

// Options tune one pipeline run
type Options struct {
	SkipAnalysis     bool `json:"skipAnalysis"`
	SkipCharts       bool `json:"skipCharts"`
	QualityThreshold int  `json:"qualityThreshold"`
	MaxSlides        int  `json:"maxSlides"`
	SkipIfExists     bool `json:"skipIfExists"`
	Demo             bool `json:"demo"`
}

// Deps are the stages and sinks an Orchestrator drives
type Deps struct {
	Analyzer        Analyzer
	Planner         Planner
	Charts          ChartBuilder
	Composer        Composer
	Store           DeckStore
	Progress        Publisher
	AnalysisEnabled bool // false always uses the fallback profile
	ChartsEnabled   bool
}

// Orchestrator runs analysis, planning, charts, layout and composition for one job
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator creates a new pipeline orchestrator
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// Run generates the deck for jobID. Analysis and chart failures fall back;
// planning, composition and persistence failures are returned after an
// error progress record.
func (o *Orchestrator) Run(ctx context.Context, jobID, datasetID string, bc deck.BusinessContext, opts Options) (*deck.FinalDeck, error) {
	logger := log.With().Str("job_id", jobID).Str("dataset_id", datasetID).Logger()

	if opts.SkipIfExists && !opts.Demo && o.deps.Store != nil {
		existing, err := o.deps.Store.LoadDeck(ctx, jobID)
		if err == nil {
			logger.Info().Msg("♻️ Returning existing deck")
			return existing, nil
		}
		if !errors.Is(err, ErrDeckNotFound) {
			logger.Warn().Err(err).Msg("⚠️ Failed to load existing deck, regenerating")
		}
	}

	o.publish(ctx, jobID, progress.StepAnalyzing, "Analyzing dataset", nil)
	a := o.analyze(ctx, jobID, datasetID, opts)

	if opts.QualityThreshold > 0 && a.DataQualityScore < float64(opts.QualityThreshold) {
		err := fmt.Errorf("%w: score %.0f is below %d", ErrQualityBelowThreshold, a.DataQualityScore, opts.QualityThreshold)
		return nil, o.fail(ctx, jobID, err, opts)
	}

	o.publish(ctx, jobID, progress.StepPlanning, "Planning presentation structure", map[string]any{
		"qualityScore": a.DataQualityScore,
		"fallback":     analysis.IsFallback(a),
	})
	structure, err := o.deps.Planner.Plan(ctx, jobID, a, bc)
	if err != nil {
		return nil, o.fail(ctx, jobID, err, opts)
	}

	if opts.MaxSlides > 0 && len(structure.Slides) > opts.MaxSlides {
		logger.Info().Int("planned", len(structure.Slides)).Int("max", opts.MaxSlides).Msg("✂️ Truncating outline by priority")
		structure = TruncateByPriority(structure, opts.MaxSlides)
	}

	charts := o.buildCharts(ctx, jobID, datasetID, structure, a, opts)

	o.publish(ctx, jobID, progress.StepComposing, "Composing slides", map[string]any{"charts": len(charts)})
	slides := layout.Style(structure.Slides, charts)
	result, err := o.deps.Composer.Compose(ctx, jobID, structure, slides)
	if err != nil {
		return nil, o.fail(ctx, jobID, err, opts)
	}

	switch {
	case opts.Demo:
		o.deps.Composer.Stash(ctx, jobID, result)
	case o.deps.Store != nil:
		if err := o.deps.Store.SaveDeck(ctx, jobID, result, a); err != nil {
			return nil, o.fail(ctx, jobID, fmt.Errorf("failed to persist deck: %w", err), opts)
		}
	}

	o.publish(ctx, jobID, progress.StepDone, "Deck ready", map[string]any{
		"qualityScore": result.Metadata.QualityScore,
		"slides":       len(result.Slides),
	})
	logger.Info().Int("slides", len(result.Slides)).Int("quality_score", result.Metadata.QualityScore).Msg("🎉 Deck generated")

	return result, nil
}

func (o *Orchestrator) analyze(ctx context.Context, jobID, datasetID string, opts Options) *analysis.Result {
	if opts.SkipAnalysis || !o.deps.AnalysisEnabled || o.deps.Analyzer == nil {
		log.Info().Str("job_id", jobID).Msg("📊 Analysis disabled, using fallback profile")
		return analysis.Fallback()
	}

	a, err := o.deps.Analyzer.Analyze(ctx, datasetID)
	if err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("⚠️ Analysis failed, using fallback profile")
		return analysis.Fallback()
	}
	return a
}

func (o *Orchestrator) buildCharts(ctx context.Context, jobID, datasetID string, s *deck.PresentationStructure, a *analysis.Result, opts Options) []deck.ChartConfig {
	if opts.SkipCharts || !o.deps.ChartsEnabled || o.deps.Charts == nil {
		o.publish(ctx, jobID, progress.StepChartBuilding, "Charts disabled", nil)
		return []deck.ChartConfig{}
	}

	o.publish(ctx, jobID, progress.StepChartBuilding, "Building charts", nil)
	charts, err := o.deps.Charts.Build(ctx, jobID, s, a, datasetID)
	if err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("⚠️ Chart generation failed, continuing without charts")
		return []deck.ChartConfig{}
	}
	return charts
}

// fail publishes the error step and marks the job failed without writing a deck
func (o *Orchestrator) fail(ctx context.Context, jobID string, cause error, opts Options) error {
	log.Error().Err(cause).Str("job_id", jobID).Msg("❌ Deck generation failed")
	o.publish(ctx, jobID, progress.StepError, cause.Error(), nil)

	if !opts.Demo && o.deps.Store != nil {
		if err := o.deps.Store.MarkFailed(context.WithoutCancel(ctx), jobID, cause); err != nil {
			log.Warn().Err(err).Str("job_id", jobID).Msg("⚠️ Failed to mark generation as failed")
		}
	}
	return cause
}

func (o *Orchestrator) publish(ctx context.Context, jobID string, step progress.Step, message string, metadata map[string]any) {
	if o.deps.Progress == nil {
		return
	}
	// progress is reported even when the run's context is already done
	if err := o.deps.Progress.Publish(context.WithoutCancel(ctx), jobID, step, message, metadata); err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Str("step", string(step)).Msg("⚠️ Failed to publish progress")
	}
}
