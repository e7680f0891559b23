package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/analysis"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/charts"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/composer"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/llm"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/pipeline"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/planner"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/progress"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/shared/config"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/shared/utils"
)

func main() {
	var (
		datasetID string
		jobID     string
		outDir    string
		format    string
		bc        deck.BusinessContext
		opts      pipeline.Options
	)

	flag.StringVar(&datasetID, "dataset", "", "Dataset id: <data-dir>/<id>.csv or .xlsx")
	flag.StringVar(&jobID, "job", "", "Job id (defaults to the dataset id)")
	flag.StringVar(&outDir, "out", "decks", "Directory for generated decks")
	flag.StringVar(&format, "export", "", "Also write an export: xlsx or pdf")
	flag.StringVar(&bc.TargetAudience, "audience", "executives", "Target audience")
	flag.StringVar(&bc.PresentationGoal, "goal", "", "Presentation goal")
	flag.StringVar(&bc.Industry, "industry", "", "Industry")
	flag.IntVar(&bc.TimeLimit, "minutes", 0, "Time limit in minutes")
	flag.IntVar(&opts.MaxSlides, "max-slides", 0, "Truncate the outline to this many slides")
	flag.IntVar(&opts.QualityThreshold, "threshold", 0, "Fail when the data quality score is below this")
	flag.BoolVar(&opts.SkipAnalysis, "skip-analysis", false, "Use the fallback analysis")
	flag.BoolVar(&opts.SkipCharts, "skip-charts", false, "Do not request charts")
	flag.BoolVar(&opts.SkipIfExists, "skip-if-exists", false, "Return the stored deck when present")
	flag.Parse()

	cfg := config.LoadConfig()
	utils.InitLogger(cfg.LogLevel)

	if datasetID == "" {
		log.Fatal().Msg("❌ -dataset is required")
	}
	if jobID == "" {
		jobID = datasetID
	}
	var exportFormat export.ExportFormat
	if format != "" {
		f, ok := export.ParseFormat(format)
		if !ok {
			log.Fatal().Str("format", format).Msg("❌ -export must be xlsx or pdf")
		}
		exportFormat = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llmService, err := llm.NewService(cfg.LLMRequestsPerMinute)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize LLM service")
	}

	progressStore, err := progress.NewSQLiteStore(cfg.ProgressDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open progress store")
	}
	defer progressStore.Close()
	tracker := progress.NewTracker(progressStore)

	deckStore, err := pipeline.NewFileDeckStore(outDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open deck directory")
	}

	orchestrator := pipeline.NewOrchestrator(pipeline.Deps{
		Analyzer: analysis.NewBridge(analysis.NewFileSource(cfg.DatasetDir), analysis.BridgeConfig{
			Command:          cfg.AnalysisPython,
			Script:           cfg.AnalysisScript,
			Timeout:          cfg.AnalysisTimeout,
			QualityThreshold: cfg.AnalysisQualityThreshold,
			TempDir:          cfg.TempDir,
		}),
		Planner:         planner.NewPlanner(llmService),
		Charts:          charts.NewBuilder(llmService),
		Composer:        composer.NewComposer(nil),
		Store:           deckStore,
		Progress:        tracker,
		AnalysisEnabled: cfg.AnalysisEnabled,
		ChartsEnabled:   cfg.ChartsEnabled,
	})

	// print progress as it happens
	updates, unsubscribe := tracker.Subscribe(jobID)
	stopPrinting := make(chan struct{})
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for {
			select {
			case rec := <-updates:
				printProgress(rec)
			case <-stopPrinting:
				for {
					select {
					case rec := <-updates:
						printProgress(rec)
					default:
						return
					}
				}
			}
		}
	}()

	result, err := orchestrator.Run(ctx, jobID, datasetID, bc, opts)
	close(stopPrinting)
	<-printed
	unsubscribe()
	if err != nil {
		log.Fatal().Err(err).Str("job_id", jobID).Msg("❌ Deck generation failed")
	}

	log.Info().
		Str("deck", filepath.Join(outDir, jobID+".json")).
		Int("slides", len(result.Slides)).
		Int("quality_score", result.Metadata.QualityScore).
		Msg("✅ Deck written")

	if exportFormat != "" {
		svc := export.NewService()
		path := filepath.Join(outDir, svc.Filename(result, exportFormat))
		f, err := os.Create(path)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create export file")
		}
		if err := svc.Export(result, exportFormat, f); err != nil {
			f.Close()
			log.Fatal().Err(err).Msg("Export failed")
		}
		if err := f.Close(); err != nil {
			log.Fatal().Err(err).Msg("Failed to write export file")
		}
		log.Info().Str("path", path).Msg("📦 Export written")
	}
}

func printProgress(rec progress.Record) {
	log.Info().Str("step", string(rec.Step)).Msg("⏳ " + rec.Message)
}
