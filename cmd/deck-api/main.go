package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/analysis"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/charts"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/composer"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/llm"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/maintenance"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/notification"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/pipeline"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/planner"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/progress"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/storage"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/modules/decks/handlers"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/modules/decks/repositories"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/modules/decks/services"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/shared/config"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/shared/database"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/shared/utils"

	_ "github.com/MuhamadAgungGumelar/deck-generator-be/cmd/deck-api/docs"
)

// @title Deck Generator API
// @version 1.0
// @description Turns uploaded tabular data into slide decks: analysis, outline planning, charts, layout and progress streaming.
// @contact.name API Support
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.LogLevel)
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("🚀 Starting deck-api")

	// Init database
	db, err := database.NewDB(cfg.DatabaseURL, cfg.Env == "development")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect database")
	}
	defer db.Close()

	// Repositories
	generationRepo := repositories.NewGenerationRepo(db.GORM)
	datasetRepo := repositories.NewDatasetRepo(db.GORM)

	// Structured generation with call audit
	auditService := audit.NewService(db.GORM)
	llmService, err := llm.NewService(cfg.LLMRequestsPerMinute)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize LLM service")
	}
	llmService.SetRecorder(auditService)

	healthChecks := map[string]handlers.Pinger{"database": db}

	// Demo deck cache: redis when configured
	var deckCache composer.DeckCache = composer.NewMemoryCache(cfg.DemoCacheTTL)
	if cfg.RedisURL != "" {
		redisCache, err := composer.NewRedisCache(cfg.RedisURL, cfg.DemoCacheTTL)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ Redis unavailable, using in-memory deck cache")
		} else {
			defer redisCache.Close()
			deckCache = redisCache
			healthChecks["redis"] = redisCache
		}
	}

	tracker := progress.NewTracker(progress.NewGormStore(db.GORM))

	orchestrator := pipeline.NewOrchestrator(pipeline.Deps{
		Analyzer: analysis.NewBridge(datasetRepo, analysis.BridgeConfig{
			Command:          cfg.AnalysisPython,
			Script:           cfg.AnalysisScript,
			Timeout:          cfg.AnalysisTimeout,
			QualityThreshold: cfg.AnalysisQualityThreshold,
			TempDir:          cfg.TempDir,
		}),
		Planner:         planner.NewPlanner(llmService),
		Charts:          charts.NewBuilder(llmService),
		Composer:        composer.NewComposer(deckCache),
		Store:           generationRepo,
		Progress:        tracker,
		AnalysisEnabled: cfg.AnalysisEnabled,
		ChartsEnabled:   cfg.ChartsEnabled,
	})

	// Background workers
	generationHandler := services.NewGenerationHandler(orchestrator, generationRepo, pipeline.Options{
		QualityThreshold: cfg.PipelineQualityThreshold,
		MaxSlides:        cfg.MaxSlides,
	})
	mailer, err := notification.NewMailer(cfg.EmailProvider, cfg.EmailAPIKey, notification.Sender{
		Email: cfg.EmailFrom,
		Name:  cfg.EmailFromName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize email provider")
	}
	if mailer != nil {
		generationHandler.SetNotifier(notification.NewNotifier(mailer, cfg.PublicBaseURL))
		log.Info().Str("provider", mailer.Name()).Msg("📧 Completion emails enabled")
	}

	jobService := jobs.NewService(db.GORM)
	jobService.RegisterWorker(jobs.WorkerConfig{
		Queue:        jobs.QueueGenerations,
		Concurrency:  cfg.WorkerConcurrency,
		PollInterval: cfg.WorkerPollInterval,
		Timeout:      cfg.JobTimeout,
	}, generationHandler)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	if err := jobService.StartWorkers(workerCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start workers")
	}

	// Retention cleanup
	scheduler := maintenance.NewScheduler(cfg.RetentionDays,
		maintenance.ProgressTask(tracker),
		maintenance.JobsTask(jobService),
		maintenance.AuditTask(auditService),
	)
	if err := scheduler.Schedule(cfg.CleanupSchedule); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule retention cleanup")
	}
	scheduler.Start()

	// Artifact storage for exports and archived uploads
	artifactProvider, err := storage.NewProvider(context.Background(), storage.Config{
		Provider:     cfg.StorageProvider,
		LocalDir:     cfg.StorageDir,
		LocalBaseURL: cfg.PublicBaseURL + "/artifacts",
		S3: storage.S3Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		},
		CloudinaryURL: cfg.CloudinaryURL,
	})
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.StorageProvider).Msg("Failed to initialize artifact storage")
	}
	artifacts := storage.NewService(artifactProvider)
	log.Info().Str("provider", artifacts.ProviderName()).Msg("🗄️ Artifact storage ready")

	// Handlers
	deckService := services.NewDeckService(generationRepo, datasetRepo, jobService, deckCache, tracker, auditService, artifacts, cfg.PublicBaseURL)
	deckHandler := handlers.NewDeckHandler(deckService)
	healthHandler := handlers.NewHealthHandler(llmService, healthChecks)

	// Init Fiber app
	app := fiber.New(fiber.Config{
		AppName:   "Deck Generator API",
		BodyLimit: 20 * 1024 * 1024,
	})

	// Middleware
	app.Use(cors.New())

	// Swagger
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Health check
	app.Get("/health", healthHandler.GetHealth)

	// Locally stored artifacts
	if artifacts.ProviderName() == "local" {
		app.Static("/artifacts", cfg.StorageDir)
	}

	// Dataset, generation and deck routes
	deckHandler.Register(app)

	go func() {
		log.Info().Msgf("✅ deck-api running at :%s", cfg.Port)
		log.Info().Msgf("📄 Swagger UI: http://localhost:%s/swagger/", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("🛑 Shutting down deck-api...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warn().Err(err).Msg("⚠️ Server shutdown incomplete")
	}
	scheduler.Stop()
	jobService.StopWorkers()
	log.Info().Msg("👋 Goodbye!")
}
