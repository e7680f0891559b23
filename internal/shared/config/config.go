package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	Port        string
	Env         string
	LogLevel    string

	// Statistical analysis subprocess
	AnalysisEnabled          bool
	AnalysisPython           string
	AnalysisScript           string
	AnalysisTimeout          time.Duration
	AnalysisQualityThreshold int
	DatasetDir               string
	TempDir                  string

	// Pipeline defaults
	ChartsEnabled            bool
	MaxSlides                int
	PipelineQualityThreshold int
	DemoCacheTTL             time.Duration
	LLMRequestsPerMinute     int

	// Background workers
	WorkerConcurrency  int
	WorkerPollInterval time.Duration
	JobTimeout         time.Duration

	// Retention
	CleanupSchedule string
	RetentionDays   int

	PublicBaseURL  string
	ProgressDBPath string

	// Artifact storage: local, s3 or cloudinary
	StorageProvider   string
	StorageDir        string
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string
	S3PublicBaseURL   string
	CloudinaryURL     string

	// Completion emails: brevo or resend
	EmailProvider string
	EmailAPIKey   string
	EmailFrom     string
	EmailFromName string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using system environment variables")
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Port:        os.Getenv("PORT"),
		Env:         os.Getenv("ENV"),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		AnalysisEnabled:          getBool("ANALYSIS_ENABLED", true),
		AnalysisPython:           os.Getenv("ANALYSIS_PYTHON"),
		AnalysisScript:           os.Getenv("ANALYSIS_SCRIPT"),
		AnalysisTimeout:          getDuration("ANALYSIS_TIMEOUT", 60*time.Second),
		AnalysisQualityThreshold: getInt("ANALYSIS_QUALITY_THRESHOLD", 50),
		DatasetDir:               os.Getenv("DATASET_DIR"),
		TempDir:                  os.Getenv("ANALYSIS_TEMP_DIR"),

		ChartsEnabled:            getBool("CHARTS_ENABLED", true),
		MaxSlides:                getInt("MAX_SLIDES", 0),
		PipelineQualityThreshold: getInt("PIPELINE_QUALITY_THRESHOLD", 0),
		DemoCacheTTL:             getDuration("DEMO_CACHE_TTL", time.Hour),
		LLMRequestsPerMinute:     getInt("LLM_RPM", 30),

		WorkerConcurrency:  getInt("WORKER_CONCURRENCY", 2),
		WorkerPollInterval: getDuration("WORKER_POLL_INTERVAL", time.Second),
		JobTimeout:         getDuration("JOB_TIMEOUT", 10*time.Minute),

		CleanupSchedule: os.Getenv("CLEANUP_SCHEDULE"),
		RetentionDays:   getInt("RETENTION_DAYS", 30),

		PublicBaseURL:  os.Getenv("PUBLIC_BASE_URL"),
		ProgressDBPath: os.Getenv("PROGRESS_DB_PATH"),

		StorageProvider:   os.Getenv("STORAGE_PROVIDER"),
		StorageDir:        os.Getenv("STORAGE_DIR"),
		S3Region:          os.Getenv("AWS_REGION"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3PublicBaseURL:   os.Getenv("S3_PUBLIC_BASE_URL"),
		CloudinaryURL:     os.Getenv("CLOUDINARY_URL"),

		EmailProvider: os.Getenv("EMAIL_PROVIDER"),
		EmailAPIKey:   os.Getenv("EMAIL_API_KEY"),
		EmailFrom:     os.Getenv("EMAIL_FROM"),
		EmailFromName: os.Getenv("EMAIL_FROM_NAME"),
	}

	// Default values
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AnalysisPython == "" {
		cfg.AnalysisPython = "python3"
	}
	if cfg.AnalysisScript == "" {
		cfg.AnalysisScript = "python/insightGenerator.py"
	}
	if cfg.DatasetDir == "" {
		cfg.DatasetDir = "data"
	}
	if cfg.CleanupSchedule == "" {
		// Every day at 03:00
		cfg.CleanupSchedule = "0 0 3 * * *"
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:" + cfg.Port
	}
	if cfg.ProgressDBPath == "" {
		cfg.ProgressDBPath = "deckgen-progress.db"
	}
	if cfg.StorageProvider == "" {
		cfg.StorageProvider = "local"
	}
	if cfg.EmailFromName == "" {
		cfg.EmailFromName = "Deck Generator"
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "artifacts"
	}

	return cfg
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using default %d", key, raw, fallback)
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using default %t", key, raw, fallback)
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using default %s", key, raw, fallback)
		return fallback
	}
	return v
}
