package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/rs/zerolog/log"
)

// Config selects and configures the artifact provider
type Config struct {
	Provider      string // local, s3 or cloudinary
	LocalDir      string
	LocalBaseURL  string
	S3            S3Config
	CloudinaryURL string
}

// NewProvider builds the provider named in cfg; an empty name means local
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "local":
		dir := cfg.LocalDir
		if dir == "" {
			dir = "artifacts"
		}
		return NewLocalProvider(dir, cfg.LocalBaseURL)
	case "s3", "minio":
		return NewS3Provider(ctx, cfg.S3)
	case "cloudinary":
		if cfg.CloudinaryURL == "" {
			return nil, fmt.Errorf("CLOUDINARY_URL is required for the cloudinary provider")
		}
		return NewCloudinaryProvider(cfg.CloudinaryURL)
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}

// Service files deck exports and source datasets into a provider
type Service struct {
	provider Provider
}

// NewService creates a new artifact service
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// ProviderName returns the configured provider name
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// SaveExport stores a rendered deck under exports/<deck id>/, replacing earlier renders
func (s *Service) SaveExport(ctx context.Context, deckID, filename, contentType string, data []byte) (*Object, error) {
	obj, err := s.provider.Put(ctx, bytes.NewReader(data), PutOptions{
		Folder:      path.Join("exports", deckID),
		Name:        filename,
		ContentType: contentType,
		Overwrite:   true,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("job_id", deckID).Str("key", obj.Key).Str("provider", s.provider.Name()).Msg("📦 Export stored")
	return obj, nil
}

// ArchiveDataset keeps the uploaded file as datasets/<id><ext>
func (s *Service) ArchiveDataset(ctx context.Context, datasetID, filename string, r io.Reader) (*Object, error) {
	obj, err := s.provider.Put(ctx, r, PutOptions{
		Folder:    "datasets",
		Name:      datasetID + strings.ToLower(path.Ext(filename)),
		Overwrite: true,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("dataset_id", datasetID).Str("key", obj.Key).Msg("🗄️ Dataset file archived")
	return obj, nil
}

// Delete removes a stored artifact
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.provider.Delete(ctx, key)
}
