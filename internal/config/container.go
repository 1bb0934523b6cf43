package config

import (
	"fmt"

	"pdf-to-word/internal/domain"
	"pdf-to-word/internal/infra/docx"
	"pdf-to-word/internal/infra/pdf"
	"pdf-to-word/internal/infra/supabase"
	"pdf-to-word/internal/infra/tesseract"
	"pdf-to-word/internal/repository"
	"pdf-to-word/internal/service"
	"pdf-to-word/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config             domain.Config
	Logger             domain.Logger
	SupabaseClient     domain.SupabaseClient
	ArtifactRepository domain.ArtifactRepository
	ArtifactPublisher  domain.ArtifactPublisher
	Converter          domain.Converter
}

// NewContainer creates a new dependency injection container from the environment
func NewContainer() (*Container, error) {
	return NewContainerWithConfig(Load())
}

// NewContainerWithConfig wires the pipeline for an explicit configuration.
func NewContainerWithConfig(config domain.Config) (*Container, error) {
	return NewContainerWithLogger(config, logger.NewLogger(config.GetLogLevel(), config.GetLogFormat()))
}

// NewContainerWithLogger is NewContainerWithConfig with a caller-provided logger.
func NewContainerWithLogger(config domain.Config, appLogger domain.Logger) (*Container, error) {
	repo, err := repository.NewLocalArtifactRepository(config.GetOutputDir(), config.GetCollisionPolicy(), appLogger)
	if err != nil {
		return nil, fmt.Errorf("output storage: %w", err)
	}

	// Publishing is optional; a Supabase outage must not block local conversion.
	supabaseClient := supabase.NewSupabaseClient(config, appLogger)
	var publisher domain.ArtifactPublisher
	if supabaseClient.Enabled() {
		if err := supabaseClient.Initialize(); err != nil {
			appLogger.Warn("Supabase publishing disabled", "error", err)
		} else {
			publisher = repository.NewSupabaseArtifactPublisher(supabaseClient, config.GetSupabaseBucket(), appLogger)
		}
	}

	converter := service.NewConversionService(
		pdf.NewOpener(appLogger),
		pdf.NewImageDecoder(0),
		tesseract.NewRecognizer(appLogger),
		docx.NewWriter,
		repo,
		publisher,
		service.ConversionSettings{
			Languages:   config.GetOCRLanguages(),
			OCRPolicy:   config.GetOCRFailurePolicy(),
			Marker:      config.GetOCRMarker(),
			MaxFileSize: config.GetMaxFileSize(),
		},
		appLogger,
	)

	appLogger.Info("Conversion pipeline ready",
		"output_dir", repo.Dir(),
		"languages", config.GetOCRLanguages(),
		"ocr_failure_policy", string(config.GetOCRFailurePolicy()),
		"collision_policy", string(config.GetCollisionPolicy()),
		"publishing", publisher != nil,
	)

	return &Container{
		Config:             config,
		Logger:             appLogger,
		SupabaseClient:     supabaseClient,
		ArtifactRepository: repo,
		ArtifactPublisher:  publisher,
		Converter:          converter,
	}, nil
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetSupabaseClient returns the Supabase client instance
func (c *Container) GetSupabaseClient() domain.SupabaseClient {
	return c.SupabaseClient
}
