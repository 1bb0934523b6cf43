package supabase

import (
	"fmt"

	"pdf-to-word/internal/domain"

	"github.com/supabase-community/supabase-go"
)

// SupabaseClient implements the domain.SupabaseClient interface
type SupabaseClient struct {
	client *supabase.Client
	config domain.Config
	logger domain.Logger
}

// NewSupabaseClient creates a new Supabase client instance
func NewSupabaseClient(config domain.Config, logger domain.Logger) domain.SupabaseClient {
	return &SupabaseClient{
		config: config,
		logger: logger,
	}
}

// Enabled reports whether URL, key and bucket are all configured.
func (s *SupabaseClient) Enabled() bool {
	return s.config.GetSupabaseURL() != "" &&
		s.config.GetSupabaseKey() != "" &&
		s.config.GetSupabaseBucket() != ""
}

func (s *SupabaseClient) DB() *supabase.Client {
	return s.client
}

// Initialize establishes a connection to Supabase
func (s *SupabaseClient) Initialize() error {
	supabaseURL := s.config.GetSupabaseURL()
	supabaseKey := s.config.GetSupabaseKey()

	if supabaseURL == "" || supabaseKey == "" {
		return fmt.Errorf("supabase URL and key must be provided")
	}

	client, err := supabase.NewClient(supabaseURL, supabaseKey, &supabase.ClientOptions{})
	if err != nil {
		return fmt.Errorf("failed to create Supabase client: %w", err)
	}

	s.client = client
	s.logger.Info("Supabase client initialized successfully", "url", supabaseURL, "bucket", s.config.GetSupabaseBucket())
	return nil
}
