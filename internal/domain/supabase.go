package domain

import "github.com/supabase-community/supabase-go"

// SupabaseClient owns the connection used to publish converted documents.
type SupabaseClient interface {
	Initialize() error
	Enabled() bool

	DB() *supabase.Client
}
