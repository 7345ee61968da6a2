package database

import (
	"errors"
	"log"

	"blueridge/config"

	supa "github.com/supabase-community/supabase-go"
)

// SupabaseClient is the process-wide row store client, nil when unconfigured.
var SupabaseClient *supa.Client

var ErrNotConfigured = errors.New("supabase not configured")

// NewSupabaseClient builds a service-role client for url.
func NewSupabaseClient(url, serviceKey string) (*supa.Client, error) {
	if url == "" || serviceKey == "" {
		return nil, ErrNotConfigured
	}
	return supa.NewClient(url, serviceKey, nil)
}

// InitDB initializes the Supabase client from AppConfig. A missing
// configuration leaves SupabaseClient nil; persistence is then skipped.
func InitDB() {
	client, err := NewSupabaseClient(config.AppConfig.SupabaseURL, config.AppConfig.SupabaseServiceKey)
	if err != nil {
		log.Printf("Supabase disabled: %v", err)
		return
	}
	SupabaseClient = client
	log.Println("Supabase client ready")
}
