package repository

import (
	"fmt"
	"time"

	"magician-server/internal/domain"

	"github.com/supabase-community/supabase-go"
)

// Tables shared by the Supabase and Postgres repositories.
const (
	usageTable        = "user_api_limits"
	subscriptionTable = "user_subscriptions"
)

func dbClient(supabaseClient domain.SupabaseClient) (*supabase.Client, error) {
	if supabaseClient == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}
	client := supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}
	return client, nil
}

// nullIfEmpty maps a missing Stripe id to NULL so UNIQUE columns accept many unset rows.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Helper functions for type conversion
func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok && val != nil {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getInt(data map[string]interface{}, key string) int {
	if val, ok := data[key]; ok && val != nil {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}

// getTime parses PostgREST timestamps. Columns without a zone are read as UTC.
func getTime(data map[string]interface{}, key string) time.Time {
	s := getString(data, key)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999-07"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
