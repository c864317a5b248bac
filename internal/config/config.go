package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"magician-server/internal/domain"
)

// Default Replicate model versions used by the music and video tools.
const (
	DefaultMusicModel = "riffusion/riffusion:8cf61ea6c56afd61d8f5b9ffd14d7c216c0a93844ce2d82ac1c9ecc9c7f24e05"
	DefaultVideoModel = "anotherjesse/zeroscope-v2-xl:71996d331e8ede8ef7bd76eba9fae076d31792e4ddf4ad057779b443d6aea62f"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort     string
	LogLevel       string
	AppURL         string
	AllowedOrigins []string

	AuthProvider string
	SupabaseURL  string
	SupabaseKey  string
	JWTIssuer    string
	JWTAudience  string
	JWKSURL      string
	DatabaseURL  string

	ChatProvider        string
	OpenAIKey           string
	OpenAIChatModel     string
	GCPProjectID        string
	GCPLocation         string
	VertexChatModel     string
	ReplicateToken      string
	ReplicateMusicModel string
	ReplicateVideoModel string

	StripeKey           string
	StripeWebhookSecret string
	StripePriceID       string

	FreeGenerationLimit     int
	GenerationRatePerMinute int
	GenerationRateBurst     int
	ProviderTimeout         time.Duration
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		ServerPort:     getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		AppURL:         strings.TrimRight(getEnvOrDefault("APP_URL", "http://localhost:3000"), "/"),
		AllowedOrigins: getEnvListOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		AuthProvider: strings.ToLower(getEnvOrDefault("AUTH_PROVIDER", "supabase")),
		SupabaseURL:  getEnvOrDefault("SUPABASE_URL", ""),
		// The service role key bypasses RLS; usage and subscription rows are written server side.
		SupabaseKey: getEnvOrDefault("SUPABASE_SERVICE_ROLE_KEY", getEnvOrDefault("SUPABASE_ANON_KEY", "")),
		JWTIssuer:   getEnvOrDefault("JWT_ISSUER", ""),
		JWTAudience: getEnvOrDefault("JWT_AUDIENCE", ""),
		JWKSURL:     getEnvOrDefault("JWT_JWKS_URL", ""),
		DatabaseURL: getEnvOrDefault("DATABASE_URL", ""),

		ChatProvider:        strings.ToLower(getEnvOrDefault("CHAT_PROVIDER", "openai")),
		OpenAIKey:           getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIChatModel:     getEnvOrDefault("OPENAI_CHAT_MODEL", "gpt-3.5-turbo"),
		GCPProjectID:        getEnvOrDefault("GCP_PROJECT_ID", ""),
		GCPLocation:         getEnvOrDefault("GCP_LOCATION", "us-central1"),
		VertexChatModel:     getEnvOrDefault("VERTEX_CHAT_MODEL", "gemini-2.0-flash-001"),
		ReplicateToken:      getEnvOrDefault("REPLICATE_API_TOKEN", ""),
		ReplicateMusicModel: getEnvOrDefault("REPLICATE_MUSIC_MODEL", DefaultMusicModel),
		ReplicateVideoModel: getEnvOrDefault("REPLICATE_VIDEO_MODEL", DefaultVideoModel),

		StripeKey:           getEnvOrDefault("STRIPE_API_KEY", ""),
		StripeWebhookSecret: getEnvOrDefault("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceID:       getEnvOrDefault("STRIPE_PRICE_ID", ""),

		FreeGenerationLimit:     getEnvIntOrDefault("FREE_GENERATION_LIMIT", domain.DefaultFreeGenerationLimit),
		GenerationRatePerMinute: getEnvIntOrDefault("GENERATION_RATE_PER_MINUTE", 20),
		GenerationRateBurst:     getEnvIntOrDefault("GENERATION_RATE_BURST", 5),
		ProviderTimeout:         getEnvDurationOrDefault("PROVIDER_TIMEOUT", 120*time.Second),
	}
}

func (c *AppConfig) GetServerPort() string       { return c.ServerPort }
func (c *AppConfig) GetLogLevel() string         { return c.LogLevel }
func (c *AppConfig) GetAppURL() string           { return c.AppURL }
func (c *AppConfig) GetAllowedOrigins() []string { return c.AllowedOrigins }

func (c *AppConfig) GetAuthProvider() string { return c.AuthProvider }
func (c *AppConfig) GetSupabaseURL() string  { return c.SupabaseURL }
func (c *AppConfig) GetSupabaseKey() string  { return c.SupabaseKey }
func (c *AppConfig) GetJWTIssuer() string    { return c.JWTIssuer }
func (c *AppConfig) GetJWTAudience() string  { return c.JWTAudience }
func (c *AppConfig) GetJWKSURL() string      { return c.JWKSURL }
func (c *AppConfig) GetDatabaseURL() string  { return c.DatabaseURL }

func (c *AppConfig) GetChatProvider() string        { return c.ChatProvider }
func (c *AppConfig) GetOpenAIKey() string           { return c.OpenAIKey }
func (c *AppConfig) GetOpenAIChatModel() string     { return c.OpenAIChatModel }
func (c *AppConfig) GetGCPProjectID() string        { return c.GCPProjectID }
func (c *AppConfig) GetGCPLocation() string         { return c.GCPLocation }
func (c *AppConfig) GetVertexChatModel() string     { return c.VertexChatModel }
func (c *AppConfig) GetReplicateToken() string      { return c.ReplicateToken }
func (c *AppConfig) GetReplicateMusicModel() string { return c.ReplicateMusicModel }
func (c *AppConfig) GetReplicateVideoModel() string { return c.ReplicateVideoModel }

func (c *AppConfig) GetStripeKey() string           { return c.StripeKey }
func (c *AppConfig) GetStripeWebhookSecret() string { return c.StripeWebhookSecret }
func (c *AppConfig) GetStripePriceID() string       { return c.StripePriceID }

func (c *AppConfig) GetFreeGenerationLimit() int        { return c.FreeGenerationLimit }
func (c *AppConfig) GetGenerationRatePerMinute() int    { return c.GenerationRatePerMinute }
func (c *AppConfig) GetGenerationRateBurst() int        { return c.GenerationRateBurst }
func (c *AppConfig) GetProviderTimeout() time.Duration { return c.ProviderTimeout }

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
