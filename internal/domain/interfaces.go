package domain

import "time"

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	// With returns a logger that prefixes every entry with the given key/value pairs.
	With(fields ...interface{}) Logger
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetAppURL() string
	GetAllowedOrigins() []string

	GetAuthProvider() string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetJWTIssuer() string
	GetJWTAudience() string
	GetJWKSURL() string
	GetDatabaseURL() string

	GetChatProvider() string
	GetOpenAIKey() string
	GetOpenAIChatModel() string
	GetGCPProjectID() string
	GetGCPLocation() string
	GetVertexChatModel() string
	GetReplicateToken() string
	GetReplicateMusicModel() string
	GetReplicateVideoModel() string

	GetStripeKey() string
	GetStripeWebhookSecret() string
	GetStripePriceID() string

	GetFreeGenerationLimit() int
	GetGenerationRatePerMinute() int
	GetGenerationRateBurst() int
	GetProviderTimeout() time.Duration
}
