package domain

// AuthUser is the identity handed to us by the external auth provider.
// ID is the provider subject and is treated as opaque.
type AuthUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
}

type AuthService interface {
	ValidateToken(token string) (*AuthUser, error)
}

// TokenVerifier validates a bearer token against an identity provider.
type TokenVerifier interface {
	ValidateToken(token string) (*AuthUser, error)
}
