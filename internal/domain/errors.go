package domain

import "errors"

// Domain errors
var (
	ErrMissingUserID         = errors.New("missing user id")
	ErrEntitlementExhausted  = errors.New("free trial has expired")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrInvalidToken          = errors.New("invalid token")
	ErrMalformedProviderData = errors.New("malformed provider response")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
