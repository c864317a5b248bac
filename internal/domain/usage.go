package domain

import (
	"context"
	"time"
)

// DefaultFreeGenerationLimit is the number of generations a user gets before subscribing.
const DefaultFreeGenerationLimit = 3

// UsageRecord counts the generations of a free tier user. A missing record means zero.
type UsageRecord struct {
	UserID          string    `json:"user_id"`
	GenerationCount int       `json:"count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UsageRepository defines persistence for the free tier counter.
type UsageRepository interface {
	// GetUsage returns nil, nil when the user has no record yet.
	GetUsage(ctx context.Context, userID string) (*UsageRecord, error)
	// IncrementUsage creates the record at 1 or adds exactly one to it.
	IncrementUsage(ctx context.Context, userID string) (*UsageRecord, error)
}

// Entitlement is the gate decision for a single request.
type Entitlement struct {
	Subscribed     bool
	WithinFreeTier bool
}

// Allowed reports whether a generation may be forwarded to a provider.
func (e Entitlement) Allowed() bool {
	return e.Subscribed || e.WithinFreeTier
}

// UsageSummary is what the dashboard shows in its free generations counter.
type UsageSummary struct {
	Count     int  `json:"count"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	IsPro     bool `json:"isPro"`
}

// EntitlementGate decides whether a user may generate and records free tier usage.
type EntitlementGate interface {
	IsWithinFreeTier(ctx context.Context, userID string) (bool, error)
	IsSubscribed(ctx context.Context, userID string) (bool, error)
	RecordUsage(ctx context.Context, userID string) error
	Check(ctx context.Context, userID string) (Entitlement, error)
	Summary(ctx context.Context, userID string) (*UsageSummary, error)
}
