package domain

import (
	"context"
	"time"
)

// SubscriptionGracePeriod is added to the period end before a subscription counts as expired.
// It absorbs clock and timezone skew between us and the billing provider.
const SubscriptionGracePeriod = 24 * time.Hour

// SubscriptionRecord mirrors the billing provider's subscription for one user.
type SubscriptionRecord struct {
	UserID                string    `json:"user_id"`
	BillingCustomerID     string    `json:"stripe_customer_id"`
	BillingSubscriptionID string    `json:"stripe_subscription_id"`
	BillingPriceID        string    `json:"stripe_price_id"`
	CurrentPeriodEnd      time.Time `json:"stripe_current_period_end"`
}

// IsActive reports whether the subscription entitles the user at instant now.
// A record exactly at period end + grace is already expired.
func (s *SubscriptionRecord) IsActive(now time.Time) bool {
	if s == nil || s.BillingPriceID == "" {
		return false
	}
	return s.CurrentPeriodEnd.Add(SubscriptionGracePeriod).After(now)
}

// SubscriptionRepository defines persistence for mirrored subscriptions.
type SubscriptionRepository interface {
	// GetByUserID returns nil, nil when the user never subscribed.
	GetByUserID(ctx context.Context, userID string) (*SubscriptionRecord, error)
	// UpsertForUser creates the user's record or overwrites the existing one.
	UpsertForUser(ctx context.Context, record *SubscriptionRecord) error
	// UpdateBillingPeriod updates price and period end of the record holding subscriptionID.
	// It returns ErrSubscriptionNotFound when no such record exists.
	UpdateBillingPeriod(ctx context.Context, subscriptionID, priceID string, periodEnd time.Time) error
}
