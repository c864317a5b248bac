package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"magician-server/internal/domain"
)

// SupabaseSubscriptionRepository implements domain.SubscriptionRepository over PostgREST.
type SupabaseSubscriptionRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseSubscriptionRepository creates a new Supabase subscription repository
func NewSupabaseSubscriptionRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.SubscriptionRepository {
	return &SupabaseSubscriptionRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

func (r *SupabaseSubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*domain.SubscriptionRecord, error) {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(subscriptionTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return decodeSubscription(data)
}

// UpsertForUser keys on user_id so a returning subscriber overwrites the old record.
func (r *SupabaseSubscriptionRepository) UpsertForUser(ctx context.Context, record *domain.SubscriptionRecord) error {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return err
	}

	data := map[string]interface{}{
		"user_id":                   record.UserID,
		"stripe_customer_id":        nullIfEmpty(record.BillingCustomerID),
		"stripe_subscription_id":    nullIfEmpty(record.BillingSubscriptionID),
		"stripe_price_id":           record.BillingPriceID,
		"stripe_current_period_end": record.CurrentPeriodEnd.UTC(),
		"updated_at":                time.Now().UTC(),
	}

	_, _, err = client.From(subscriptionTable).
		Upsert(data, "user_id", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	r.logger.Info("Subscription saved",
		"user_id", record.UserID,
		"subscription_id", record.BillingSubscriptionID)
	return nil
}

func (r *SupabaseSubscriptionRepository) UpdateBillingPeriod(ctx context.Context, subscriptionID, priceID string, periodEnd time.Time) error {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return err
	}

	data, _, err := client.From(subscriptionTable).
		Update(map[string]interface{}{
			"stripe_price_id":           priceID,
			"stripe_current_period_end": periodEnd.UTC(),
			"updated_at":                time.Now().UTC(),
		}, "representation", "").
		Eq("stripe_subscription_id", subscriptionID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	updated, err := decodeSubscription(data)
	if err != nil {
		return err
	}
	if updated == nil {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

func decodeSubscription(data []byte) (*domain.SubscriptionRecord, error) {
	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToSubscription(rows[0]), nil
}

func mapToSubscription(data map[string]interface{}) *domain.SubscriptionRecord {
	return &domain.SubscriptionRecord{
		UserID:                getString(data, "user_id"),
		BillingCustomerID:     getString(data, "stripe_customer_id"),
		BillingSubscriptionID: getString(data, "stripe_subscription_id"),
		BillingPriceID:        getString(data, "stripe_price_id"),
		CurrentPeriodEnd:      getTime(data, "stripe_current_period_end"),
	}
}
