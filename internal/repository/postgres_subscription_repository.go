package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"magician-server/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSubscriptionRepository implements domain.SubscriptionRepository with a direct connection.
type PostgresSubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSubscriptionRepository(db *pgxpool.Pool) domain.SubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

func (r *PostgresSubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*domain.SubscriptionRecord, error) {
	var rec domain.SubscriptionRecord
	query := `
        SELECT user_id,
               COALESCE(stripe_customer_id, ''),
               COALESCE(stripe_subscription_id, ''),
               COALESCE(stripe_price_id, ''),
               COALESCE(stripe_current_period_end, to_timestamp(0))
        FROM user_subscriptions
        WHERE user_id = $1
    `
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&rec.UserID,
		&rec.BillingCustomerID,
		&rec.BillingSubscriptionID,
		&rec.BillingPriceID,
		&rec.CurrentPeriodEnd,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &rec, nil
}

func (r *PostgresSubscriptionRepository) UpsertForUser(ctx context.Context, record *domain.SubscriptionRecord) error {
	query := `
        INSERT INTO user_subscriptions (user_id, stripe_customer_id, stripe_subscription_id, stripe_price_id, stripe_current_period_end)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id) DO UPDATE SET
            stripe_customer_id = EXCLUDED.stripe_customer_id,
            stripe_subscription_id = EXCLUDED.stripe_subscription_id,
            stripe_price_id = EXCLUDED.stripe_price_id,
            stripe_current_period_end = EXCLUDED.stripe_current_period_end,
            updated_at = NOW()
    `
	_, err := r.db.Exec(ctx, query,
		record.UserID,
		nullIfEmpty(record.BillingCustomerID),
		nullIfEmpty(record.BillingSubscriptionID),
		record.BillingPriceID,
		record.CurrentPeriodEnd.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

func (r *PostgresSubscriptionRepository) UpdateBillingPeriod(ctx context.Context, subscriptionID, priceID string, periodEnd time.Time) error {
	query := `
        UPDATE user_subscriptions
        SET stripe_price_id = $2,
            stripe_current_period_end = $3,
            updated_at = NOW()
        WHERE stripe_subscription_id = $1
    `
	tag, err := r.db.Exec(ctx, query, subscriptionID, priceID, periodEnd.UTC())
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}
