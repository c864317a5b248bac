package service

import (
	"context"
	"errors"
	"fmt"

	"magician-server/internal/domain"
	apperrors "magician-server/pkg/errors"
)

// LedgerService mirrors verified billing events into subscription records.
type LedgerService struct {
	gateway          domain.BillingGateway
	subscriptionRepo domain.SubscriptionRepository
	logger           domain.Logger
}

func NewLedgerService(
	gateway domain.BillingGateway,
	subscriptionRepo domain.SubscriptionRepository,
	logger domain.Logger,
) *LedgerService {
	return &LedgerService{
		gateway:          gateway,
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// Apply writes the effect of event. Replaying an event leaves the same record.
func (s *LedgerService) Apply(ctx context.Context, event domain.BillingEvent) error {
	switch e := event.(type) {
	case domain.SubscriptionStarted:
		return s.subscriptionStarted(ctx, e)
	case domain.PaymentSucceeded:
		return s.paymentSucceeded(ctx, e)
	case domain.UnhandledEvent:
		s.logger.Debug("Ignoring billing event", "type", e.Type)
		return nil
	default:
		return apperrors.NewValidationError("Unsupported event")
	}
}

func (s *LedgerService) subscriptionStarted(ctx context.Context, e domain.SubscriptionStarted) error {
	if e.UserID == "" {
		return apperrors.NewValidationError("User id is required")
	}
	if e.SubscriptionID == "" {
		return apperrors.NewValidationError("Subscription id is required")
	}

	sub, err := s.gateway.GetSubscription(ctx, e.SubscriptionID)
	if err != nil {
		return apperrors.NewUpstreamError("Could not retrieve subscription", err)
	}

	record := &domain.SubscriptionRecord{
		UserID:                e.UserID,
		BillingCustomerID:     sub.CustomerID,
		BillingSubscriptionID: sub.ID,
		BillingPriceID:        sub.PriceID,
		CurrentPeriodEnd:      sub.CurrentPeriodEnd,
	}
	if err := s.subscriptionRepo.UpsertForUser(ctx, record); err != nil {
		return apperrors.NewInternalError("Internal Error", err)
	}

	s.logger.Info("Subscription started",
		"user_id", e.UserID,
		"subscription_id", sub.ID,
		"period_end", sub.CurrentPeriodEnd)
	return nil
}

func (s *LedgerService) paymentSucceeded(ctx context.Context, e domain.PaymentSucceeded) error {
	if e.SubscriptionID == "" {
		return apperrors.NewValidationError("Subscription id is required")
	}

	sub, err := s.gateway.GetSubscription(ctx, e.SubscriptionID)
	if err != nil {
		return apperrors.NewUpstreamError("Could not retrieve subscription", err)
	}

	err = s.subscriptionRepo.UpdateBillingPeriod(ctx, sub.ID, sub.PriceID, sub.CurrentPeriodEnd)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		s.logger.Error("Payment for unknown subscription", err, "subscription_id", sub.ID)
		return fmt.Errorf("payment for %s: %w", sub.ID, err)
	}
	if err != nil {
		return apperrors.NewInternalError("Internal Error", err)
	}

	s.logger.Info("Subscription renewed",
		"subscription_id", sub.ID,
		"period_end", sub.CurrentPeriodEnd)
	return nil
}
