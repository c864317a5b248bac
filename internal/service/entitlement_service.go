package service

import (
	"context"
	"fmt"
	"time"

	"magician-server/internal/domain"
)

// EntitlementService answers whether a user may generate: either a live
// subscription or fewer than limit recorded free generations.
type EntitlementService struct {
	usageRepo        domain.UsageRepository
	subscriptionRepo domain.SubscriptionRepository
	logger           domain.Logger
	limit            int
	now              func() time.Time
}

func NewEntitlementService(
	usageRepo domain.UsageRepository,
	subscriptionRepo domain.SubscriptionRepository,
	logger domain.Logger,
	limit int,
) *EntitlementService {
	if limit <= 0 {
		limit = domain.DefaultFreeGenerationLimit
	}
	return &EntitlementService{
		usageRepo:        usageRepo,
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
		limit:            limit,
		now:              time.Now,
	}
}

// WithClock replaces the time source used for subscription expiry.
func (s *EntitlementService) WithClock(now func() time.Time) *EntitlementService {
	s.now = now
	return s
}

// IsWithinFreeTier reports whether the user has generations left. No record means zero used.
func (s *EntitlementService) IsWithinFreeTier(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, domain.ErrMissingUserID
	}
	count, err := s.usedCount(ctx, userID)
	if err != nil {
		return false, err
	}
	return count < s.limit, nil
}

// IsSubscribed reports whether the user holds a subscription that has not expired.
// Anonymous callers are never subscribed.
func (s *EntitlementService) IsSubscribed(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	rec, err := s.subscriptionRepo.GetByUserID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load subscription: %w", err)
	}
	return rec.IsActive(s.now()), nil
}

// RecordUsage adds exactly one generation to the user's count.
func (s *EntitlementService) RecordUsage(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrMissingUserID
	}
	rec, err := s.usageRepo.IncrementUsage(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	s.logger.Debug("Recorded free generation", "user_id", userID, "count", rec.GenerationCount, "limit", s.limit)
	return nil
}

// Check evaluates both conditions for one request.
func (s *EntitlementService) Check(ctx context.Context, userID string) (domain.Entitlement, error) {
	subscribed, err := s.IsSubscribed(ctx, userID)
	if err != nil {
		return domain.Entitlement{}, err
	}
	if subscribed {
		return domain.Entitlement{Subscribed: true}, nil
	}
	within, err := s.IsWithinFreeTier(ctx, userID)
	if err != nil {
		return domain.Entitlement{}, err
	}
	return domain.Entitlement{WithinFreeTier: within}, nil
}

// Summary feeds the dashboard counter.
func (s *EntitlementService) Summary(ctx context.Context, userID string) (*domain.UsageSummary, error) {
	if userID == "" {
		return nil, domain.ErrMissingUserID
	}
	count, err := s.usedCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.IsSubscribed(ctx, userID)
	if err != nil {
		return nil, err
	}

	remaining := s.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return &domain.UsageSummary{
		Count:     count,
		Limit:     s.limit,
		Remaining: remaining,
		IsPro:     subscribed,
	}, nil
}

func (s *EntitlementService) usedCount(ctx context.Context, userID string) (int, error) {
	rec, err := s.usageRepo.GetUsage(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load usage: %w", err)
	}
	if rec == nil {
		return 0, nil
	}
	return rec.GenerationCount, nil
}
