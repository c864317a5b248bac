package service

import (
	"context"

	"magician-server/internal/domain"
	apperrors "magician-server/pkg/errors"
)

// BillingService decides whether a user is sent to checkout or to the billing portal.
type BillingService struct {
	gateway          domain.BillingGateway
	subscriptionRepo domain.SubscriptionRepository
	logger           domain.Logger
	appURL           string
}

func NewBillingService(
	gateway domain.BillingGateway,
	subscriptionRepo domain.SubscriptionRepository,
	logger domain.Logger,
	appURL string,
) *BillingService {
	return &BillingService{
		gateway:          gateway,
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
		appURL:           appURL,
	}
}

// ManageURL returns the portal URL for known customers and a new checkout URL otherwise.
// Both flows come back to the settings page.
func (s *BillingService) ManageURL(ctx context.Context, user *domain.AuthUser) (string, error) {
	if user == nil || user.ID == "" {
		return "", apperrors.NewUnauthorizedError("Unauthorized")
	}
	if s.gateway == nil {
		return "", apperrors.NewConfigurationError("Stripe API Key not configured.", domain.ErrProviderNotConfigured)
	}

	settingsURL := s.appURL + "/settings"

	rec, err := s.subscriptionRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		s.logger.Error("Failed to load subscription", err, "user_id", user.ID)
		return "", apperrors.NewInternalError("Internal Error", err)
	}

	if rec != nil && rec.BillingCustomerID != "" {
		url, err := s.gateway.CreatePortalSession(ctx, rec.BillingCustomerID, settingsURL)
		if err != nil {
			s.logger.Error("Failed to open billing portal", err, "user_id", user.ID)
			return "", apperrors.NewUpstreamError("Internal Error", err)
		}
		return url, nil
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, domain.CheckoutRequest{
		UserID:     user.ID,
		Email:      user.Email,
		SuccessURL: settingsURL,
		CancelURL:  settingsURL,
	})
	if err != nil {
		s.logger.Error("Failed to open checkout", err, "user_id", user.ID)
		return "", apperrors.NewUpstreamError("Internal Error", err)
	}
	s.logger.Info("Checkout session created", "user_id", user.ID)
	return url, nil
}
