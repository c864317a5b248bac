package domain

import (
	"context"
	"time"
)

// BillingEvent is a verified billing provider event. The set of variants is closed:
// SubscriptionStarted, PaymentSucceeded and UnhandledEvent.
type BillingEvent interface {
	EventType() string
	billingEvent()
}

// SubscriptionStarted is emitted when a checkout completes.
type SubscriptionStarted struct {
	Type           string
	UserID         string
	SubscriptionID string
}

// PaymentSucceeded is emitted on every paid invoice, renewals included.
// It carries no user correlation.
type PaymentSucceeded struct {
	Type           string
	SubscriptionID string
}

// UnhandledEvent is any other event kind. It is acknowledged and ignored.
type UnhandledEvent struct {
	Type string
}

func (e SubscriptionStarted) EventType() string { return e.Type }
func (e PaymentSucceeded) EventType() string    { return e.Type }
func (e UnhandledEvent) EventType() string      { return e.Type }

func (SubscriptionStarted) billingEvent() {}
func (PaymentSucceeded) billingEvent()    {}
func (UnhandledEvent) billingEvent()      {}

// BillingSubscription is the provider's view of a subscription.
type BillingSubscription struct {
	ID               string
	CustomerID       string
	PriceID          string
	CurrentPeriodEnd time.Time
}

// CheckoutRequest describes the checkout session opened for a user without a subscription.
type CheckoutRequest struct {
	UserID     string
	Email      string
	SuccessURL string
	CancelURL  string
}

// BillingGateway is the billing provider as seen by the services.
type BillingGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*BillingSubscription, error)
	// ParseEvent verifies the signature and decodes the payload. It returns
	// ErrInvalidSignature when verification fails.
	ParseEvent(payload []byte, signature string) (BillingEvent, error)
}

// LedgerSync mirrors billing events into subscription records.
type LedgerSync interface {
	Apply(ctx context.Context, event BillingEvent) error
}

// BillingService hands out the URL a user should visit to subscribe or manage billing.
type BillingService interface {
	ManageURL(ctx context.Context, user *AuthUser) (string, error)
}
