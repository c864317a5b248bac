// Package stripe adapts Stripe checkout, billing portal and webhooks to the billing gateway.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"magician-server/internal/domain"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Stripe event types mirrored into the subscription ledger.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventInvoicePaymentSucceeded  = "invoice.payment_succeeded"
)

// Inline plan offered when no price id is configured.
const (
	planName        = "Magician Plus"
	planDescription = "Unlimited AI Generations"
	planCurrency    = "gbp"
	planUnitAmount  = 999
)

const metadataUserID = "userId"

type Gateway struct {
	api           *client.API
	webhookSecret string
	priceID       string
}

// NewGateway creates a gateway. When priceID is empty checkout uses the inline monthly plan.
func NewGateway(secretKey, webhookSecret, priceID string) *Gateway {
	return &Gateway{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
		priceID:       priceID,
	}
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	params := checkoutParams(req, g.priceID)
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe checkout session: %w", err)
	}
	return sess.URL, nil
}

func (g *Gateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := g.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe billing portal session: %w", err)
	}
	return sess.URL, nil
}

func (g *Gateway) GetSubscription(ctx context.Context, subscriptionID string) (*domain.BillingSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := g.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe retrieve subscription %s: %w", subscriptionID, err)
	}
	return toBillingSubscription(sub)
}

// ParseEvent verifies the Stripe-Signature header and maps the event to a ledger variant.
func (g *Gateway) ParseEvent(payload []byte, signature string) (domain.BillingEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	return toBillingEvent(event)
}

func checkoutParams(req domain.CheckoutRequest, priceID string) *stripe.CheckoutSessionParams {
	item := &stripe.CheckoutSessionLineItemParams{Quantity: stripe.Int64(1)}
	if priceID != "" {
		item.Price = stripe.String(priceID)
	} else {
		item.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency: stripe.String(planCurrency),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name:        stripe.String(planName),
				Description: stripe.String(planDescription),
			},
			UnitAmount: stripe.Int64(planUnitAmount),
			Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
				Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
			},
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionAuto)),
		LineItems:                []*stripe.CheckoutSessionLineItemParams{item},
		SuccessURL:               stripe.String(req.SuccessURL),
		CancelURL:                stripe.String(req.CancelURL),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.AddMetadata(metadataUserID, req.UserID)
	return params
}

func toBillingSubscription(sub *stripe.Subscription) (*domain.BillingSubscription, error) {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return nil, fmt.Errorf("stripe subscription without price: %w", domain.ErrMalformedProviderData)
	}
	out := &domain.BillingSubscription{
		ID:               sub.ID,
		PriceID:          sub.Items.Data[0].Price.ID,
		CurrentPeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	return out, nil
}

func toBillingEvent(event stripe.Event) (domain.BillingEvent, error) {
	eventType := string(event.Type)
	if event.Data == nil {
		return domain.UnhandledEvent{Type: eventType}, nil
	}

	switch eventType {
	case EventCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", domain.ErrMalformedProviderData)
		}
		started := domain.SubscriptionStarted{Type: eventType, UserID: sess.Metadata[metadataUserID]}
		if sess.Subscription != nil {
			started.SubscriptionID = sess.Subscription.ID
		}
		return started, nil
	case EventInvoicePaymentSucceeded:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("decode invoice: %w", domain.ErrMalformedProviderData)
		}
		paid := domain.PaymentSucceeded{Type: eventType}
		if inv.Subscription != nil {
			paid.SubscriptionID = inv.Subscription.ID
		}
		return paid, nil
	default:
		return domain.UnhandledEvent{Type: eventType}, nil
	}
}
