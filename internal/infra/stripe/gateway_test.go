package stripe

import (
	"errors"
	"testing"
	"time"

	"magician-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

const testSecret = "whsec_test_secret"

func signedPayload(t *testing.T, payload string) ([]byte, string) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestParseEvent_CheckoutCompleted(t *testing.T) {
	g := NewGateway("sk_test", testSecret, "")
	payload, sig := signedPayload(t, `{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "object": "checkout.session", "subscription": "sub_1", "metadata": {"userId": "user_1"}}}
	}`)

	event, err := g.ParseEvent(payload, sig)
	require.NoError(t, err)

	started, ok := event.(domain.SubscriptionStarted)
	require.True(t, ok, "expected SubscriptionStarted, got %T", event)
	assert.Equal(t, "user_1", started.UserID)
	assert.Equal(t, "sub_1", started.SubscriptionID)
	assert.Equal(t, EventCheckoutSessionCompleted, started.EventType())
}

func TestParseEvent_CheckoutCompletedWithoutUser(t *testing.T) {
	g := NewGateway("sk_test", testSecret, "")
	payload, sig := signedPayload(t, `{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "object": "checkout.session", "subscription": "sub_1"}}
	}`)

	event, err := g.ParseEvent(payload, sig)
	require.NoError(t, err)
	assert.Equal(t, "", event.(domain.SubscriptionStarted).UserID)
}

func TestParseEvent_PaymentSucceeded(t *testing.T) {
	g := NewGateway("sk_test", testSecret, "")
	payload, sig := signedPayload(t, `{
		"id": "evt_2",
		"object": "event",
		"type": "invoice.payment_succeeded",
		"data": {"object": {"id": "in_1", "object": "invoice", "subscription": "sub_9"}}
	}`)

	event, err := g.ParseEvent(payload, sig)
	require.NoError(t, err)

	paid, ok := event.(domain.PaymentSucceeded)
	require.True(t, ok, "expected PaymentSucceeded, got %T", event)
	assert.Equal(t, "sub_9", paid.SubscriptionID)
}

func TestParseEvent_Unhandled(t *testing.T) {
	g := NewGateway("sk_test", testSecret, "")
	payload, sig := signedPayload(t, `{
		"id": "evt_3",
		"object": "event",
		"type": "customer.created",
		"data": {"object": {"id": "cus_1", "object": "customer"}}
	}`)

	event, err := g.ParseEvent(payload, sig)
	require.NoError(t, err)
	assert.Equal(t, domain.UnhandledEvent{Type: "customer.created"}, event)
}

func TestParseEvent_BadSignature(t *testing.T) {
	g := NewGateway("sk_test", testSecret, "")
	payload, _ := signedPayload(t, `{"id":"evt_4","object":"event","type":"customer.created","data":{"object":{}}}`)

	_, err := g.ParseEvent(payload, "t=1,v1=deadbeef")
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))

	_, err = g.ParseEvent(payload, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))
}

func TestCheckoutParams_InlinePlan(t *testing.T) {
	params := checkoutParams(domain.CheckoutRequest{
		UserID:     "user_1",
		Email:      "a@b.c",
		SuccessURL: "https://app/settings",
		CancelURL:  "https://app/settings",
	}, "")

	require.Len(t, params.LineItems, 1)
	item := params.LineItems[0]
	assert.Nil(t, item.Price)
	require.NotNil(t, item.PriceData)
	assert.Equal(t, "gbp", *item.PriceData.Currency)
	assert.Equal(t, int64(999), *item.PriceData.UnitAmount)
	assert.Equal(t, "month", *item.PriceData.Recurring.Interval)
	assert.Equal(t, "Magician Plus", *item.PriceData.ProductData.Name)
	assert.Equal(t, "subscription", *params.Mode)
	assert.Equal(t, "a@b.c", *params.CustomerEmail)
	assert.Equal(t, "user_1", params.Metadata["userId"])
}

func TestCheckoutParams_ConfiguredPrice(t *testing.T) {
	params := checkoutParams(domain.CheckoutRequest{UserID: "user_1"}, "price_123")

	assert.Equal(t, "price_123", *params.LineItems[0].Price)
	assert.Nil(t, params.LineItems[0].PriceData)
	assert.Nil(t, params.CustomerEmail)
}

func TestToBillingSubscription(t *testing.T) {
	end := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	sub := &stripe.Subscription{
		ID:               "sub_1",
		Customer:         &stripe.Customer{ID: "cus_1"},
		CurrentPeriodEnd: end.Unix(),
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{Price: &stripe.Price{ID: "price_1"}}},
		},
	}

	out, err := toBillingSubscription(sub)
	require.NoError(t, err)
	assert.Equal(t, "cus_1", out.CustomerID)
	assert.Equal(t, "price_1", out.PriceID)
	assert.True(t, out.CurrentPeriodEnd.Equal(end))

	_, err = toBillingSubscription(&stripe.Subscription{ID: "sub_2"})
	assert.ErrorIs(t, err, domain.ErrMalformedProviderData)
}
