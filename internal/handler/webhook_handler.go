package handler

import (
	"errors"
	"io"
	"net/http"

	"magician-server/internal/domain"
	apperrors "magician-server/pkg/errors"
)

const maxWebhookBodyBytes = int64(65536)

// WebhookHandler receives Stripe events. It is public; the signature is the authentication.
type WebhookHandler struct {
	gateway domain.BillingGateway
	ledger  domain.LedgerSync
	logger  domain.Logger
}

func NewWebhookHandler(gateway domain.BillingGateway, ledger domain.LedgerSync, logger domain.Logger) *WebhookHandler {
	return &WebhookHandler{
		gateway: gateway,
		ledger:  ledger,
		logger:  logger,
	}
}

// Handle answers 200 with an empty body once the event is applied. Any non 2xx makes
// Stripe redeliver, which the ledger tolerates.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.gateway == nil {
		h.logger.Warn("Webhook received but Stripe is not configured")
		writeError(w, http.StatusInternalServerError, "Webhook not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		h.logger.Warn("Failed to read webhook body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	event, err := h.gateway.ParseEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("Webhook rejected", "error", err)
		if errors.Is(err, domain.ErrInvalidSignature) {
			writeError(w, http.StatusBadRequest, "Webhook Error: signature verification failed")
			return
		}
		writeError(w, http.StatusBadRequest, "Webhook Error: invalid payload")
		return
	}

	log := h.logger.With("event_type", event.EventType(), "request_id", GetRequestIDFromContext(r))
	if err := h.ledger.Apply(r.Context(), event); err != nil {
		switch {
		case errors.Is(err, domain.ErrSubscriptionNotFound):
			writeError(w, http.StatusBadRequest, "Subscription not found")
		case apperrors.IsType(err, apperrors.ErrorTypeValidation):
			log.Warn("Webhook event rejected", "error", err)
			writeError(w, http.StatusBadRequest, apperrors.PublicMessage(err))
		default:
			writeAppError(w, log, err)
		}
		return
	}

	log.Debug("Webhook event applied")
	w.WriteHeader(http.StatusOK)
}
