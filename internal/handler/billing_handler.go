package handler

import (
	"net/http"

	"magician-server/internal/domain"
)

// BillingHandler serves the upgrade / manage subscription button.
type BillingHandler struct {
	billingService domain.BillingService
	usageService   domain.EntitlementGate
	logger         domain.Logger
}

func NewBillingHandler(billingService domain.BillingService, usageService domain.EntitlementGate, logger domain.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		usageService:   usageService,
		logger:         logger,
	}
}

// Manage handles GET /stripe. The dashboard redirects to the returned url.
func (h *BillingHandler) Manage(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	url, err := h.billingService.ManageURL(r.Context(), user)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Usage handles GET /usage for the free generations counter.
func (h *BillingHandler) Usage(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	summary, err := h.usageService.Summary(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to load usage summary", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Internal Error")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
