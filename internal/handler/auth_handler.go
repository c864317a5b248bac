package handler

import (
	"net/http"

	"magician-server/internal/domain"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	usageService domain.EntitlementGate
	logger       domain.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(usageService domain.EntitlementGate, logger domain.Logger) *AuthHandler {
	return &AuthHandler{
		usageService: usageService,
		logger:       logger,
	}
}

type profileResponse struct {
	*domain.AuthUser
	Usage *domain.UsageSummary `json:"usage"`
}

// GetProfile returns the current user together with their generation counter.
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	summary, err := h.usageService.Summary(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to load usage summary", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Internal Error")
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{AuthUser: user, Usage: summary})
}

// ValidateToken lets the frontend check a session without side effects.
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	writeJSON(w, http.StatusOK, user)
}
