package handler

import (
	"net/http"

	"magician-server/internal/domain"
)

// GenerationHandler exposes the five generation tools.
type GenerationHandler struct {
	service domain.GenerationService
	logger  domain.Logger
}

func NewGenerationHandler(service domain.GenerationService, logger domain.Logger) *GenerationHandler {
	return &GenerationHandler{
		service: service,
		logger:  logger,
	}
}

// Conversation handles POST /conversation and returns the assistant message.
func (h *GenerationHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req domain.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	reply, err := h.service.Converse(r.Context(), user.ID, req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// Code handles POST /code and returns the assistant message in markdown.
func (h *GenerationHandler) Code(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req domain.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	reply, err := h.service.GenerateCode(r.Context(), user.ID, req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// Image handles POST /image and returns a list of {url}.
func (h *GenerationHandler) Image(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req domain.ImageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	images, err := h.service.GenerateImage(r.Context(), user.ID, req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// Music handles POST /music and returns {audio, spectrogram}.
func (h *GenerationHandler) Music(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req domain.PromptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	music, err := h.service.GenerateMusic(r.Context(), user.ID, req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, music)
}

// Video handles POST /video and returns the list of video URLs.
func (h *GenerationHandler) Video(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req domain.PromptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	videos, err := h.service.GenerateVideo(r.Context(), user.ID, req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}
