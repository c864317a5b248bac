package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"magician-server/internal/domain"
	apperrors "magician-server/pkg/errors"
)

const defaultProviderTimeout = 60 * time.Second

// GenerationService sends tool requests through the entitlement gate to their provider.
// A nil provider means its credentials are not configured.
type GenerationService struct {
	gate    domain.EntitlementGate
	chat    domain.ChatProvider
	images  domain.ImageProvider
	media   domain.MediaProvider
	logger  domain.Logger
	timeout time.Duration
}

func NewGenerationService(
	gate domain.EntitlementGate,
	chat domain.ChatProvider,
	images domain.ImageProvider,
	media domain.MediaProvider,
	logger domain.Logger,
	timeout time.Duration,
) *GenerationService {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &GenerationService{
		gate:    gate,
		chat:    chat,
		images:  images,
		media:   media,
		logger:  logger,
		timeout: timeout,
	}
}

// generationJob describes one tool invocation.
type generationJob[T any] struct {
	tool       domain.Tool
	userID     string
	configured bool
	// provider names the missing credential in the configuration error.
	provider string
	validate func() error
	call     func(ctx context.Context) (T, error)
}

// dispatch runs the steps shared by every tool in a fixed order:
// identity, provider configuration, payload, entitlement, provider call, usage.
// Nothing is recorded unless the provider call succeeds.
func dispatch[T any](ctx context.Context, s *GenerationService, job generationJob[T]) (T, error) {
	var zero T
	log := s.logger.With("tool", string(job.tool), "user_id", job.userID)

	if job.userID == "" {
		return zero, apperrors.NewUnauthorizedError("Unauthorized")
	}
	if !job.configured {
		return zero, apperrors.NewConfigurationError(job.provider+" API Key not configured.", domain.ErrProviderNotConfigured)
	}
	if err := job.validate(); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return zero, apperrors.NewValidationError(ve.Message, ve.Field)
		}
		return zero, apperrors.NewValidationError(err.Error())
	}

	entitlement, err := s.gate.Check(ctx, job.userID)
	if err != nil {
		log.Error("Entitlement check failed", err)
		return zero, apperrors.NewInternalError("Internal Error", err)
	}
	if !entitlement.Allowed() {
		log.Info("Free generations exhausted")
		return zero, apperrors.NewEntitlementError(domain.ErrEntitlementExhausted)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	result, err := job.call(callCtx)
	if err != nil {
		log.Error("Provider call failed", err, "provider", job.provider, "duration_ms", time.Since(started).Milliseconds())
		return zero, apperrors.NewUpstreamError("Could not generate "+string(job.tool), err)
	}

	if !entitlement.Subscribed {
		if err := s.gate.RecordUsage(ctx, job.userID); err != nil {
			// The user already got their result; the count is best effort.
			log.Error("Failed to record usage", err)
		}
	}

	log.Info("Generation completed", "provider", job.provider, "subscribed", entitlement.Subscribed, "duration_ms", time.Since(started).Milliseconds())
	return result, nil
}

func (s *GenerationService) chatProviderName() string {
	if s.chat == nil {
		return "OpenAI"
	}
	return s.chat.Name()
}

func (s *GenerationService) Converse(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatMessage, error) {
	return dispatch(ctx, s, generationJob[*domain.ChatMessage]{
		tool:       domain.ToolConversation,
		userID:     userID,
		configured: s.chat != nil,
		provider:   s.chatProviderName(),
		validate:   req.Validate,
		call: func(ctx context.Context) (*domain.ChatMessage, error) {
			return s.chat.Complete(ctx, req.Messages)
		},
	})
}

// GenerateCode is Converse with the code instruction placed before the user's messages.
func (s *GenerationService) GenerateCode(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatMessage, error) {
	return dispatch(ctx, s, generationJob[*domain.ChatMessage]{
		tool:       domain.ToolCode,
		userID:     userID,
		configured: s.chat != nil,
		provider:   s.chatProviderName(),
		validate:   req.Validate,
		call: func(ctx context.Context) (*domain.ChatMessage, error) {
			messages := make([]domain.ChatMessage, 0, len(req.Messages)+1)
			messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: domain.CodeInstruction})
			messages = append(messages, req.Messages...)
			return s.chat.Complete(ctx, messages)
		},
	})
}

func (s *GenerationService) GenerateImage(ctx context.Context, userID string, req domain.ImageRequest) ([]domain.ImageResult, error) {
	return dispatch(ctx, s, generationJob[[]domain.ImageResult]{
		tool:       domain.ToolImage,
		userID:     userID,
		configured: s.images != nil,
		provider:   "OpenAI",
		validate:   req.Validate,
		call: func(ctx context.Context) ([]domain.ImageResult, error) {
			return s.images.GenerateImages(ctx, req.Prompt, req.Count(), strings.TrimSpace(req.Resolution))
		},
	})
}

func (s *GenerationService) GenerateMusic(ctx context.Context, userID string, req domain.PromptRequest) (*domain.MusicResult, error) {
	return dispatch(ctx, s, generationJob[*domain.MusicResult]{
		tool:       domain.ToolMusic,
		userID:     userID,
		configured: s.media != nil,
		provider:   "Replicate",
		validate:   req.Validate,
		call: func(ctx context.Context) (*domain.MusicResult, error) {
			return s.media.GenerateMusic(ctx, req.Prompt)
		},
	})
}

func (s *GenerationService) GenerateVideo(ctx context.Context, userID string, req domain.PromptRequest) ([]string, error) {
	return dispatch(ctx, s, generationJob[[]string]{
		tool:       domain.ToolVideo,
		userID:     userID,
		configured: s.media != nil,
		provider:   "Replicate",
		validate:   req.Validate,
		call: func(ctx context.Context) ([]string, error) {
			return s.media.GenerateVideo(ctx, req.Prompt)
		},
	})
}
