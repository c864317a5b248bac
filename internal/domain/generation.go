package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Tool identifies one of the generation tools offered on the dashboard.
type Tool string

const (
	ToolConversation Tool = "conversation"
	ToolCode         Tool = "code"
	ToolImage        Tool = "image"
	ToolMusic        Tool = "music"
	ToolVideo        Tool = "video"
)

// Chat roles accepted from clients.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CodeInstruction is prepended to every code generation conversation.
const CodeInstruction = "You are a code generator. You must answer only in markdown code snippets. Use code comments for explanations."

// Image generation limits offered by the dashboard.
const (
	MaxImageAmount = 5
)

var imageResolutions = map[string]bool{
	"256x256":   true,
	"512x512":   true,
	"1024x1024": true,
}

// ChatMessage is a single conversation turn, shared by request and response.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload of the conversation and code tools.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// Validate checks that there is at least one well formed message.
func (r *ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return &ValidationError{Field: "messages", Message: "Messages are required"}
	}
	for i, m := range r.Messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return &ValidationError{Field: fmt.Sprintf("messages[%d].role", i), Message: "Role must be system, user or assistant"}
		}
		if strings.TrimSpace(m.Content) == "" {
			return &ValidationError{Field: fmt.Sprintf("messages[%d].content", i), Message: "Content is required"}
		}
	}
	return nil
}

// ImageRequest is the payload of the image tool. Amount and resolution arrive as strings
// because the dashboard form submits select values.
type ImageRequest struct {
	Prompt     string `json:"prompt"`
	Amount     string `json:"amount"`
	Resolution string `json:"resolution"`
}

// Validate checks prompt, amount and resolution in that order.
func (r *ImageRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return &ValidationError{Field: "prompt", Message: "Prompt is required"}
	}
	if strings.TrimSpace(r.Amount) == "" {
		return &ValidationError{Field: "amount", Message: "Amount is required"}
	}
	if strings.TrimSpace(r.Resolution) == "" {
		return &ValidationError{Field: "resolution", Message: "Resolution is required"}
	}
	n, err := strconv.Atoi(strings.TrimSpace(r.Amount))
	if err != nil || n < 1 || n > MaxImageAmount {
		return &ValidationError{Field: "amount", Message: fmt.Sprintf("Amount must be a number between 1 and %d", MaxImageAmount)}
	}
	if !imageResolutions[strings.TrimSpace(r.Resolution)] {
		return &ValidationError{Field: "resolution", Message: "Resolution must be 256x256, 512x512 or 1024x1024"}
	}
	return nil
}

// Count returns the parsed amount. Only meaningful after Validate.
func (r *ImageRequest) Count() int {
	n, _ := strconv.Atoi(strings.TrimSpace(r.Amount))
	return n
}

// PromptRequest is the payload of the music and video tools.
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

func (r *PromptRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return &ValidationError{Field: "prompt", Message: "Prompt is required"}
	}
	return nil
}

// ImageResult is one generated image.
type ImageResult struct {
	URL string `json:"url"`
}

// MusicResult is the output of the music model.
type MusicResult struct {
	Audio       string `json:"audio"`
	Spectrogram string `json:"spectrogram,omitempty"`
}

// ChatProvider completes a conversation with an external language model.
type ChatProvider interface {
	Name() string
	Complete(ctx context.Context, messages []ChatMessage) (*ChatMessage, error)
}

// ImageProvider generates images from a prompt.
type ImageProvider interface {
	Name() string
	GenerateImages(ctx context.Context, prompt string, amount int, resolution string) ([]ImageResult, error)
}

// MediaProvider generates audio and video from a prompt.
type MediaProvider interface {
	Name() string
	GenerateMusic(ctx context.Context, prompt string) (*MusicResult, error)
	GenerateVideo(ctx context.Context, prompt string) ([]string, error)
}

// GenerationService runs a tool request through the entitlement gate and its provider.
type GenerationService interface {
	Converse(ctx context.Context, userID string, req ChatRequest) (*ChatMessage, error)
	GenerateCode(ctx context.Context, userID string, req ChatRequest) (*ChatMessage, error)
	GenerateImage(ctx context.Context, userID string, req ImageRequest) ([]ImageResult, error)
	GenerateMusic(ctx context.Context, userID string, req PromptRequest) (*MusicResult, error)
	GenerateVideo(ctx context.Context, userID string, req PromptRequest) ([]string, error)
}
