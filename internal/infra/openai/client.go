// Package openai adapts the OpenAI API to the chat and image provider interfaces.
package openai

import (
	"context"
	"fmt"

	"magician-server/internal/domain"

	goopenai "github.com/sashabaranov/go-openai"
)

// Client serves both chat completions and image generation.
type Client struct {
	api       *goopenai.Client
	chatModel string
}

// NewClient creates a provider bound to apiKey. chatModel defaults to gpt-3.5-turbo.
func NewClient(apiKey, chatModel string) *Client {
	if chatModel == "" {
		chatModel = goopenai.GPT3Dot5Turbo
	}
	return &Client{
		api:       goopenai.NewClient(apiKey),
		chatModel: chatModel,
	}
}

// NewClientWithConfig is used by tests to point the client at a local server.
func NewClientWithConfig(cfg goopenai.ClientConfig, chatModel string) *Client {
	c := NewClient("", chatModel)
	c.api = goopenai.NewClientWithConfig(cfg)
	return c
}

func (c *Client) Name() string { return "OpenAI" }

// Complete sends the conversation as is and returns the first choice.
func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage) (*domain.ChatMessage, error) {
	req := goopenai.ChatCompletionRequest{
		Model:    c.chatModel,
		Messages: make([]goopenai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, goopenai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat completion: %w: no choices", domain.ErrMalformedProviderData)
	}

	msg := resp.Choices[0].Message
	return &domain.ChatMessage{Role: msg.Role, Content: msg.Content}, nil
}

// GenerateImages asks for amount images of the given size and returns their URLs.
func (c *Client) GenerateImages(ctx context.Context, prompt string, amount int, resolution string) ([]domain.ImageResult, error) {
	resp, err := c.api.CreateImage(ctx, goopenai.ImageRequest{
		Prompt:         prompt,
		N:              amount,
		Size:           resolution,
		ResponseFormat: goopenai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("openai create image: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai create image: %w: no images", domain.ErrMalformedProviderData)
	}

	out := make([]domain.ImageResult, 0, len(resp.Data))
	for _, img := range resp.Data {
		out = append(out, domain.ImageResult{URL: img.URL})
	}
	return out, nil
}
