// Package vertex serves chat completions from Gemini on Vertex AI.
package vertex

import (
	"context"
	"fmt"
	"strings"

	"magician-server/internal/domain"

	"cloud.google.com/go/vertexai/genai"
)

type Client struct {
	genaiClient *genai.Client
	model       string
}

// NewClient creates a Vertex AI client using application default credentials.
func NewClient(ctx context.Context, projectID, location, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex ai client: %w", err)
	}
	return &Client{genaiClient: client, model: model}, nil
}

func (c *Client) Name() string { return "Vertex AI" }

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	return c.genaiClient.Close()
}

// Complete replays the conversation as chat history and sends the last user turn.
// System messages become the model's system instruction.
func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage) (*domain.ChatMessage, error) {
	system, history, last, err := splitConversation(messages)
	if err != nil {
		return nil, err
	}

	model := c.genaiClient.GenerativeModel(c.model)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	chat := model.StartChat()
	chat.History = history

	resp, err := chat.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, fmt.Errorf("gemini call failed: %w", err)
	}

	answer, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	return &domain.ChatMessage{Role: domain.RoleAssistant, Content: answer}, nil
}

// splitConversation maps our roles onto Gemini's. The final message must come from the user.
func splitConversation(messages []domain.ChatMessage) (string, []*genai.Content, string, error) {
	var system []string
	var turns []domain.ChatMessage
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != domain.RoleUser {
		return "", nil, "", fmt.Errorf("gemini: %w: conversation must end with a user message", domain.ErrMalformedProviderData)
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == domain.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return strings.Join(system, "\n\n"), history, turns[len(turns)-1].Content, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: %w: empty response from model", domain.ErrMalformedProviderData)
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), nil
}
