// Package replicate runs the music and video models hosted on Replicate.
package replicate

import (
	"context"
	"fmt"

	"magician-server/internal/domain"

	r8 "github.com/replicate/replicate-go"
)

// Client generates music with a riffusion model and video with a zeroscope model.
type Client struct {
	api        *r8.Client
	musicModel string
	videoModel string
}

// NewClient creates a Replicate client. Models are "owner/name:version" identifiers.
func NewClient(token, musicModel, videoModel string) (*Client, error) {
	api, err := r8.NewClient(r8.WithToken(token))
	if err != nil {
		return nil, fmt.Errorf("failed to create replicate client: %w", err)
	}
	return &Client{api: api, musicModel: musicModel, videoModel: videoModel}, nil
}

func (c *Client) Name() string { return "Replicate" }

// GenerateMusic runs the music model. Riffusion reads its prompt from prompt_a.
func (c *Client) GenerateMusic(ctx context.Context, prompt string) (*domain.MusicResult, error) {
	output, err := c.api.Run(ctx, c.musicModel, r8.PredictionInput{"prompt_a": prompt}, nil)
	if err != nil {
		return nil, fmt.Errorf("replicate music prediction: %w", err)
	}
	return parseMusicOutput(output)
}

// GenerateVideo runs the video model and returns the produced file URLs.
func (c *Client) GenerateVideo(ctx context.Context, prompt string) ([]string, error) {
	output, err := c.api.Run(ctx, c.videoModel, r8.PredictionInput{"prompt": prompt}, nil)
	if err != nil {
		return nil, fmt.Errorf("replicate video prediction: %w", err)
	}
	return parseVideoOutput(output)
}

func parseMusicOutput(output r8.PredictionOutput) (*domain.MusicResult, error) {
	fields, ok := output.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("music output %T: %w", output, domain.ErrMalformedProviderData)
	}
	audio, _ := fields["audio"].(string)
	if audio == "" {
		return nil, fmt.Errorf("music output has no audio: %w", domain.ErrMalformedProviderData)
	}
	spectrogram, _ := fields["spectrogram"].(string)
	return &domain.MusicResult{Audio: audio, Spectrogram: spectrogram}, nil
}

func parseVideoOutput(output r8.PredictionOutput) ([]string, error) {
	switch v := output.(type) {
	case string:
		return []string{v}, nil
	case []string:
		if len(v) == 0 {
			break
		}
		return v, nil
	case []interface{}:
		urls := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("video output item %T: %w", item, domain.ErrMalformedProviderData)
			}
			urls = append(urls, s)
		}
		if len(urls) > 0 {
			return urls, nil
		}
	}
	return nil, fmt.Errorf("video output %T: %w", output, domain.ErrMalformedProviderData)
}
