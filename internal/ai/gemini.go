package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider generates tags and captions through the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Name() string {
	return p.model
}

// Tags produces a comma-separated tag list for the image.
func (p *GeminiProvider) Tags(ctx context.Context, imageData []byte) (string, error) {
	const maxRetries = 3

	var lastErr error
	for range maxRetries {
		content, err := p.generate(ctx, tagsPrompt, imageData, true)
		if err != nil {
			return "", err
		}
		var parsed tagsResponse
		if err := json.Unmarshal([]byte(content), &parsed); err != nil {
			lastErr = fmt.Errorf("invalid tags response %q: %w", content, err)
			continue
		}
		return strings.Join(parsed.Tags, ", "), nil
	}
	return "", lastErr
}

// Caption produces a detailed caption for the image.
func (p *GeminiProvider) Caption(ctx context.Context, imageData []byte) (string, error) {
	content, err := p.generate(ctx, captionPrompt, imageData, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (p *GeminiProvider) generate(ctx context.Context, prompt string, imageData []byte, jsonMode bool) (string, error) {
	resized, err := ResizeImage(imageData, 800)
	if err != nil {
		return "", fmt.Errorf("failed to resize image: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{InlineData: &genai.Blob{Data: resized, MIMEType: "image/jpeg"}},
			},
		},
	}

	config := &genai.GenerateContentConfig{}
	if jsonMode {
		config.ResponseMIMEType = "application/json"
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	content := result.Text()
	if content == "" {
		return "", errors.New("no response from Gemini")
	}
	return content, nil
}
