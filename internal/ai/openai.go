package ai

import (
	_ "embed"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

//go:embed prompts/tags.txt
var tagsPrompt string

//go:embed prompts/caption.txt
var captionPrompt string

// OpenAIProvider generates tags and captions through the OpenAI vision chat
// API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = openai.ChatModelGPT4_1Mini
	}
	return &OpenAIProvider{
		client: &client,
		model:  model,
	}
}

func (p *OpenAIProvider) Name() string {
	return p.model
}

// tagsResponse is the JSON shape requested from the model.
type tagsResponse struct {
	Tags []string `json:"tags"`
}

// Tags produces a comma-separated tag list for the image.
func (p *OpenAIProvider) Tags(ctx context.Context, imageData []byte) (string, error) {
	const maxRetries = 3

	var lastErr error
	for range maxRetries {
		content, err := p.complete(ctx, tagsPrompt, imageData, true)
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
func (p *OpenAIProvider) Caption(ctx context.Context, imageData []byte) (string, error) {
	content, err := p.complete(ctx, captionPrompt, imageData, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (p *OpenAIProvider) complete(ctx context.Context, systemPrompt string, imageData []byte, jsonMode bool) (string, error) {
	// Resize to max 800px to save tokens.
	resized, err := ResizeImage(imageData, 800)
	if err != nil {
		return "", fmt.Errorf("failed to resize image: %w", err)
	}
	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(resized)

	params := openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
							openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
								URL:    imageURL,
								Detail: "low",
							}),
						},
					},
				},
			},
		},
		MaxTokens: openai.Int(500),
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}
