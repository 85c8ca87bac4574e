package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

// AnthropicClient translates through the Anthropic Messages API.
type AnthropicClient struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int64

	HTTPClient *http.Client
}

// Translate asks Claude for one translation per text at temperature 0.
func (c *AnthropicClient) Translate(ctx context.Context, texts []string, src, tgt occupation.Language) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.APIKey == "" || c.Model == "" {
		return nil, fmt.Errorf("anthropic: API key and model required")
	}
	user, err := translationPrompt(texts)
	if err != nil {
		return nil, err
	}

	opts := []option.RequestOption{option.WithAPIKey(c.APIKey), option.WithMaxRetries(0)}
	if c.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.BaseURL))
	}
	if c.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(c.HTTPClient))
	}
	client := anthropic.NewClient(opts...)

	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.Model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(0),
		System: []anthropic.TextBlockParam{
			{Text: translationSystem(src, tgt)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return parseTranslations(block.Text, len(texts))
		}
	}
	return nil, fmt.Errorf("anthropic: no text content in response")
}
