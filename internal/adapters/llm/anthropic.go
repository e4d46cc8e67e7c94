package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"newspulse/internal/ports"
)

// AnthropicClient implements ports.TextModel on the Anthropic Messages API.
// It does not implement ports.Embedder: Anthropic exposes no embeddings
// endpoint, so deployments using it still pair with an OpenAI embedder.
type AnthropicClient struct {
	client *anthropic.Client
	model  anthropic.Model
	logger ports.Logger
}

// NewAnthropicClient creates an Anthropic-backed text model.
func NewAnthropicClient(apiKey string, logger ports.Logger) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required: %w", ports.ErrConfigurationError)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for Anthropic client")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{
		client: &client,
		model:  anthropic.ModelClaude3_5HaikuLatest,
		logger: logger,
	}, nil
}

func (c *AnthropicClient) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w: %v", ports.ErrUnavailable, err)
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == "" {
		return "", fmt.Errorf("no response from anthropic: %w", ports.ErrEmptyCompletion)
	}
	c.logger.Debug(ctx, "Anthropic completion received", map[string]interface{}{
		"model":  c.model,
		"tokens": resp.Usage.OutputTokens,
	})
	return resp.Content[0].Text, nil
}

// NormalizeStyle rewrites the text in a neutral editorial style.
func (c *AnthropicClient) NormalizeStyle(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, normalizePrompt, text)
}

// ExtractTags classifies the text into industry sector tags.
func (c *AnthropicClient) ExtractTags(ctx context.Context, text string) ([]string, error) {
	reply, err := c.complete(ctx, taggerPrompt, text)
	if err != nil {
		return nil, err
	}
	return parseTags(reply), nil
}

// ClassifyImpact estimates the market impact of the text.
func (c *AnthropicClient) ClassifyImpact(ctx context.Context, text string) (ports.MarketImpact, error) {
	reply, err := c.complete(ctx, impactPrompt, text)
	if err != nil {
		return ports.MarketImpact{}, err
	}
	return parseImpact(reply)
}

// IsSameEvent reports whether two texts describe the same underlying event.
func (c *AnthropicClient) IsSameEvent(ctx context.Context, a, b string) (bool, error) {
	reply, err := c.complete(ctx, comparePrompt, fmt.Sprintf("Text A:\n%s\n\nText B:\n%s", a, b))
	if err != nil {
		return false, err
	}
	return parseSameEvent(reply), nil
}

// MergeSummary folds an update into an existing event summary.
func (c *AnthropicClient) MergeSummary(ctx context.Context, existing, update string) (string, error) {
	return c.complete(ctx, mergePrompt, fmt.Sprintf("Existing summary:\n%s\n\nNew text:\n%s", existing, update))
}
