package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"newspulse/internal/ports"
)

// OpenAIClient implements ports.TextModel and ports.Embedder on the OpenAI
// API. Chat completions drive the text pipeline; the embeddings endpoint
// backs the vector store.
type OpenAIClient struct {
	client         *openai.Client
	model          openai.ChatModel
	embeddingModel openai.EmbeddingModel
	logger         ports.Logger
}

// NewOpenAIClient creates an OpenAI-backed text model and embedder.
func NewOpenAIClient(apiKey string, logger ports.Logger) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required: %w", ports.ErrConfigurationError)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for OpenAI client")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{
		client:         &client,
		model:          openai.ChatModelGPT4oMini,
		embeddingModel: openai.EmbeddingModelTextEmbedding3Small,
		logger:         logger,
	}, nil
}

func (c *OpenAIClient) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w: %v", ports.ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response from openai: %w", ports.ErrEmptyCompletion)
	}
	c.logger.Debug(ctx, "OpenAI completion received", map[string]interface{}{
		"model":  c.model,
		"tokens": resp.Usage.TotalTokens,
	})
	return resp.Choices[0].Message.Content, nil
}

// NormalizeStyle rewrites the text in a neutral editorial style.
func (c *OpenAIClient) NormalizeStyle(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, normalizePrompt, text)
}

// ExtractTags classifies the text into industry sector tags.
func (c *OpenAIClient) ExtractTags(ctx context.Context, text string) ([]string, error) {
	reply, err := c.complete(ctx, taggerPrompt, text)
	if err != nil {
		return nil, err
	}
	return parseTags(reply), nil
}

// ClassifyImpact estimates the market impact of the text.
func (c *OpenAIClient) ClassifyImpact(ctx context.Context, text string) (ports.MarketImpact, error) {
	reply, err := c.complete(ctx, impactPrompt, text)
	if err != nil {
		return ports.MarketImpact{}, err
	}
	return parseImpact(reply)
}

// IsSameEvent reports whether two texts describe the same underlying event.
func (c *OpenAIClient) IsSameEvent(ctx context.Context, a, b string) (bool, error) {
	reply, err := c.complete(ctx, comparePrompt, fmt.Sprintf("Text A:\n%s\n\nText B:\n%s", a, b))
	if err != nil {
		return false, err
	}
	return parseSameEvent(reply), nil
}

// MergeSummary folds an update into an existing event summary.
func (c *OpenAIClient) MergeSummary(ctx context.Context, existing, update string) (string, error) {
	return c.complete(ctx, mergePrompt, fmt.Sprintf("Existing summary:\n%s\n\nNew text:\n%s", existing, update))
}

// Embed returns one embedding vector per input text, in input order.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to embed: %w", ports.ErrInvalidRequest)
	}

	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: c.embeddingModel,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings error: %w: %v", ports.ErrUnavailable, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d texts: %w", len(resp.Data), len(texts), ports.ErrUnknown)
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}
