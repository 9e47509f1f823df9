// Package openaiclient adapts the OpenAI API to the embedding-provider and
// completion-model ports: dense embeddings with a fixed dimension and
// single-shot chat completions. No retries; a per-operation circuit breaker
// is the only resilience layer.
package openaiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/answerforge/rfp-engine/internal/core/domain"
	"github.com/answerforge/rfp-engine/internal/infrastructure/resilience"
)

const (
	DefaultEmbedModel = string(openai.SmallEmbedding3)
	DefaultChatModel  = "gpt-4o"

	answerTemperature = 0.3
)

type Options struct {
	APIKey     string
	BaseURL    string
	EmbedModel string
	ChatModel  string
	Timeout    time.Duration
	Guard      *resilience.Guard
}

type Client struct {
	api        *openai.Client
	embedModel string
	chatModel  string
	guard      *resilience.Guard
}

func New(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	embedModel := opts.EmbedModel
	if embedModel == "" {
		embedModel = DefaultEmbedModel
	}
	chatModel := opts.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	guard := opts.Guard
	if guard == nil {
		guard = resilience.NewGuard(resilience.Config{Enabled: false})
	}

	return &Client{
		api:        openai.NewClientWithConfig(cfg),
		embedModel: embedModel,
		chatModel:  chatModel,
		guard:      guard,
	}
}

// EmbedDense returns the dense embedding of text at the system's fixed
// dimensionality. Newlines are flattened before embedding.
func (c *Client) EmbedDense(ctx context.Context, text string) ([]float32, error) {
	text = strings.ReplaceAll(text, "\n", " ")

	var out []float32
	err := c.guard.Do(ctx, "embed", func(ctx context.Context) error {
		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:      []string{text},
			Model:      openai.EmbeddingModel(c.embedModel),
			Dimensions: domain.DenseVectorSize,
		})
		if err != nil {
			return fmt.Errorf("create embedding: %w", err)
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("empty embedding response")
		}
		out = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Complete runs a single synchronous chat completion.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var out string
	err := c.guard.Do(ctx, "complete", func(ctx context.Context) error {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.chatModel,
			Temperature: answerTemperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
		})
		if err != nil {
			return fmt.Errorf("create chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty completion response")
		}
		out = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
