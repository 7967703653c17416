// Package oracle wraps the LLM behind a narrow, fallible call: hand it a
// prompt and a target schema, get back a structured answer or an error.
// Everything above it treats the call as blocking, retryable and
// latency-bearing.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/config"
)

// PromptSpec is one oracle request. User should spell out the expected JSON
// shape; Generate unmarshals the reply into the caller's struct.
type PromptSpec struct {
	System string
	User   string
}

// Client is the single seam every deliberation component talks through.
type Client interface {
	Generate(ctx context.Context, spec PromptSpec, out any) error
}

// LLMClient talks to a chat model with bounded retries.
type LLMClient struct {
	model   model.BaseChatModel
	retries int
	backoff time.Duration
	logger  *zap.Logger
}

// New builds the oracle client for the configured provider.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*LLMClient, error) {
	var (
		chatModel model.BaseChatModel
		err       error
	)

	switch cfg.LLMProvider {
	case "openai":
		baseURL := cfg.BackendURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		maxTokens := 8192
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   baseURL,
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.Model,
			MaxTokens: &maxTokens,
		})
	case "deepseek":
		chatModel, err = deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.DeepSeekAPIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BackendURL,
			MaxTokens: 8192,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s chat model: %w", cfg.LLMProvider, err)
	}

	retries := cfg.OracleRetries
	if retries <= 0 {
		retries = 3
	}

	return &LLMClient{
		model:   chatModel,
		retries: retries,
		backoff: time.Second,
		logger:  logger,
	}, nil
}

// Generate asks the model and unmarshals its JSON reply into out. Retries up
// to the configured bound; callers that need a guaranteed answer pair it with
// a schema-valid default via GenerateOrDefault.
func (c *LLMClient) Generate(ctx context.Context, spec PromptSpec, out any) error {
	msgs := []*schema.Message{
		schema.SystemMessage(spec.System),
		schema.UserMessage(spec.User),
	}

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(c.backoff * time.Duration(attempt))
		}

		resp, err := c.model.Generate(ctx, msgs)
		if err != nil {
			lastErr = err
			c.logger.Warn("oracle call failed",
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		if err := DecodeJSON(resp.Content, out); err != nil {
			lastErr = err
			c.logger.Warn("oracle reply not decodable",
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}
		return nil
	}
	return fmt.Errorf("oracle exhausted after %d attempts: %w", c.retries, lastErr)
}

// GenerateOrDefault returns def when the oracle is exhausted, so downstream
// code always has well-typed input.
func GenerateOrDefault[T any](ctx context.Context, c Client, spec PromptSpec, def T) T {
	var out T
	if err := c.Generate(ctx, spec, &out); err != nil {
		return def
	}
	return out
}

// DecodeJSON digs the first JSON object out of a model reply. Models like to
// wrap answers in markdown fences or prose.
func DecodeJSON(content string, out any) error {
	content = strings.TrimSpace(content)
	if idx := strings.Index(content, "```json"); idx >= 0 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	} else if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[idx+3:]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	}

	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return fmt.Errorf("no JSON payload in reply")
	}
	end := strings.LastIndexAny(content, "}]")
	if end < start {
		return fmt.Errorf("unterminated JSON payload in reply")
	}
	return json.Unmarshal([]byte(content[start:end+1]), out)
}
