package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Generator produces a completion for a system prompt and user prompt.
// The production implementation calls the Anthropic Messages API; tests
// substitute a canned generator.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Client is a rate-limited Anthropic Messages API client. Every call
// blocks on the limiter first so concurrent forecasts share one request
// budget. Failed calls are not retried here: a forecast is not worth a
// retry storm, and the caller surfaces the error to the requester.
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// Config holds LLM client configuration.
type Config struct {
	APIKey            string
	Model             string
	MaxTokens         int64
	RequestsPerMinute int
	Logger            *zap.Logger
}

// NewClient creates an Anthropic-backed generator.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key cannot be empty")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	if cfg.MaxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive")
	}
	if cfg.RequestsPerMinute <= 0 {
		return nil, fmt.Errorf("requests per minute must be positive")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Client{
		api:       anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		limiter:   rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1),
		logger:    cfg.Logger,
	}, nil
}

// Generate implements Generator. It returns the concatenated text
// blocks of the model response.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for rate limiter: %w", err)
	}

	start := time.Now()
	RequestsTotal.Inc()

	resp, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	RequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		FailuresTotal.Inc()
		return "", fmt.Errorf("create message: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := sb.String()
	if text == "" {
		FailuresTotal.Inc()
		return "", fmt.Errorf("empty model response")
	}

	TokensUsedTotal.WithLabelValues("input").Add(float64(resp.Usage.InputTokens))
	TokensUsedTotal.WithLabelValues("output").Add(float64(resp.Usage.OutputTokens))
	c.logger.Debug("llm-response",
		zap.String("model", c.model),
		zap.Int64("input-tokens", resp.Usage.InputTokens),
		zap.Int64("output-tokens", resp.Usage.OutputTokens),
		zap.Duration("duration", time.Since(start)))

	return text, nil
}
