// Package openai provides an agent.Provider adapter for OpenAI's API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/dshills/agentkernel/kernel"
)

// Provider implements agent.Provider against OpenAI's chat completion API,
// with retry on transient errors. Grounded on the retrieved example's
// openai.ChatModel, narrowed to the three plain-text calls agent.Provider
// names.
type Provider struct {
	apiKey      string
	modelName   string
	client      openaiClient
	maxRetries  int
	retryDelay  time.Duration
	costTracker *kernel.CostTracker
}

// tokenUsage reports the prompt/completion token counts a chat completion
// consumed, so callers can feed them into a CostTracker. Grounded on the
// retrieved example's multi-llm-review/providers/openai.go, which reads
// completion.Usage the same way.
type tokenUsage struct {
	InputTokens  int
	OutputTokens int
}

type openaiClient interface {
	complete(ctx context.Context, systemPrompt, userPrompt string) (string, tokenUsage, error)
}

// Option configures a Provider at construction time.
type Option func(*Provider)

// WithCostTracker attaches a CostTracker that records every completion's
// token usage against t, keyed by this provider's model name.
func WithCostTracker(t *kernel.CostTracker) Option {
	return func(p *Provider) { p.costTracker = t }
}

// New creates a Provider for modelName (empty uses gpt-4o), with 3 retries
// at 1-second base backoff for transient errors.
func New(apiKey, modelName string, opts ...Option) *Provider {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	p := &Provider{
		apiKey:     apiKey,
		modelName:  modelName,
		client:     &defaultClient{apiKey: apiKey, modelName: modelName},
		maxRetries: 3,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

const reviewSystemPrompt = "You are reviewing a draft. Reply with one line of feedback, then a final line \"SCORE: <0-1 float>\"."
const defaultConfidence = 0.75

func (p *Provider) Generate(ctx context.Context, prompt string) (string, float64, error) {
	text, err := p.callWithRetry(ctx, "", prompt)
	if err != nil {
		return "", 0, err
	}
	return text, defaultConfidence, nil
}

func (p *Provider) GenerateDraft(ctx context.Context, prompt string) (string, error) {
	return p.callWithRetry(ctx, "", prompt)
}

func (p *Provider) ReviewContent(ctx context.Context, content string) (string, float64, error) {
	text, err := p.callWithRetry(ctx, reviewSystemPrompt, content)
	if err != nil {
		return "", 0, err
	}
	feedback, score := parseReview(text)
	return feedback, score, nil
}

func (p *Provider) callWithRetry(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		text, usage, err := p.client.complete(ctx, systemPrompt, userPrompt)
		if err == nil {
			p.recordCost(usage)
			return text, nil
		}
		lastErr = err
		if !isTransientError(err) {
			return "", err
		}
		if attempt >= p.maxRetries {
			break
		}
		delay := p.retryDelay
		if isRateLimitError(err) {
			delay = p.retryDelay * time.Duration(attempt+1)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("openai: failed after %d retries: %w", p.maxRetries, lastErr)
}

// recordCost feeds a completion's token usage into the configured
// CostTracker, if any. nodeID is left empty: agent.Provider calls are not
// scoped to a single workflow node.
func (p *Provider) recordCost(usage tokenUsage) {
	if p.costTracker == nil {
		return
	}
	_ = p.costTracker.RecordLLMCall(p.modelName, usage.InputTokens, usage.OutputTokens, "")
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	var rateLimitErr *rateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}
	msgLower := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "network", "connection", "temporary", "503", "502", "500"} {
		if strings.Contains(msgLower, pattern) {
			return true
		}
	}
	return false
}

func isRateLimitError(err error) bool {
	var rateLimitErr *rateLimitError
	return errors.As(err, &rateLimitErr)
}

type rateLimitError struct{ message string }

func (e *rateLimitError) Error() string { return e.message }

// defaultClient wraps the official OpenAI SDK client.
type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) complete(ctx context.Context, systemPrompt, userPrompt string) (string, tokenUsage, error) {
	if c.apiKey == "" {
		return "", tokenUsage{}, errors.New("openai: API key is required")
	}

	client := openaisdk.NewClient(option.WithAPIKey(c.apiKey))
	messages := []openaisdk.ChatCompletionMessageParamUnion{}
	if systemPrompt != "" {
		messages = append(messages, openaisdk.SystemMessage(systemPrompt))
	}
	messages = append(messages, openaisdk.UserMessage(userPrompt))

	resp, err := client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(c.modelName),
		Messages: messages,
	})
	if err != nil {
		return "", tokenUsage{}, fmt.Errorf("openai: %w", err)
	}
	usage := tokenUsage{InputTokens: int(resp.Usage.PromptTokens), OutputTokens: int(resp.Usage.CompletionTokens)}
	if len(resp.Choices) == 0 {
		return "", usage, nil
	}
	return resp.Choices[0].Message.Content, usage, nil
}
