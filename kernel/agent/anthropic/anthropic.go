// Package anthropic provides an agent.Provider adapter for Anthropic's
// Claude API.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/agentkernel/kernel"
)

// Provider implements agent.Provider against Claude models. Grounded on
// the retrieved example's anthropic.ChatModel, narrowed from a
// messages+tools chat call to the three plain-text calls agent.Provider
// names.
type Provider struct {
	apiKey      string
	modelName   string
	client      anthropicClient
	costTracker *kernel.CostTracker
}

// tokenUsage reports the input/output token counts a completion consumed,
// so callers can feed them into a CostTracker. Grounded on the retrieved
// example's multi-llm-review/providers/anthropic.go, which sums
// message.Usage.InputTokens and .OutputTokens the same way.
type tokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// anthropicClient abstracts the API call so tests can substitute a fake.
type anthropicClient interface {
	complete(ctx context.Context, systemPrompt, userPrompt string) (string, tokenUsage, error)
}

// Option configures a Provider at construction time.
type Option func(*Provider)

// WithCostTracker attaches a CostTracker that records every completion's
// token usage against t, keyed by this provider's model name.
func WithCostTracker(t *kernel.CostTracker) Option {
	return func(p *Provider) { p.costTracker = t }
}

// New creates a Provider for modelName (empty uses the latest Sonnet).
func New(apiKey, modelName string, opts ...Option) *Provider {
	if modelName == "" {
		modelName = "claude-sonnet-4-5-20250929"
	}
	p := &Provider{
		apiKey:    apiKey,
		modelName: modelName,
		client:    &defaultClient{apiKey: apiKey, modelName: modelName},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

const reviewSystemPrompt = "You are reviewing a draft. Reply with one line of feedback, then a final line \"SCORE: <0-1 float>\"."

func (p *Provider) Generate(ctx context.Context, prompt string) (string, float64, error) {
	text, err := p.call(ctx, "", prompt)
	if err != nil {
		return "", 0, err
	}
	return text, defaultConfidence, nil
}

func (p *Provider) GenerateDraft(ctx context.Context, prompt string) (string, error) {
	return p.call(ctx, "", prompt)
}

func (p *Provider) ReviewContent(ctx context.Context, content string) (string, float64, error) {
	text, err := p.call(ctx, reviewSystemPrompt, content)
	if err != nil {
		return "", 0, err
	}
	feedback, score := parseReview(text)
	return feedback, score, nil
}

func (p *Provider) call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	text, usage, err := p.client.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	p.recordCost(usage)
	return text, nil
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

// defaultClient wraps the official Anthropic SDK client.
type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) complete(ctx context.Context, systemPrompt, userPrompt string) (string, tokenUsage, error) {
	if c.apiKey == "" {
		return "", tokenUsage{}, errors.New("anthropic: API key is required")
	}

	client := anthropicsdk.NewClient(option.WithAPIKey(c.apiKey))
	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(c.modelName),
		Messages:  []anthropicsdk.MessageParam{anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(userPrompt))},
		MaxTokens: 4096,
	}
	if systemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", tokenUsage{}, fmt.Errorf("anthropic: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if b, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
			if text != "" {
				text += "\n"
			}
			text += b.Text
		}
	}
	usage := tokenUsage{InputTokens: int(resp.Usage.InputTokens), OutputTokens: int(resp.Usage.OutputTokens)}
	return text, usage, nil
}
