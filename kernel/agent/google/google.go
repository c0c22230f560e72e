// Package google provides an agent.Provider adapter for Google's Gemini
// API.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dshills/agentkernel/kernel"
)

// Provider implements agent.Provider against Gemini models, surfacing
// safety-filter blocks as a distinct error type callers can detect with
// errors.As. Grounded on the retrieved example's google.ChatModel,
// narrowed to the three plain-text calls agent.Provider names.
type Provider struct {
	apiKey      string
	modelName   string
	client      googleClient
	costTracker *kernel.CostTracker
}

// tokenUsage reports the prompt/candidate token counts a generation
// consumed, so callers can feed them into a CostTracker. Grounded on
// genai.GenerateContentResponse.UsageMetadata.
type tokenUsage struct {
	InputTokens  int
	OutputTokens int
}

type googleClient interface {
	generate(ctx context.Context, prompt string) (string, tokenUsage, error)
}

// Option configures a Provider at construction time.
type Option func(*Provider)

// WithCostTracker attaches a CostTracker that records every generation's
// token usage against t, keyed by this provider's model name.
func WithCostTracker(t *kernel.CostTracker) Option {
	return func(p *Provider) { p.costTracker = t }
}

// SafetyFilterError reports that Gemini blocked a response on safety
// grounds.
type SafetyFilterError struct {
	Category string
}

func (e *SafetyFilterError) Error() string {
	return fmt.Sprintf("google: response blocked by safety filter: %s", e.Category)
}

// New creates a Provider for modelName (empty uses gemini-2.5-flash).
func New(apiKey, modelName string, opts ...Option) *Provider {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
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

const reviewPromptPrefix = "Review the following and reply with one line of feedback, then a final line \"SCORE: <0-1 float>\":\n\n"
const defaultConfidence = 0.75

func (p *Provider) Generate(ctx context.Context, prompt string) (string, float64, error) {
	text, err := p.call(ctx, prompt)
	if err != nil {
		return "", 0, err
	}
	return text, defaultConfidence, nil
}

func (p *Provider) GenerateDraft(ctx context.Context, prompt string) (string, error) {
	return p.call(ctx, prompt)
}

func (p *Provider) ReviewContent(ctx context.Context, content string) (string, float64, error) {
	text, err := p.call(ctx, reviewPromptPrefix+content)
	if err != nil {
		return "", 0, err
	}
	feedback, score := parseReview(text)
	return feedback, score, nil
}

func (p *Provider) call(ctx context.Context, prompt string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	text, usage, err := p.client.generate(ctx, prompt)
	if err != nil {
		var safetyErr *SafetyFilterError
		if errors.As(err, &safetyErr) {
			return "", safetyErr
		}
		return "", err
	}
	p.recordCost(usage)
	return text, nil
}

// recordCost feeds a generation's token usage into the configured
// CostTracker, if any. nodeID is left empty: agent.Provider calls are not
// scoped to a single workflow node.
func (p *Provider) recordCost(usage tokenUsage) {
	if p.costTracker == nil {
		return
	}
	_ = p.costTracker.RecordLLMCall(p.modelName, usage.InputTokens, usage.OutputTokens, "")
}

// defaultClient wraps the official Google Gemini SDK client.
type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) generate(ctx context.Context, prompt string) (string, tokenUsage, error) {
	if c.apiKey == "" {
		return "", tokenUsage{}, errors.New("google: API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return "", tokenUsage{}, fmt.Errorf("google: failed to create client: %w", err)
	}
	defer func() { _ = client.Close() }()

	genModel := client.GenerativeModel(c.modelName)
	resp, err := genModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", tokenUsage{}, fmt.Errorf("google: %w", err)
	}

	var usage tokenUsage
	if resp.UsageMetadata != nil {
		usage = tokenUsage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
			return "", usage, &SafetyFilterError{Category: "content"}
		}
		return "", usage, nil
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			if text != "" {
				text += "\n"
			}
			text += string(t)
		}
	}
	return text, usage, nil
}
