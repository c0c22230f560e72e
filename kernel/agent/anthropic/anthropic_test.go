package anthropic

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/agentkernel/kernel"
)

func TestNew(t *testing.T) {
	t.Run("creates provider with API key", func(t *testing.T) {
		p := New("test-api-key", "claude-3-opus-20240229")
		if p == nil {
			t.Fatal("expected non-nil provider")
		}
	})

	t.Run("creates provider with default model name", func(t *testing.T) {
		p := New("test-api-key", "")
		if p.modelName == "" {
			t.Error("expected a default model name")
		}
	})
}

type fakeClient struct {
	response     string
	usage        tokenUsage
	err          error
	callCount    int
	lastPrompt   string
	systemPrompt string
}

func (f *fakeClient) complete(_ context.Context, systemPrompt, userPrompt string) (string, tokenUsage, error) {
	f.callCount++
	f.lastPrompt = userPrompt
	f.systemPrompt = systemPrompt
	if f.err != nil {
		return "", tokenUsage{}, f.err
	}
	return f.response, f.usage, nil
}

func TestProvider_Generate(t *testing.T) {
	fc := &fakeClient{response: "Hello! I'm Claude."}
	p := &Provider{client: fc, modelName: "claude-3-opus-20240229"}

	text, conf, err := p.Generate(context.Background(), "Hi there!")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != "Hello! I'm Claude." {
		t.Errorf("expected specific text, got %q", text)
	}
	if conf != defaultConfidence {
		t.Errorf("expected default confidence %v, got %v", defaultConfidence, conf)
	}
	if fc.callCount != 1 {
		t.Errorf("expected 1 API call, got %d", fc.callCount)
	}
}

func TestProvider_GenerateDraft(t *testing.T) {
	fc := &fakeClient{response: "draft text"}
	p := &Provider{client: fc}

	draft, err := p.GenerateDraft(context.Background(), "write a poem")
	if err != nil || draft != "draft text" {
		t.Fatalf("got (%q, %v)", draft, err)
	}
}

func TestProvider_ReviewContent(t *testing.T) {
	fc := &fakeClient{response: "Needs more detail.\nSCORE: 0.4"}
	p := &Provider{client: fc}

	feedback, score, err := p.ReviewContent(context.Background(), "some draft")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if feedback != "Needs more detail." {
		t.Errorf("expected trimmed feedback, got %q", feedback)
	}
	if score != 0.4 {
		t.Errorf("expected score 0.4, got %v", score)
	}
	if fc.systemPrompt == "" {
		t.Error("expected a review system prompt to be sent")
	}
}

func TestProvider_RespectsCancellation(t *testing.T) {
	fc := &fakeClient{response: "unused"}
	p := &Provider{client: fc}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := p.Generate(ctx, "Test")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProvider_PropagatesAPIErrors(t *testing.T) {
	fc := &fakeClient{err: errors.New("API error: invalid request")}
	p := &Provider{client: fc}

	if _, _, err := p.Generate(context.Background(), "Test"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestDefaultClient_RequiresAPIKey(t *testing.T) {
	c := &defaultClient{modelName: "claude-3-opus-20240229"}
	if _, _, err := c.complete(context.Background(), "", "Test"); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestProvider_RecordsCostWhenTrackerConfigured(t *testing.T) {
	fc := &fakeClient{response: "Hello!", usage: tokenUsage{InputTokens: 12, OutputTokens: 34}}
	tracker := kernel.NewCostTracker("run-1", "USD")
	p := &Provider{client: fc, modelName: "claude-3-opus-20240229", costTracker: tracker}

	if _, _, err := p.Generate(context.Background(), "Hi"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	in, out := tracker.GetTokenUsage()
	if in != 12 || out != 34 {
		t.Errorf("expected tracker to record (12, 34) tokens, got (%d, %d)", in, out)
	}
}

func TestProvider_SkipsCostTrackingWithoutTracker(t *testing.T) {
	fc := &fakeClient{response: "Hello!", usage: tokenUsage{InputTokens: 12, OutputTokens: 34}}
	p := &Provider{client: fc, modelName: "claude-3-opus-20240229"}

	if _, _, err := p.Generate(context.Background(), "Hi"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestParseReview(t *testing.T) {
	feedback, score := parseReview("Looks solid overall.\nSCORE: 0.85")
	if feedback != "Looks solid overall." || score != 0.85 {
		t.Errorf("got (%q, %v)", feedback, score)
	}

	feedback, score = parseReview("no score trailer here")
	if score != 0.5 {
		t.Errorf("expected fallback score 0.5, got %v", score)
	}
	if feedback != "no score trailer here" {
		t.Errorf("expected feedback unchanged, got %q", feedback)
	}
}
