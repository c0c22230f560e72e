// Package agent defines the LLM integration contract step handlers use to
// generate and review content, plus concrete adapters for the major
// providers under agent/{anthropic,openai,google} and a deterministic test
// double under agent/mock.
package agent

import "context"

// Provider is the agent selection (C4) target: step handlers call it to
// generate text or review a draft. Grounded on the retrieved example's
// model.ChatModel (Chat(ctx, messages, tools) (ChatOut, error)), narrowed
// from a general chat-with-tools interface to the three calls this
// kernel's workflows actually make.
//
// Implementations should respect ctx cancellation and translate
// provider-specific errors to plain errors rather than exposing SDK types.
type Provider interface {
	// Generate answers prompt directly. confidence is the provider's
	// self-reported certainty in [0,1], consumed as Thompson Sampling's
	// observed-reward signal when a step has no other success criterion.
	Generate(ctx context.Context, prompt string) (text string, confidence float64, err error)

	// GenerateDraft produces a first-pass answer for a refinement loop. No
	// confidence score: the loop's progress signal comes from ReviewContent
	// on the following iteration.
	GenerateDraft(ctx context.Context, prompt string) (string, error)

	// ReviewContent critiques content and scores it in [0,1]. score drives
	// a refinement loop's exit condition.
	ReviewContent(ctx context.Context, content string) (feedback string, score float64, err error)
}
