// Package mock provides a deterministic agent.Provider test double.
package mock

import (
	"context"
	"sync"
)

// Provider is a test implementation of agent.Provider: configurable
// responses, call history, and error injection, with no network calls.
// Grounded on the retrieved example's MockChatModel, narrowed from a
// chat-with-tools mock to the three Provider calls.
type Provider struct {
	// GenerateResponses is consumed in order by Generate; the last entry
	// repeats once exhausted.
	GenerateResponses []GenerateResult
	// DraftResponses is consumed in order by GenerateDraft.
	DraftResponses []string
	// ReviewResponses is consumed in order by ReviewContent.
	ReviewResponses []ReviewResult

	// Err, if set, is returned by every call instead of a response.
	Err error

	mu             sync.Mutex
	generateCalls  []string
	draftCalls     []string
	reviewCalls    []string
	generateIdx    int
	draftIdx       int
	reviewIdx      int
}

// GenerateResult is one configured Generate response.
type GenerateResult struct {
	Text       string
	Confidence float64
}

// ReviewResult is one configured ReviewContent response.
type ReviewResult struct {
	Feedback string
	Score    float64
}

// Generate implements agent.Provider.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generateCalls = append(p.generateCalls, prompt)
	if p.Err != nil {
		return "", 0, p.Err
	}
	if len(p.GenerateResponses) == 0 {
		return "", 0, nil
	}
	r := p.nextGenerate()
	return r.Text, r.Confidence, nil
}

// GenerateDraft implements agent.Provider.
func (p *Provider) GenerateDraft(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draftCalls = append(p.draftCalls, prompt)
	if p.Err != nil {
		return "", p.Err
	}
	if len(p.DraftResponses) == 0 {
		return "", nil
	}
	idx := p.draftIdx
	if idx >= len(p.DraftResponses) {
		idx = len(p.DraftResponses) - 1
	} else {
		p.draftIdx++
	}
	return p.DraftResponses[idx], nil
}

// ReviewContent implements agent.Provider.
func (p *Provider) ReviewContent(ctx context.Context, content string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reviewCalls = append(p.reviewCalls, content)
	if p.Err != nil {
		return "", 0, p.Err
	}
	if len(p.ReviewResponses) == 0 {
		return "", 0, nil
	}
	idx := p.reviewIdx
	if idx >= len(p.ReviewResponses) {
		idx = len(p.ReviewResponses) - 1
	} else {
		p.reviewIdx++
	}
	return p.ReviewResponses[idx].Feedback, p.ReviewResponses[idx].Score, nil
}

func (p *Provider) nextGenerate() GenerateResult {
	idx := p.generateIdx
	if idx >= len(p.GenerateResponses) {
		idx = len(p.GenerateResponses) - 1
	} else {
		p.generateIdx++
	}
	return p.GenerateResponses[idx]
}

// CallCounts returns the number of Generate/GenerateDraft/ReviewContent
// calls recorded so far, in that order.
func (p *Provider) CallCounts() (generate, draft, review int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.generateCalls), len(p.draftCalls), len(p.reviewCalls)
}

// Reset clears call history and response cursors.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generateCalls, p.draftCalls, p.reviewCalls = nil, nil, nil
	p.generateIdx, p.draftIdx, p.reviewIdx = 0, 0, 0
}
