package mock

import (
	"context"

	"github.com/poiesic/podsight/ai"
)

// MockAnswerSynthesizer is a test double for ai.AnswerSynthesizer.
// It allows custom behavior injection via function fields.
type MockAnswerSynthesizer struct {
	// SynthesizeFunc is called by Synthesize if set.
	// If nil, uses default deterministic behavior.
	SynthesizeFunc func(ctx context.Context, question string, passages []ai.Passage) (*ai.Answer, error)

	callCount int
}

// NewMockAnswerSynthesizer creates a mock synthesizer with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockAnswerSynthesizer() *MockAnswerSynthesizer {
	return &MockAnswerSynthesizer{}
}

// Synthesize returns a deterministic answer citing every supplied passage.
func (m *MockAnswerSynthesizer) Synthesize(ctx context.Context, question string, passages []ai.Passage) (*ai.Answer, error) {
	m.callCount++

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, question, passages)
	}

	if len(passages) == 0 {
		return &ai.Answer{Text: "No relevant episodes found for: " + question}, nil
	}

	answer := &ai.Answer{Text: "Answer to: " + question}
	for _, p := range passages {
		answer.Citations = append(answer.Citations, p.EpisodeId)
	}
	return answer, nil
}

// CallCount returns the number of times Synthesize was called.
func (m *MockAnswerSynthesizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockAnswerSynthesizer) Reset() {
	m.callCount = 0
	m.SynthesizeFunc = nil
}
