package mock

import (
	"context"
	"strings"
	"time"

	"github.com/poiesic/podsight/core"
)

// MockInsightExtractor is a test double for ai.InsightExtractor.
// It allows custom behavior injection via function fields.
type MockInsightExtractor struct {
	// ExtractInsightsFunc is called by ExtractInsights if set.
	// If nil, uses default deterministic behavior.
	ExtractInsightsFunc func(ctx context.Context, episode *core.Episode, transcript *core.Transcript) (*core.SummaryRecord, error)

	callCount int
}

// NewMockInsightExtractor creates a mock extractor with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockInsightExtractor() *MockInsightExtractor {
	return &MockInsightExtractor{}
}

// ExtractInsights returns a deterministic summary derived from the transcript.
// The default behavior produces one bold_claim insight per transcript segment
// containing the word "claim", and one tool insight per segment containing
// "tool", so tests can shape output through transcript text alone.
func (m *MockInsightExtractor) ExtractInsights(ctx context.Context, episode *core.Episode, transcript *core.Transcript) (*core.SummaryRecord, error) {
	m.callCount++

	if m.ExtractInsightsFunc != nil {
		return m.ExtractInsightsFunc(ctx, episode, transcript)
	}

	record := &core.SummaryRecord{
		EpisodeId:   episode.Id,
		GeneratedAt: time.Now().UTC(),
		Model:       "mock",
	}
	for _, segment := range transcript.Segments {
		lower := strings.ToLower(segment.Text)
		if strings.Contains(lower, "claim") {
			record.Insights = append(record.Insights, core.InsightItem{
				Category: "bold_claim",
				Text:     segment.Text,
				Offset:   segment.Start,
			})
		}
		if strings.Contains(lower, "tool") {
			record.Insights = append(record.Insights, core.InsightItem{
				Category: "tool",
				Text:     segment.Text,
				Offset:   segment.Start,
			})
		}
	}
	if len(record.Insights) == 0 {
		record.Insights = []core.InsightItem{
			{Category: "related_content", Text: "Episode discussed: " + episode.Title, Offset: -1},
		}
	}
	return record, nil
}

// CallCount returns the number of times ExtractInsights was called.
func (m *MockInsightExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockInsightExtractor) Reset() {
	m.callCount = 0
	m.ExtractInsightsFunc = nil
}
