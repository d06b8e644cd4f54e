// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder,
// ai.InsightExtractor, ai.AnswerSynthesizer, and ai.AIProvider for use in
// unit tests. The mocks allow tests to run without external AI service
// dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embeddings, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockExtractor := mock.NewMockInsightExtractor()
//	mockExtractor.ExtractInsightsFunc = func(ctx context.Context, episode *core.Episode, transcript *core.Transcript) (*core.SummaryRecord, error) {
//	    return nil, ai.ErrMalformedOutput
//	}
//
//	// Check call counts
//	count := mockExtractor.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockInsightExtractor: Derives insights from keywords in transcript segments
//   - MockAnswerSynthesizer: Answers citing every supplied passage
//   - MockProvider: Aggregates all three
package mock
