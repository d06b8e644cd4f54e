package ai

import (
	"context"

	"github.com/poiesic/podsight/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// InsightExtractor turns an episode transcript into a structured summary
// record. Implementations must be thread-safe for concurrent use.
type InsightExtractor interface {
	// ExtractInsights analyzes a transcript and returns the categorized
	// insights found in it, deduplicated across transcript chunks. The
	// returned record carries the episode's ID and the extraction model.
	//
	// Returns ErrMalformedOutput when the model's output cannot be coerced
	// into the schema even after a corrective re-prompt, and
	// ErrExtractionFailed for transport or model failures.
	ExtractInsights(ctx context.Context, episode *core.Episode, transcript *core.Transcript) (*core.SummaryRecord, error)
}

// Passage is a retrieved context snippet handed to the answer synthesizer.
type Passage struct {
	// EpisodeId identifies the source episode; answers cite it.
	EpisodeId string

	// Title is the episode title, shown in citations.
	Title string

	// Text is the summary text retrieved for this passage.
	Text string

	// Score is the retrieval similarity score, for logging.
	Score float32
}

// Answer is a synthesized response grounded in retrieved passages.
type Answer struct {
	// Text is the answer body.
	Text string

	// Citations lists the episode IDs the model claims to have drawn on.
	// Callers cross-check these against the passages actually supplied.
	Citations []string
}

// AnswerSynthesizer produces a grounded answer to a question from retrieved
// passages. Implementations must be thread-safe for concurrent use.
type AnswerSynthesizer interface {
	// Synthesize answers the question using ONLY the supplied passages.
	// An empty passage list yields an answer saying nothing relevant was
	// found, without inventing content.
	Synthesize(ctx context.Context, question string, passages []Passage) (*Answer, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages the Embedder, InsightExtractor, and
// AnswerSynthesizer instances, ensuring they share configuration and resources.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// InsightExtractor returns the insight extraction service.
	// The returned InsightExtractor is safe for concurrent use.
	InsightExtractor() InsightExtractor

	// AnswerSynthesizer returns the answer synthesis service.
	// The returned AnswerSynthesizer is safe for concurrent use.
	AnswerSynthesizer() AnswerSynthesizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
