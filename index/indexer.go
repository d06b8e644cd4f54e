// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/poiesic/podsight/ai"
	"github.com/poiesic/podsight/core"
	"github.com/poiesic/podsight/storage"
	"github.com/tmc/langchaingo/textsplitter"
)

// Config holds configuration for the indexer.
type Config struct {
	// ChunkSize is the target chunk size in characters for summary text.
	// Default: 2000
	ChunkSize int

	// ChunkOverlap is the character overlap between adjacent chunks.
	// Default: 200
	ChunkOverlap int

	// SnippetLength caps the snippet stored alongside each vector entry.
	// Default: 280
	SnippetLength int

	// MaxRetries is the maximum number of attempts per embedding call.
	// Default: 3
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	// Default: 1s
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:     2000,
		ChunkOverlap:  200,
		SnippetLength: 280,
		MaxRetries:    3,
		RetryDelay:    1 * time.Second,
	}
}

// Indexer maintains the vector index as a projection of the summary store.
// Index writes are idempotent: entry IDs derive from episode ID and chunk
// position, so re-indexing the same summary overwrites in place and prunes
// any stale tail left by a previously longer summary.
type Indexer struct {
	vectors  storage.VectorRepository
	embedder ai.Embedder
	splitter textsplitter.RecursiveCharacter
	config   *Config
	logger   *slog.Logger
}

// NewIndexer creates an indexer over the given vector repository and embedder.
func NewIndexer(vectors storage.VectorRepository, embedder ai.Embedder, config *Config) *Indexer {
	if config == nil {
		config = DefaultConfig()
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(config.ChunkSize),
		textsplitter.WithChunkOverlap(config.ChunkOverlap),
	)

	return &Indexer{
		vectors:  vectors,
		embedder: embedder,
		splitter: splitter,
		config:   config,
		logger:   slog.Default().With("component", "indexer"),
	}
}

// IndexSummary embeds an episode's summary and writes its vector entries.
// The summary text is chunked, each chunk embedded and normalized, and
// entries past the new chunk count are pruned.
func (ix *Indexer) IndexSummary(ctx context.Context, episode *core.Episode, record *core.SummaryRecord) error {
	if episode == nil || record == nil || episode.Id != record.EpisodeId {
		return fmt.Errorf("%w: episode and summary mismatch", ErrIndexingFailed)
	}

	text := record.Text()
	if text == "" {
		// Nothing to index; clear any entries from a previous summary
		if err := ix.vectors.DeleteEpisode(ctx, episode.Id); err != nil {
			return fmt.Errorf("%w: %w", ErrIndexingFailed, err)
		}
		return nil
	}

	chunks, err := ix.splitter.SplitText(text)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIndexingFailed, err)
	}

	var vectors [][]float32
	err = RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = ix.embedder.EmbedTexts(ctx, chunks)
		return embedErr
	}, ix.config.MaxRetries, ix.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIndexingFailed, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: got %d embeddings for %d chunks", ErrIndexingFailed, len(vectors), len(chunks))
	}

	entries := make([]*core.VectorEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = &core.VectorEntry{
			Id:        core.VectorID(episode.Id, i),
			EpisodeId: episode.Id,
			Chunk:     i,
			Vector:    NormalizeVector(vectors[i]),
			Title:     episode.Title,
			Snippet:   snippet(chunk, ix.config.SnippetLength),
		}
	}

	if err := ix.vectors.Upsert(ctx, entries...); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexingFailed, err)
	}

	// Prune stale entries from a previously longer summary
	if err := ix.vectors.DeleteFromChunk(ctx, episode.Id, len(chunks)); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexingFailed, err)
	}

	ix.logger.Debug("indexed summary", "episode", episode.Id, "chunks", len(chunks))
	return nil
}

// RemoveEpisode deletes every index entry for an episode.
func (ix *Indexer) RemoveEpisode(ctx context.Context, episodeID string) error {
	return ix.vectors.DeleteEpisode(ctx, episodeID)
}

// Verify checks that the index agrees with a stored summary: a summary with
// text must have entries, and a summary with no insights must have none.
// Returns storage.ErrInconsistentState on disagreement.
func (ix *Indexer) Verify(ctx context.Context, record *core.SummaryRecord) error {
	entries, err := ix.vectors.EntriesForEpisode(ctx, record.EpisodeId)
	if err != nil {
		return err
	}
	if record.Text() == "" {
		if len(entries) != 0 {
			return fmt.Errorf("%w: stale index entries for %s", storage.ErrInconsistentState, record.EpisodeId)
		}
		return nil
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: no index entries for %s", storage.ErrInconsistentState, record.EpisodeId)
	}
	return nil
}

// snippet truncates chunk text for storage alongside the vector,
// backing up to a rune boundary so multi-byte text is never split.
func snippet(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}
