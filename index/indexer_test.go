package index

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/podsight/ai/mock"
	"github.com/poiesic/podsight/core"
	"github.com/poiesic/podsight/storage"
	"github.com/poiesic/podsight/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSummary(episodeID string, insightCount int) *core.SummaryRecord {
	record := &core.SummaryRecord{
		EpisodeId:   episodeID,
		GeneratedAt: time.Now().UTC(),
		Model:       "mock",
	}
	for i := 0; i < insightCount; i++ {
		record.Insights = append(record.Insights, core.InsightItem{
			Category: "bold_claim",
			Text:     fmt.Sprintf("Claim number %d about the future of AI systems", i),
			Offset:   time.Duration(i) * time.Minute,
		})
	}
	return record
}

func TestIndexSummary(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	embedder := mock.NewMockEmbedder()
	indexer := NewIndexer(repos.Vectors, embedder, nil)

	ctx := context.Background()
	episode := &core.Episode{Id: "ep000000001", Title: "The Future Episode", State: core.StatePersisted}
	record := testSummary("ep000000001", 3)

	require.NoError(t, indexer.IndexSummary(ctx, episode, record))

	entries, err := repos.Vectors.EntriesForEpisode(ctx, "ep000000001")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "The Future Episode", entries[0].Title)
	assert.Equal(t, core.VectorID("ep000000001", 0), entries[0].Id)
	assert.NotEmpty(t, entries[0].Snippet)

	// Vectors come back normalized
	var sumSq float32
	for _, v := range entries[0].Vector {
		sumSq += v * v
	}
	assert.InDelta(t, 1.0, sumSq, 0.01)
}

func TestIndexSummaryIdempotent(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	embedder := mock.NewMockEmbedder()
	// Small chunks so a big summary produces several entries
	cfg := DefaultConfig()
	cfg.ChunkSize = 120
	cfg.ChunkOverlap = 0
	indexer := NewIndexer(repos.Vectors, embedder, cfg)

	ctx := context.Background()
	episode := &core.Episode{Id: "ep000000002", Title: "Long Episode", State: core.StatePersisted}

	require.NoError(t, indexer.IndexSummary(ctx, episode, testSummary("ep000000002", 10)))
	long, err := repos.Vectors.EntriesForEpisode(ctx, "ep000000002")
	require.NoError(t, err)
	require.Greater(t, len(long), 1)

	// Same summary again: same count, no duplicates
	require.NoError(t, indexer.IndexSummary(ctx, episode, testSummary("ep000000002", 10)))
	again, err := repos.Vectors.EntriesForEpisode(ctx, "ep000000002")
	require.NoError(t, err)
	assert.Equal(t, len(long), len(again))

	// A shorter summary prunes the stale tail
	require.NoError(t, indexer.IndexSummary(ctx, episode, testSummary("ep000000002", 1)))
	short, err := repos.Vectors.EntriesForEpisode(ctx, "ep000000002")
	require.NoError(t, err)
	assert.Less(t, len(short), len(long))
}

func TestIndexSummaryEmbeddingRetry(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	failures := 2
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if failures > 0 {
			failures--
			return nil, errors.New("embedding service unavailable")
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0, 0}
		}
		return vectors, nil
	}

	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	indexer := NewIndexer(repos.Vectors, embedder, cfg)

	ctx := context.Background()
	episode := &core.Episode{Id: "ep000000003", Title: "Flaky Episode", State: core.StatePersisted}
	require.NoError(t, indexer.IndexSummary(ctx, episode, testSummary("ep000000003", 2)))
	assert.Zero(t, failures)
}

func TestIndexSummaryMismatch(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	indexer := NewIndexer(repos.Vectors, mock.NewMockEmbedder(), nil)

	episode := &core.Episode{Id: "ep000000004", Title: "Mismatch", State: core.StatePersisted}
	err = indexer.IndexSummary(context.Background(), episode, testSummary("other", 1))
	assert.ErrorIs(t, err, ErrIndexingFailed)
}

func TestVerify(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	embedder := mock.NewMockEmbedder()
	indexer := NewIndexer(repos.Vectors, embedder, nil)

	ctx := context.Background()
	episode := &core.Episode{Id: "ep000000005", Title: "Verified", State: core.StatePersisted}
	record := testSummary("ep000000005", 1)
	require.NoError(t, indexer.IndexSummary(ctx, episode, record))

	assert.NoError(t, indexer.Verify(ctx, record))

	missing := testSummary("never-indexed", 1)
	assert.ErrorIs(t, indexer.Verify(ctx, missing), storage.ErrInconsistentState)
}

func TestVerifyEmptySummary(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	indexer := NewIndexer(repos.Vectors, mock.NewMockEmbedder(), nil)
	ctx := context.Background()

	// A summary with no insights indexes nothing and must still verify.
	episode := &core.Episode{Id: "ep000000009", Title: "Quiet episode", State: core.StatePersisted}
	empty := &core.SummaryRecord{EpisodeId: "ep000000009", Model: "test-model"}
	require.NoError(t, indexer.IndexSummary(ctx, episode, empty))
	assert.NoError(t, indexer.Verify(ctx, empty))

	// Stale entries left behind for an emptied summary are inconsistent.
	full := testSummary("ep000000009", 1)
	require.NoError(t, indexer.IndexSummary(ctx, episode, full))
	assert.ErrorIs(t, indexer.Verify(ctx, empty), storage.ErrInconsistentState)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short", 10))
	assert.Equal(t, "exact", snippet("exact", 5))
	assert.Equal(t, "trunc", snippet("truncated", 5))
	assert.Equal(t, "whole", snippet("whole", 0))

	// Never cut through a multi-byte rune: "é" is 2 bytes, so a limit
	// landing inside it backs up to the previous boundary.
	assert.Equal(t, "caf", snippet("café latte", 4))
	assert.Equal(t, "café", snippet("café latte", 5))
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 0.001)
	assert.InDelta(t, 0.8, v[1], 0.001)

	zero := NormalizeVector([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)

	assert.Empty(t, NormalizeVector(nil))
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error { calls++; return nil }, 3, time.Millisecond)
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			if calls < 3 {
				return errors.New("nope")
			}
			return nil
		}, 5, time.Millisecond)
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		wantErr := errors.New("always fails")
		err := RetryWithBackoff(ctx, func() error { return wantErr }, 3, time.Millisecond)
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("rejects bad attempts", func(t *testing.T) {
		err := RetryWithBackoff(ctx, func() error { return nil }, 0, time.Millisecond)
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := RetryWithBackoff(cancelled, func() error { return errors.New("nope") }, 3, time.Millisecond)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
