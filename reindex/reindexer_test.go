package reindex

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/poiesic/podsight/ai/mock"
	"github.com/poiesic/podsight/core"
	"github.com/poiesic/podsight/index"
	"github.com/poiesic/podsight/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDoneEpisode(t *testing.T, repos *badger.Repositories, id string, withSummary bool) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, repos.Episodes.PutEpisode(ctx, &core.Episode{
		Id:          id,
		Title:       "Episode " + id,
		Channel:     "test",
		PublishedAt: time.Now().UTC().Add(-time.Hour),
		State:       core.StateDone,
	}))
	if withSummary {
		require.NoError(t, repos.Summaries.PutSummary(ctx, &core.SummaryRecord{
			EpisodeId: id,
			Insights: []core.InsightItem{
				{Category: "tool", Text: "Mentioned a framework in " + id, Offset: -1},
			},
		}))
	}
}

func TestReindexRebuildsFromStore(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	seedDoneEpisode(t, repos, "ep000000001", true)
	seedDoneEpisode(t, repos, "ep000000002", true)

	indexer := index.NewIndexer(repos.Vectors, mock.NewMockEmbedder(), nil)
	var out bytes.Buffer
	reindexer := NewReindexer(repos.Episodes, repos.Summaries, indexer, nil, &out)

	report, err := reindexer.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Indexed)
	assert.Zero(t, report.Pruned)
	assert.Zero(t, report.Failed)
	assert.Contains(t, out.String(), "Reindex complete")

	for _, id := range []string{"ep000000001", "ep000000002"} {
		entries, err := repos.Vectors.EntriesForEpisode(context.Background(), id)
		require.NoError(t, err)
		assert.NotEmpty(t, entries)
	}
}

func TestReindexPrunesOrphanedEntries(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	seedDoneEpisode(t, repos, "ep000000001", false)

	// Stale index entries for an episode with no summary
	require.NoError(t, repos.Vectors.Upsert(ctx, &core.VectorEntry{
		Id:        core.VectorID("ep000000001", 0),
		EpisodeId: "ep000000001",
		Chunk:     0,
		Vector:    []float32{1, 0},
		Title:     "stale",
	}))

	indexer := index.NewIndexer(repos.Vectors, mock.NewMockEmbedder(), nil)
	reindexer := NewReindexer(repos.Episodes, repos.Summaries, indexer, nil, nil)

	report, err := reindexer.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pruned)

	entries, err := repos.Vectors.EntriesForEpisode(ctx, "ep000000001")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReindexEmptyStore(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	indexer := index.NewIndexer(repos.Vectors, mock.NewMockEmbedder(), nil)
	var out bytes.Buffer
	reindexer := NewReindexer(repos.Episodes, repos.Summaries, indexer, nil, &out)

	report, err := reindexer.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Total)
	assert.Contains(t, out.String(), "No episodes found")
}

func TestReindexHonorsCancellation(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	seedDoneEpisode(t, repos, "ep000000001", true)

	indexer := index.NewIndexer(repos.Vectors, mock.NewMockEmbedder(), nil)
	reindexer := NewReindexer(repos.Episodes, repos.Summaries, indexer, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = reindexer.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
