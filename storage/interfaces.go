package storage

import (
	"context"
	"time"

	"github.com/poiesic/podsight/core"
)

// EpisodeRepository provides operations for managing episodes and their
// pipeline state. Implementations must be thread-safe and support
// concurrent access; state transitions must be atomic so that concurrent
// pipeline runs cannot both claim the same episode.
type EpisodeRepository interface {
	// PutEpisode inserts or replaces an episode record.
	// Sets DiscoveredAt on first insert and UpdatedAt on every write.
	PutEpisode(ctx context.Context, episode *core.Episode) error

	// GetEpisode retrieves an episode by its source-derived identifier.
	// Returns ErrNotFound if the episode doesn't exist.
	GetEpisode(ctx context.Context, id string) (*core.Episode, error)

	// HasEpisode reports whether an episode exists. This is the dedup guard
	// the orchestrator consults before doing any work.
	HasEpisode(ctx context.Context, id string) (bool, error)

	// Transition atomically moves an episode from one state to another.
	// Returns ErrNotFound if the episode doesn't exist, ErrStateConflict if
	// its current state differs from the expected state, and
	// core.ErrInvalidTransition if the state machine forbids the move.
	// A successful Transition from a claimable state acts as the episode
	// claim for the calling pipeline run.
	Transition(ctx context.Context, id string, from, to core.EpisodeState) error

	// MarkFailed atomically moves an episode to StateFailed, recording the
	// stage that failed and the error message.
	MarkFailed(ctx context.Context, id, stage, message string) error

	// ListRecent retrieves up to limit episodes ordered by publish time
	// descending.
	ListRecent(ctx context.Context, limit int) ([]*core.Episode, error)

	// ListByState retrieves episodes currently in the given state, ordered
	// by publish time descending.
	ListByState(ctx context.Context, state core.EpisodeState, limit int) ([]*core.Episode, error)

	// ListPublishedSince retrieves episodes with PublishedAt >= since,
	// ordered by publish time descending.
	ListPublishedSince(ctx context.Context, since time.Time) ([]*core.Episode, error)

	// Close closes the repository and releases resources.
	Close() error
}

// SummaryRepository is the system of record for extracted summaries.
// There is at most one current SummaryRecord per episode: PutSummary
// overwrites, never appends.
type SummaryRepository interface {
	// PutSummary inserts or replaces the summary record for its episode.
	PutSummary(ctx context.Context, record *core.SummaryRecord) error

	// GetSummary retrieves the current summary record for an episode.
	// Returns ErrNotFound if no record exists.
	GetSummary(ctx context.Context, episodeID string) (*core.SummaryRecord, error)

	// HasSummary reports whether a summary record exists for an episode.
	HasSummary(ctx context.Context, episodeID string) (bool, error)

	// DeleteSummary removes the summary record for an episode.
	// Deleting a missing record is a no-op, not an error.
	DeleteSummary(ctx context.Context, episodeID string) error

	// Close closes the repository and releases resources.
	Close() error
}

// VectorRepository is the vector index boundary. The index is a derived,
// rebuildable projection of the summary store: any inconsistency between
// the two is resolved by re-running indexing, never by mutating summaries.
type VectorRepository interface {
	// Upsert inserts or replaces vector entries keyed by their deterministic
	// IDs. Upserting an entry with an existing ID replaces it in place.
	Upsert(ctx context.Context, entries ...*core.VectorEntry) error

	// DeleteEpisode removes every vector entry belonging to an episode.
	// Deleting entries for an unknown episode is not an error.
	DeleteEpisode(ctx context.Context, episodeID string) error

	// DeleteFromChunk removes entries for an episode with chunk index >= from.
	// Used to prune stale tails when a re-indexed summary shrinks.
	DeleteFromChunk(ctx context.Context, episodeID string, from int) error

	// EntriesForEpisode retrieves all vector entries for an episode,
	// ordered by chunk index.
	EntriesForEpisode(ctx context.Context, episodeID string) ([]*core.VectorEntry, error)

	// Query performs a nearest-neighbor search against the index.
	// Returns up to topK matches with score >= minScore, ordered by
	// similarity descending.
	Query(ctx context.Context, vector []float32, topK int, minScore float32) ([]*core.VectorMatch, error)

	// Close closes the repository and releases resources.
	Close() error
}
