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


// Package reindex rebuilds the vector index from the summary store.
//
// The index is a projection: the summary store is authoritative and the
// index can always be reconstructed from it. Reindexing walks every stored
// episode, re-embeds the summaries that exist, and removes index entries
// for episodes whose summaries are gone.
package reindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/poiesic/podsight/core"
	"github.com/poiesic/podsight/index"
	"github.com/poiesic/podsight/storage"
)

// Config holds configuration for the reindexing operation.
type Config struct {
	// ReportInterval is how often to report progress (number of episodes)
	ReportInterval int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReportInterval: 10,
	}
}

// Report summarizes a reindex run.
type Report struct {
	// Total is the number of episodes examined.
	Total int

	// Indexed is the number of episodes whose summaries were re-embedded.
	Indexed int

	// Pruned is the number of episodes whose stale index entries were
	// removed because no summary exists for them.
	Pruned int

	// Failed is the number of episodes that could not be reindexed.
	Failed int
}

// Reindexer rebuilds the vector index from the summary store.
type Reindexer struct {
	episodes  storage.EpisodeRepository
	summaries storage.SummaryRepository
	indexer   *index.Indexer
	config    *Config
	progress  io.Writer
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(
	episodes storage.EpisodeRepository,
	summaries storage.SummaryRepository,
	indexer *index.Indexer,
	config *Config,
	progress io.Writer,
) *Reindexer {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Reindexer{
		episodes:  episodes,
		summaries: summaries,
		indexer:   indexer,
		config:    config,
		progress:  progress,
	}
}

// Run executes the reindexing operation over every stored episode.
// An episode that fails to reindex is counted and skipped; the run
// continues so one bad record can't block a rebuild.
func (r *Reindexer) Run(ctx context.Context) (*Report, error) {
	episodes, err := r.episodes.ListRecent(ctx, math.MaxInt32)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}

	report := &Report{Total: len(episodes)}
	if len(episodes) == 0 {
		fmt.Fprintf(r.progress, "No episodes found (0 records)\n")
		return report, nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d episodes\n", len(episodes))

	tracker := NewProgressTracker(r.progress, len(episodes), r.config.ReportInterval)
	tracker.Start()

	for _, episode := range episodes {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := r.reindexOne(ctx, episode, report); err != nil {
			return report, err
		}
		tracker.Increment(1)
	}

	tracker.Finish()
	fmt.Fprintf(r.progress, "Reindex complete: %d indexed, %d pruned, %d failed (%.1fs)\n",
		report.Indexed, report.Pruned, report.Failed, tracker.Elapsed().Seconds())
	return report, nil
}

// reindexOne rebuilds the index entries of a single episode. Only storage
// breakage propagates as an error; per-episode embedding failures are
// recorded in the report.
func (r *Reindexer) reindexOne(ctx context.Context, episode *core.Episode, report *Report) error {
	record, err := r.summaries.GetSummary(ctx, episode.Id)
	if errors.Is(err, storage.ErrNotFound) {
		// No summary: drop whatever the index still holds for it
		if err := r.indexer.RemoveEpisode(ctx, episode.Id); err != nil {
			return fmt.Errorf("failed to prune %s: %w", episode.Id, err)
		}
		report.Pruned++
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read summary for %s: %w", episode.Id, err)
	}

	if err := r.indexer.IndexSummary(ctx, episode, record); err != nil {
		report.Failed++
		return nil
	}
	report.Indexed++
	return nil
}
