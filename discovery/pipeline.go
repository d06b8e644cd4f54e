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


package discovery

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/podsight/ai"
	"github.com/poiesic/podsight/core"
	"github.com/poiesic/podsight/index"
	"github.com/poiesic/podsight/storage"
	"github.com/poiesic/podsight/transcript"
)

// Pipeline orchestrates episode discovery and processing: transcript
// acquisition, insight extraction, summary persistence, and indexing.
// Episodes move through the state machine one stage at a time; a stage
// failure parks the episode in StateFailed with the stage recorded, and a
// later run can retry it.
type Pipeline struct {
	episodes  storage.EpisodeRepository
	summaries storage.SummaryRepository
	acquirer  transcript.Acquirer
	extractor ai.InsightExtractor
	indexer   *index.Indexer
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent episode processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new discovery pipeline.
func NewPipeline(
	episodes storage.EpisodeRepository,
	summaries storage.SummaryRepository,
	acquirer transcript.Acquirer,
	extractor ai.InsightExtractor,
	indexer *index.Indexer,
	opts ...Option,
) (*Pipeline, error) {
	if episodes == nil {
		return nil, ErrEpisodeRepositoryRequired
	}
	if summaries == nil {
		return nil, ErrSummaryRepositoryRequired
	}
	if acquirer == nil {
		return nil, ErrAcquirerRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		episodes:  episodes,
		summaries: summaries,
		acquirer:  acquirer,
		extractor: extractor,
		indexer:   indexer,
		pool:      pool,
		logger:    slog.Default().With("component", "pipeline"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// SyncOptions holds optional parameters for a sync run.
type SyncOptions struct {
	// Limit caps the number of episodes processed this run. 0 means no cap.
	Limit int

	// Force reprocesses episodes regardless of their current state,
	// including completed ones.
	Force bool
}

// Failure records one episode that could not be processed.
type Failure struct {
	EpisodeId string
	Stage     string
	Err       error
}

// Report summarizes a sync run.
type Report struct {
	// Discovered is the number of episodes seen at the sources.
	Discovered int

	// New is the number of episodes stored for the first time.
	New int

	// Processed is the number of episodes that reached StateDone this run.
	Processed int

	// Skipped is the number of episodes left alone (already done or
	// claimed elsewhere).
	Skipped int

	// Failures lists episodes parked in StateFailed, with the stage that
	// broke. One episode's failure never aborts the rest of the batch.
	Failures []Failure
}

// Sync discovers episodes from the source and processes the eligible ones
// concurrently. Already-completed episodes are skipped unless opts.Force is
// set; failed episodes are retried.
func (p *Pipeline) Sync(ctx context.Context, source Source, opts *SyncOptions) (*Report, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if opts == nil {
		opts = &SyncOptions{}
	}

	discovered, err := source.Discover(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Discovered: len(discovered)}
	var mu sync.Mutex
	var wg sync.WaitGroup

	queued := 0
	for _, episode := range discovered {
		if opts.Limit > 0 && queued >= opts.Limit {
			break
		}

		eligible, isNew, err := p.prepare(ctx, episode, opts.Force)
		if err != nil {
			mu.Lock()
			report.Failures = append(report.Failures, Failure{EpisodeId: episode.Id, Stage: "discover", Err: err})
			mu.Unlock()
			continue
		}
		if isNew {
			report.New++
		}
		if !eligible {
			report.Skipped++
			continue
		}

		queued++
		wg.Add(1)
		id := episode.Id
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			stage, err := p.processEpisode(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Processed++
			case errors.Is(err, storage.ErrStateConflict):
				// Another worker claimed it
				report.Skipped++
			default:
				report.Failures = append(report.Failures, Failure{EpisodeId: id, Stage: stage, Err: err})
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			report.Failures = append(report.Failures, Failure{EpisodeId: id, Stage: "schedule", Err: submitErr})
			mu.Unlock()
		}
	}

	wg.Wait()
	p.logger.Info("sync complete",
		"discovered", report.Discovered,
		"new", report.New,
		"processed", report.Processed,
		"skipped", report.Skipped,
		"failed", len(report.Failures))
	return report, nil
}

// prepare stores a newly discovered episode and decides whether it should be
// processed this run.
func (p *Pipeline) prepare(ctx context.Context, episode *core.Episode, force bool) (eligible, isNew bool, err error) {
	existing, err := p.episodes.GetEpisode(ctx, episode.Id)
	if errors.Is(err, storage.ErrNotFound) {
		if err := p.episodes.PutEpisode(ctx, episode); err != nil {
			return false, false, err
		}
		return true, true, nil
	}
	if err != nil {
		return false, false, err
	}

	switch existing.State {
	case core.StateDiscovered, core.StateFailed:
		return true, false, nil
	case core.StateDone:
		if !force {
			return false, false, nil
		}
		// Reprocess from scratch: reset state, refresh metadata
		episode.State = core.StateDiscovered
		if err := p.episodes.PutEpisode(ctx, episode); err != nil {
			return false, false, err
		}
		return true, false, nil
	default:
		// Mid-pipeline: another run owns it
		return false, false, nil
	}
}

// processEpisode walks one episode through the remaining pipeline stages.
// Returns the failing stage name alongside the error; the episode is marked
// failed in the store before returning.
func (p *Pipeline) processEpisode(ctx context.Context, id string) (string, error) {
	episode, err := p.episodes.GetEpisode(ctx, id)
	if err != nil {
		return "claim", err
	}

	// Claim the episode. The transition is atomic, so exactly one worker
	// wins when runs overlap.
	if err := p.episodes.Transition(ctx, id, episode.State, core.StateTranscriptAcquired); err != nil {
		return "claim", err
	}

	fetched, err := p.acquirer.Fetch(ctx, id)
	if err != nil {
		return p.fail(ctx, id, "transcript", err)
	}

	if err := ctx.Err(); err != nil {
		return p.fail(ctx, id, "transcript", err)
	}

	record, err := p.extractor.ExtractInsights(ctx, episode, fetched)
	if err != nil {
		return p.fail(ctx, id, "extract", err)
	}
	if err := p.episodes.Transition(ctx, id, core.StateTranscriptAcquired, core.StateExtracted); err != nil {
		return "extract", err
	}

	if err := p.summaries.PutSummary(ctx, record); err != nil {
		return p.fail(ctx, id, "persist", err)
	}
	if err := p.episodes.Transition(ctx, id, core.StateExtracted, core.StatePersisted); err != nil {
		return "persist", err
	}

	if err := p.indexer.IndexSummary(ctx, episode, record); err != nil {
		return p.fail(ctx, id, "index", err)
	}
	if err := p.episodes.Transition(ctx, id, core.StatePersisted, core.StateIndexed); err != nil {
		return "index", err
	}

	if err := p.indexer.Verify(ctx, record); err != nil {
		return p.fail(ctx, id, "verify", err)
	}
	if err := p.episodes.Transition(ctx, id, core.StateIndexed, core.StateDone); err != nil {
		return "verify", err
	}

	p.logger.Debug("episode processed", "episode", id)
	return "", nil
}

// fail parks the episode in StateFailed and passes the original error back.
func (p *Pipeline) fail(ctx context.Context, id, stage string, cause error) (string, error) {
	if err := p.episodes.MarkFailed(ctx, id, stage, cause.Error()); err != nil {
		p.logger.Error("failed to mark episode failed", "episode", id, "stage", stage, "err", err)
	}
	p.logger.Warn("episode failed", "episode", id, "stage", stage, "err", cause)
	return stage, cause
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
