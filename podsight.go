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


// Package podsight turns AI-podcast episodes into a queryable insight base.
// It discovers episodes from feeds, pulls transcripts, extracts structured
// insights with an LLM, stores them, indexes them for semantic search, and
// answers questions grounded in what was actually said.
package podsight

import (
	"io"
	"log/slog"

	"github.com/poiesic/podsight/ai"
	"github.com/poiesic/podsight/ai/openai"
	"github.com/poiesic/podsight/digest"
	"github.com/poiesic/podsight/discovery"
	"github.com/poiesic/podsight/index"
	"github.com/poiesic/podsight/qa"
	"github.com/poiesic/podsight/reindex"
	"github.com/poiesic/podsight/server"
	"github.com/poiesic/podsight/storage"
	"github.com/poiesic/podsight/storage/badger"
	"github.com/poiesic/podsight/transcript"
)

// Database bundles the storage backend, repositories and AI provider and
// hands out the higher-level components wired against them.
type Database struct {
	backend   *badger.Backend
	episodes  storage.EpisodeRepository
	summaries storage.SummaryRepository
	vectors   storage.VectorRepository
	provider  ai.AIProvider
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
}

// WithAIConfig overrides the default AI provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// NewDatabase opens (or creates) the store at filePath and wires the
// repositories and AI provider. An empty filePath opens an in-memory store.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, filePath == "")
	if err != nil {
		return nil, err
	}

	episodes, err := badger.NewEpisodeRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	summaries, err := badger.NewSummaryRepository(backend)
	if err != nil {
		episodes.Close()
		backend.Close()
		return nil, err
	}

	vectors, err := badger.NewVectorRepository(backend)
	if err != nil {
		summaries.Close()
		episodes.Close()
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		vectors.Close()
		summaries.Close()
		episodes.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:   backend,
		episodes:  episodes,
		summaries: summaries,
		vectors:   vectors,
		provider:  provider,
		logger:    slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.vectors.Close(); err != nil {
		db.logger.Error("error closing vector repository", "err", err)
		return err
	}
	if err := db.summaries.Close(); err != nil {
		db.logger.Error("error closing summary repository", "err", err)
		return err
	}
	if err := db.episodes.Close(); err != nil {
		db.logger.Error("error closing episode repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) EpisodeRepository() storage.EpisodeRepository {
	return db.episodes
}

func (db *Database) SummaryRepository() storage.SummaryRepository {
	return db.summaries
}

func (db *Database) VectorRepository() storage.VectorRepository {
	return db.vectors
}

// NewIndexer builds an indexer over the vector repository. A nil config
// uses defaults.
func (db *Database) NewIndexer(config *index.Config) *index.Indexer {
	return index.NewIndexer(db.vectors, db.provider.Embedder(), config)
}

// NewPipeline builds the discovery pipeline with a YouTube transcript
// acquirer and the database's repositories.
func (db *Database) NewPipeline(opts ...discovery.Option) (*discovery.Pipeline, error) {
	return discovery.NewPipeline(
		db.episodes,
		db.summaries,
		transcript.NewYouTubeAcquirer(),
		db.provider.InsightExtractor(),
		db.NewIndexer(nil),
		opts...,
	)
}

// NewEngine builds a QA engine over the database. A nil config uses
// defaults.
func (db *Database) NewEngine(config *qa.Config) *qa.Engine {
	return qa.NewEngine(
		db.vectors,
		db.summaries,
		db.episodes,
		db.provider.Embedder(),
		db.provider.AnswerSynthesizer(),
		config,
	)
}

// NewReindexer builds a reindexer that rebuilds the vector index from the
// summary store, writing progress to the given writer.
func (db *Database) NewReindexer(config *reindex.Config, progress io.Writer) *reindex.Reindexer {
	return reindex.NewReindexer(db.episodes, db.summaries, db.NewIndexer(nil), config, progress)
}

// NewDigestBuilder builds a digest builder over the stored episodes and
// summaries.
func (db *Database) NewDigestBuilder() *digest.Builder {
	return digest.NewBuilder(db.episodes, db.summaries)
}

// NewServer builds the HTTP server fronting a QA engine.
func (db *Database) NewServer(config *server.Config) *server.Server {
	return server.NewServer(db.NewEngine(nil), config)
}
