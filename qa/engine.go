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


package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/podsight/ai"
	"github.com/poiesic/podsight/core"
	"github.com/poiesic/podsight/index"
	"github.com/poiesic/podsight/storage"
)

// noMatchAnswer is returned when retrieval produces no usable passages;
// no model call is made in that case.
const noMatchAnswer = "No relevant episodes found for this question."

// Config holds configuration for the QA engine.
type Config struct {
	// TopK is the number of vector matches retrieved per question.
	// Default: 6
	TopK int

	// MinScore is the similarity floor; matches below it are ignored.
	// Default: 0.30
	MinScore float32

	// ContextBudget caps the total passage bytes handed to the model.
	// Default: 12000
	ContextBudget int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TopK:          6,
		MinScore:      0.30,
		ContextBudget: 12000,
	}
}

// Source identifies an episode an answer drew on.
type Source struct {
	EpisodeId string
	Title     string
	Score     float32
}

// Result is the outcome of asking a question.
type Result struct {
	// Answer is the synthesized response text.
	Answer string

	// Found reports whether any indexed episode was relevant enough to
	// ground an answer. When false, Answer explains that nothing matched.
	Found bool

	// Sources lists the episodes the answer is grounded in, best first.
	// Only episodes that were actually supplied to the model appear here.
	Sources []Source
}

// Engine answers questions about indexed episodes. Retrieval runs over the
// vector index, but answers are grounded in the authoritative summary store:
// the engine re-reads each matched episode's summary and hands only that
// text to the model.
type Engine struct {
	vectors   storage.VectorRepository
	summaries storage.SummaryRepository
	episodes  storage.EpisodeRepository
	embedder  ai.Embedder
	synth     ai.AnswerSynthesizer
	config    *Config
	logger    *slog.Logger
}

// NewEngine creates a QA engine.
func NewEngine(
	vectors storage.VectorRepository,
	summaries storage.SummaryRepository,
	episodes storage.EpisodeRepository,
	embedder ai.Embedder,
	synth ai.AnswerSynthesizer,
	config *Config,
) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{
		vectors:   vectors,
		summaries: summaries,
		episodes:  episodes,
		embedder:  embedder,
		synth:     synth,
		config:    config,
		logger:    slog.Default().With("component", "qa-engine"),
	}
}

// Ask answers a question grounded in the indexed episode summaries.
// When nothing relevant is indexed the result has Found=false and an answer
// saying so; that is not an error.
func (e *Engine) Ask(ctx context.Context, question string) (*Result, error) {
	if question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}

	vector, err := e.embedder.EmbedText(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	matches, err := e.vectors.Query(ctx, index.NormalizeVector(vector), e.config.TopK, e.config.MinScore)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	passages, sources := e.buildPassages(ctx, matches)
	if len(passages) == 0 {
		return &Result{Answer: noMatchAnswer, Found: false}, nil
	}

	answer, err := e.synth.Synthesize(ctx, question, passages)
	if err != nil {
		return nil, err
	}

	// Keep only citations that point at passages we actually supplied;
	// anything else is the model inventing sources and gets stripped.
	supplied := make(map[string]bool, len(passages))
	for _, p := range passages {
		supplied[p.EpisodeId] = true
	}
	text := answer.Text
	for _, citation := range answer.Citations {
		if !supplied[citation] {
			e.logger.Warn("dropping uncited source from answer", "citation", citation)
			text = stripCitation(text, citation)
		}
	}

	return &Result{
		Answer:  text,
		Found:   true,
		Sources: sources,
	}, nil
}

// stripCitation removes every bracketed reference to id from text, eating
// the space before the bracket when there is one.
func stripCitation(text, id string) string {
	text = strings.ReplaceAll(text, " ["+id+"]", "")
	return strings.ReplaceAll(text, "["+id+"]", "")
}

// buildPassages turns vector matches into grounded passages. Matches are
// already score-ordered; each episode contributes once (its best match), and
// episodes whose summary can't be read are skipped rather than answered
// from stale index text.
func (e *Engine) buildPassages(ctx context.Context, matches []*core.VectorMatch) ([]ai.Passage, []Source) {
	var passages []ai.Passage
	var sources []Source
	used := 0
	seen := make(map[string]bool)

	for _, match := range matches {
		episodeID := match.Entry.EpisodeId
		if seen[episodeID] {
			continue
		}
		seen[episodeID] = true

		record, err := e.summaries.GetSummary(ctx, episodeID)
		if err != nil {
			// Index entry without a summary: fail closed for this match
			if errors.Is(err, storage.ErrNotFound) {
				e.logger.Warn("index entry without summary, skipping", "episode", episodeID)
			} else {
				e.logger.Error("summary lookup failed, skipping", "episode", episodeID, "err", err)
			}
			continue
		}

		title := match.Entry.Title
		if episode, err := e.episodes.GetEpisode(ctx, episodeID); err == nil {
			title = episode.Title
		}

		text := record.Text()
		if used+len(text) > e.config.ContextBudget && len(passages) > 0 {
			break
		}
		used += len(text)

		passages = append(passages, ai.Passage{
			EpisodeId: episodeID,
			Title:     title,
			Text:      text,
			Score:     match.Score,
		})
		sources = append(sources, Source{
			EpisodeId: episodeID,
			Title:     title,
			Score:     match.Score,
		})
	}
	return passages, sources
}
