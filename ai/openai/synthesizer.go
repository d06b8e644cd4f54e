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


package openai

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/poiesic/podsight/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// AnswerSynthesizer implements ai.AnswerSynthesizer using OpenAI-compatible chat APIs.
type AnswerSynthesizer struct {
	client     llms.Model
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// citationPattern matches bracketed episode IDs in answer text, e.g.
// [dQw4w9WgXcQ].
var citationPattern = regexp.MustCompile(`\[([A-Za-z0-9_-]{6,})\]`)

// newAnswerSynthesizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newAnswerSynthesizer(config *ai.Config) (*AnswerSynthesizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.AnswerModel),
	)
	if err != nil {
		return nil, err
	}

	return &AnswerSynthesizer{
		client:     client,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
		logger:     slog.Default().With("component", "openai-synthesizer"),
	}, nil
}

// NewAnswerSynthesizer creates a new answer synthesizer using the provided configuration.
//
// Returns ai.AnswerSynthesizer interface to enforce abstraction.
func NewAnswerSynthesizer(config *ai.Config) (ai.AnswerSynthesizer, error) {
	return newAnswerSynthesizer(config)
}

// Synthesize answers the question grounded in the supplied passages.
// The returned Citations are the bracketed episode IDs found in the answer
// text; callers cross-check them against the passages they supplied.
func (s *AnswerSynthesizer) Synthesize(ctx context.Context, question string, passages []ai.Passage) (*ai.Answer, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildSynthesisPrompt(passages))},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(question)},
		},
	}

	var lastErr error
	delay := s.retryDelay

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.2))
		if err != nil {
			lastErr = err
			s.logger.Warn("model call failed", "attempt", attempt+1, "err", err)
			continue
		}
		if len(response.Choices) < 1 {
			lastErr = fmt.Errorf("no choices returned from model")
			continue
		}

		text := response.Choices[0].Content
		return &ai.Answer{
			Text:      text,
			Citations: extractCitations(text),
		}, nil
	}
	return nil, fmt.Errorf("%w: %w", ai.ErrSynthesisFailed, lastErr)
}

// extractCitations collects the distinct bracketed IDs in an answer,
// preserving first-mention order.
func extractCitations(text string) []string {
	var citations []string
	seen := make(map[string]bool)
	for _, match := range citationPattern.FindAllStringSubmatch(text, -1) {
		id := match[1]
		if !seen[id] {
			seen[id] = true
			citations = append(citations, id)
		}
	}
	return citations
}
