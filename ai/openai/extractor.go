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
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/podsight/ai"
	"github.com/poiesic/podsight/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// InsightExtractor implements ai.InsightExtractor using OpenAI-compatible chat APIs.
type InsightExtractor struct {
	client      llms.Model
	model       string
	chunkTokens int
	maxRetries  int
	retryDelay  time.Duration
	counter     tokenCounter
	logger      *slog.Logger
}

// insight is an internal type used for JSON unmarshaling.
// It matches the structure expected from the LLM.
type insight struct {
	Category         string  `json:"category"`
	Text             string  `json:"text"`
	TimestampSeconds float64 `json:"timestamp_seconds"`
}

// extraction is the wrapper structure for the LLM's JSON response.
type extraction struct {
	Insights []insight `json:"insights"`
}

// newInsightExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newInsightExtractor(config *ai.Config) (*InsightExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.ExtractionModel),
	)
	if err != nil {
		return nil, err
	}

	return &InsightExtractor{
		client:      client,
		model:       config.ExtractionModel,
		chunkTokens: config.TranscriptChunkTokens,
		maxRetries:  config.MaxRetries,
		retryDelay:  config.RetryDelay,
		counter:     newTokenCounter(),
		logger:      slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewInsightExtractor creates a new insight extractor using the provided configuration.
//
// Returns ai.InsightExtractor interface to enforce abstraction.
func NewInsightExtractor(config *ai.Config) (ai.InsightExtractor, error) {
	return newInsightExtractor(config)
}

// ExtractInsights analyzes a transcript and returns categorized insights.
// Long transcripts are split on segment boundaries into token-budgeted chunks;
// each chunk is extracted separately and the results are merged and
// deduplicated. Chunk order is preserved so earlier mentions win during dedup.
func (e *InsightExtractor) ExtractInsights(ctx context.Context, episode *core.Episode, transcript *core.Transcript) (*core.SummaryRecord, error) {
	if episode == nil || episode.Id == "" {
		return nil, fmt.Errorf("%w: %w", ai.ErrExtractionFailed, core.ErrEmptyEpisodeID)
	}
	if transcript == nil || len(transcript.Segments) == 0 {
		return nil, fmt.Errorf("%w: empty transcript for %s", ai.ErrExtractionFailed, episode.Id)
	}

	chunks := chunkSegments(transcript.Segments, e.chunkTokens, e.counter)
	e.logger.Debug("extracting insights",
		"episode", episode.Id,
		"segments", len(transcript.Segments),
		"chunks", len(chunks))

	var items []core.InsightItem
	for i, chunk := range chunks {
		chunkItems, err := e.extractChunk(ctx, chunk)
		if err != nil {
			e.logger.Error("chunk extraction failed",
				"episode", episode.Id,
				"chunk", i,
				"err", err)
			return nil, err
		}
		items = append(items, chunkItems...)
	}

	record := &core.SummaryRecord{
		EpisodeId:   episode.Id,
		Insights:    dedupeInsights(items),
		GeneratedAt: time.Now().UTC(),
		Model:       e.model,
	}

	if err := core.ValidateSummaryRecord(record); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedOutput, err)
	}

	e.logger.Debug("extraction complete",
		"episode", episode.Id,
		"raw", len(items),
		"deduped", len(record.Insights))
	return record, nil
}

// extractChunk runs one chunk through the model. Transport failures are
// retried with backoff; a schema failure gets exactly one corrective
// re-prompt before the chunk is rejected as malformed.
func (e *InsightExtractor) extractChunk(ctx context.Context, segments []core.Segment) ([]core.InsightItem, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildExtractionPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(formatTranscriptChunk(segments))},
		},
	}

	responseText, err := e.generate(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrExtractionFailed, err)
	}

	items, parseErr := parseExtraction(responseText)
	if parseErr == nil {
		return items, nil
	}

	// One corrective re-prompt: show the model its own output and the error
	e.logger.Warn("malformed extraction output, re-prompting", "err", parseErr)
	content = append(content,
		llms.MessageContent{
			Role:  llms.ChatMessageTypeAI,
			Parts: []llms.ContentPart{llms.TextPart(responseText)},
		},
		llms.MessageContent{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(fmt.Sprintf(correctionPromptTemplate, parseErr))},
		},
	)

	responseText, err = e.generate(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrExtractionFailed, err)
	}

	items, parseErr = parseExtraction(responseText)
	if parseErr != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedOutput, parseErr)
	}
	return items, nil
}

// generate calls the model with transport-level retries.
func (e *InsightExtractor) generate(ctx context.Context, content []llms.MessageContent) (string, error) {
	var lastErr error
	delay := e.retryDelay

	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			lastErr = err
			e.logger.Warn("model call failed", "attempt", attempt+1, "err", err)
			continue
		}
		if len(response.Choices) < 1 {
			lastErr = fmt.Errorf("no choices returned from model")
			continue
		}
		return response.Choices[0].Content, nil
	}
	return "", lastErr
}

// parseExtraction parses and validates a model response into insight items.
func parseExtraction(responseText string) ([]core.InsightItem, error) {
	cleaned := repairJSON(stripCodeFences(responseText))

	var result extraction
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, err
	}

	items := make([]core.InsightItem, 0, len(result.Insights))
	for i, ins := range result.Insights {
		if ins.Text == "" {
			return nil, fmt.Errorf("insight %d: %w", i, core.ErrEmptyInsightText)
		}
		category := normalizeCategory(ins.Category)
		if !core.IsInsightCategory(category) {
			return nil, fmt.Errorf("insight %d: %w: %q", i, core.ErrUnknownCategory, ins.Category)
		}

		offset := time.Duration(-1)
		if ins.TimestampSeconds >= 0 {
			offset = time.Duration(ins.TimestampSeconds * float64(time.Second))
		}
		items = append(items, core.InsightItem{
			Category: category,
			Text:     ins.Text,
			Offset:   offset,
		})
	}
	return items, nil
}

// dedupeInsights drops repeated insights within a category, keeping the
// first occurrence. Two insights are considered the same when their texts
// match ignoring case, punctuation, and whitespace.
func dedupeInsights(items []core.InsightItem) []core.InsightItem {
	seen := make(map[string]bool, len(items))
	result := make([]core.InsightItem, 0, len(items))
	for _, item := range items {
		key := item.Category + "\x00" + normalizeInsightText(item.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, item)
	}
	return result
}
