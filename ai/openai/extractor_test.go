package openai

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/podsight/ai"
	"github.com/poiesic/podsight/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// scriptedModel returns canned responses in order and counts calls.
type scriptedModel struct {
	responses []string
	calls     int
}

func (m *scriptedModel) GenerateContent(ctx context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	text := m.responses[len(m.responses)-1]
	if m.calls < len(m.responses) {
		text = m.responses[m.calls]
	}
	m.calls++
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: text}},
	}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, _ ...llms.CallOption) (string, error) {
	return "", nil
}

func scriptedExtractor(model llms.Model) *InsightExtractor {
	return &InsightExtractor{
		client:      model,
		model:       "test-model",
		chunkTokens: 4096,
		maxRetries:  3,
		retryDelay:  time.Millisecond,
		counter:     estimateCounter{},
		logger:      slog.Default().With("component", "openai-extractor"),
	}
}

func TestParseExtraction(t *testing.T) {
	t.Run("well-formed response", func(t *testing.T) {
		items, err := parseExtraction(`{
			"insights": [
				{"category": "bold_claim", "text": "Scaling is over", "timestamp_seconds": 42.5},
				{"category": "tool", "text": "They use vLLM in production"}
			]
		}`)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "bold_claim", items[0].Category)
		assert.Equal(t, 42500*time.Millisecond, items[0].Offset)
		// Missing timestamp parses as zero offset
		assert.Equal(t, time.Duration(0), items[1].Offset)
	})

	t.Run("code-fenced response", func(t *testing.T) {
		items, err := parseExtraction("```json\n{\"insights\": [{\"category\": \"dataset\", \"text\": \"New benchmark out\", \"timestamp_seconds\": -1}]}\n```")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, time.Duration(-1), items[0].Offset)
	})

	t.Run("category is normalized", func(t *testing.T) {
		items, err := parseExtraction(`{"insights": [{"category": "Bold Claim", "text": "AGI soon"}]}`)
		require.NoError(t, err)
		assert.Equal(t, "bold_claim", items[0].Category)
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		_, err := parseExtraction(`{"insights": [{"category": "hot_take", "text": "something"}]}`)
		assert.ErrorIs(t, err, core.ErrUnknownCategory)
	})

	t.Run("empty text rejected", func(t *testing.T) {
		_, err := parseExtraction(`{"insights": [{"category": "tool", "text": ""}]}`)
		assert.ErrorIs(t, err, core.ErrEmptyInsightText)
	})

	t.Run("not JSON rejected", func(t *testing.T) {
		_, err := parseExtraction(`Sure! Here are the insights I found:`)
		assert.Error(t, err)
	})

	t.Run("empty insights allowed", func(t *testing.T) {
		items, err := parseExtraction(`{"insights": []}`)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestExtractInsightsReprompt(t *testing.T) {
	episode := &core.Episode{Id: "ep000000001", Title: "Episode One"}
	transcript := &core.Transcript{
		EpisodeId: "ep000000001",
		Segments:  []core.Segment{{Start: 0, Text: "the big claim today is that evals are broken"}},
	}

	t.Run("correction succeeds on second attempt", func(t *testing.T) {
		model := &scriptedModel{responses: []string{
			`{"insights": [{`,
			`{"insights": [{"category": "bold_claim", "text": "Evals are broken", "timestamp_seconds": 0}]}`,
		}}
		extractor := scriptedExtractor(model)

		record, err := extractor.ExtractInsights(context.Background(), episode, transcript)
		require.NoError(t, err)
		assert.Equal(t, 2, model.calls)
		require.Len(t, record.Insights, 1)
		assert.Equal(t, "Evals are broken", record.Insights[0].Text)
	})

	t.Run("still malformed after correction", func(t *testing.T) {
		model := &scriptedModel{responses: []string{`{"insights": [{`}}
		extractor := scriptedExtractor(model)

		_, err := extractor.ExtractInsights(context.Background(), episode, transcript)
		assert.ErrorIs(t, err, ai.ErrMalformedOutput)
		// One corrective re-prompt, then the chunk is rejected
		assert.Equal(t, 2, model.calls)
	})
}

func TestDedupeInsights(t *testing.T) {
	items := []core.InsightItem{
		{Category: "bold_claim", Text: "Scaling is over.", Offset: 10 * time.Second},
		{Category: "bold_claim", Text: "scaling is over", Offset: 300 * time.Second},
		{Category: "trend_shift", Text: "Scaling is over", Offset: 400 * time.Second},
		{Category: "tool", Text: "They use vLLM", Offset: -1},
	}

	deduped := dedupeInsights(items)
	require.Len(t, deduped, 3)
	// First occurrence wins, so the earliest offset survives
	assert.Equal(t, 10*time.Second, deduped[0].Offset)
	// Same text under a different category is kept
	assert.Equal(t, "trend_shift", deduped[1].Category)
}

func TestChunkSegments(t *testing.T) {
	segments := []core.Segment{
		{Start: 0, Text: "aaaa bbbb cccc dddd"},
		{Start: 10 * time.Second, Text: "eeee ffff gggg hhhh"},
		{Start: 20 * time.Second, Text: "iiii jjjj kkkk llll"},
	}

	t.Run("everything fits in one chunk", func(t *testing.T) {
		chunks := chunkSegments(segments, 1000, estimateCounter{})
		require.Len(t, chunks, 1)
		assert.Len(t, chunks[0], 3)
	})

	t.Run("small budget splits on segment boundaries", func(t *testing.T) {
		// Each segment estimates to 4 tokens
		chunks := chunkSegments(segments, 5, estimateCounter{})
		require.Len(t, chunks, 3)
		assert.Equal(t, "aaaa bbbb cccc dddd", chunks[0][0].Text)
	})

	t.Run("oversized segment becomes its own chunk", func(t *testing.T) {
		chunks := chunkSegments(segments, 1, estimateCounter{})
		require.Len(t, chunks, 3)
	})

	t.Run("empty input", func(t *testing.T) {
		chunks := chunkSegments(nil, 100, estimateCounter{})
		assert.Empty(t, chunks)
	})
}

func TestExtractCitations(t *testing.T) {
	text := "They covered this in [dQw4w9WgXcQ] and again in [abc123xyz_9]. See [dQw4w9WgXcQ]."
	citations := extractCitations(text)
	assert.Equal(t, []string{"dQw4w9WgXcQ", "abc123xyz_9"}, citations)

	assert.Empty(t, extractCitations("no citations here"))
	// Short bracketed fragments like [1] are not citations
	assert.Empty(t, extractCitations("item [1] and [ok]"))
}
