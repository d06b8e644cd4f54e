package openai

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
	"github.com/poiesic/podsight/core"
)

// tokenCounter estimates the token count of a text.
type tokenCounter interface {
	Count(text string) int
}

// tiktokenCounter counts tokens with the cl100k_base BPE encoding.
type tiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

func (t *tiktokenCounter) Count(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// estimateCounter approximates tokens as characters divided by four.
// Used when the BPE encoding files are unavailable (offline environments).
type estimateCounter struct{}

func (estimateCounter) Count(text string) int {
	n := len(text) / 4
	if n < 1 && len(text) > 0 {
		return 1
	}
	return n
}

// newTokenCounter returns a tiktoken-backed counter, falling back to a
// character estimate if the encoding can't be loaded.
func newTokenCounter() tokenCounter {
	encoding, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	if err != nil {
		slog.Default().Debug("tiktoken unavailable, using character estimate", "err", err)
		return estimateCounter{}
	}
	return &tiktokenCounter{encoding: encoding}
}

// chunkSegments splits transcript segments into runs whose combined token
// count stays under the budget. Segments are never split; a single oversized
// segment becomes its own chunk.
func chunkSegments(segments []core.Segment, budget int, counter tokenCounter) [][]core.Segment {
	var chunks [][]core.Segment
	var current []core.Segment
	currentTokens := 0

	for _, segment := range segments {
		tokens := counter.Count(segment.Text)
		if len(current) > 0 && currentTokens+tokens > budget {
			chunks = append(chunks, current)
			current = nil
			currentTokens = 0
		}
		current = append(current, segment)
		currentTokens += tokens
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}
