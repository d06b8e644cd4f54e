package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for derived entities such as vector entries.
// It is generated using content-based hashing so that identical content
// always produces the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// VectorID derives the deterministic vector entry ID for an episode chunk.
// Re-indexing the same episode always targets the same IDs, which is what
// keeps the vector index free of duplicate entries.
func VectorID(episodeID string, chunk int) ID {
	return IDFromContent(episodeID + "#" + strconv.Itoa(chunk))
}

// EpisodeState tracks an episode's progress through the processing pipeline.
type EpisodeState int

const (
	// StateDiscovered means the episode has been found but not yet processed.
	StateDiscovered EpisodeState = iota + 1
	// StateTranscriptAcquired means a transcript has been fetched. The
	// orchestrator also uses this transition to claim an episode before
	// starting expensive work.
	StateTranscriptAcquired
	// StateExtracted means insights have been extracted from the transcript.
	StateExtracted
	// StatePersisted means the summary record has been written to the store.
	StatePersisted
	// StateIndexed means the summary has been projected into the vector index.
	StateIndexed
	// StateDone is the terminal success state. Episodes in this state are
	// skipped on subsequent runs unless a forced re-sync is requested.
	StateDone
	// StateFailed records a per-episode failure. The failing stage is kept
	// on the episode so the batch report can attribute it.
	StateFailed
)

// String returns a human-readable state name for logging and reports.
func (s EpisodeState) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateTranscriptAcquired:
		return "transcript_acquired"
	case StateExtracted:
		return "extracted"
	case StatePersisted:
		return "persisted"
	case StateIndexed:
		return "indexed"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Episode represents one podcast installment, the unit of processing.
// Identity fields are immutable once the episode has been acquired;
// only the state fields change as the pipeline advances.
type Episode struct {
	Id            string // Stable source-derived identifier (e.g. video ID)
	Title         string
	Channel       string
	Description   string
	URL           string
	PublishedAt   time.Time
	Duration      time.Duration
	TranscriptRef string // Reference to the raw transcript, if retained
	State         EpisodeState
	FailedStage   string // Pipeline stage that failed, set with StateFailed
	LastError     string
	DiscoveredAt  time.Time
	UpdatedAt     time.Time
}

// InsightCategories defines the closed set of category tags an extracted
// insight may carry. Model output is validated against this set.
var InsightCategories = []string{
	"bold_claim",
	"technical_breakthrough",
	"workflow_improvement",
	"trend_shift",
	"tool",
	"dataset",
	"related_content",
	"event_response",
	"credibility_flag",
}

// IsInsightCategory reports whether tag is a member of the closed category set.
func IsInsightCategory(tag string) bool {
	for _, c := range InsightCategories {
		if c == tag {
			return true
		}
	}
	return false
}

// InsightItem is a single extracted insight from an episode transcript.
type InsightItem struct {
	Category string // One of InsightCategories
	Text     string
	Offset   time.Duration // Position in the source audio; negative when unknown
}

// SummaryRecord is the structured extraction of insights from one episode's
// transcript. The structured store holds exactly one current record per
// episode; re-extraction overwrites it.
type SummaryRecord struct {
	EpisodeId   string
	Insights    []InsightItem
	GeneratedAt time.Time
	Model       string // Identity of the model that produced the record
}

// Text renders the record's insights as a single plain-text block in
// insertion order. This is the text that gets embedded and the text supplied
// as grounding context to the answer model.
func (r *SummaryRecord) Text() string {
	var b []byte
	for _, item := range r.Insights {
		b = append(b, '[')
		b = append(b, item.Category...)
		b = append(b, "] "...)
		b = append(b, item.Text...)
		b = append(b, '\n')
	}
	return string(b)
}

// VectorEntry is an embedding plus payload metadata for one (episode, chunk)
// pair stored in the vector index. The payload is a pointer back into the
// structured store, not a substitute for it.
type VectorEntry struct {
	Id        ID // VectorID(EpisodeId, Chunk)
	EpisodeId string
	Chunk     int
	Vector    []float32
	Title     string
	Snippet   string
}

// VectorMatch is a ranked result from a nearest-neighbor query.
type VectorMatch struct {
	Entry *VectorEntry
	Score float32
}

// Segment is one timestamped piece of a transcript.
type Segment struct {
	Start time.Duration
	Text  string
}

// Transcript is the ordered sequence of timestamped segments for an episode.
type Transcript struct {
	EpisodeId string
	Segments  []Segment
}

// Text joins all segment texts into a single string.
func (t *Transcript) Text() string {
	var b []byte
	for i, seg := range t.Segments {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, seg.Text...)
	}
	return string(b)
}
