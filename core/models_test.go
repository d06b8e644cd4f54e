package core

import (
	"strings"
	"testing"
	"time"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same ID",
			content: "test content",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "This is a much longer piece of content that should still hash consistently",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestVectorID_Deterministic(t *testing.T) {
	if VectorID("J5CDDV0QdlA", 0) != VectorID("J5CDDV0QdlA", 0) {
		t.Error("VectorID() is not deterministic")
	}
	if VectorID("J5CDDV0QdlA", 0) == VectorID("J5CDDV0QdlA", 1) {
		t.Error("VectorID() collides across chunks of the same episode")
	}
	if VectorID("J5CDDV0QdlA", 0) == VectorID("dQw4w9WgXcQ", 0) {
		t.Error("VectorID() collides across episodes")
	}
}

func TestEpisodeState_String(t *testing.T) {
	tests := []struct {
		state EpisodeState
		want  string
	}{
		{StateDiscovered, "discovered"},
		{StateTranscriptAcquired, "transcript_acquired"},
		{StateExtracted, "extracted"},
		{StatePersisted, "persisted"},
		{StateIndexed, "indexed"},
		{StateDone, "done"},
		{StateFailed, "failed"},
		{EpisodeState(0), "unknown"},
		{EpisodeState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("EpisodeState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestIsInsightCategory(t *testing.T) {
	for _, c := range InsightCategories {
		if !IsInsightCategory(c) {
			t.Errorf("IsInsightCategory(%q) = false for member of the closed set", c)
		}
	}

	for _, c := range []string{"", "opinion", "Bold_Claim", "tool "} {
		if IsInsightCategory(c) {
			t.Errorf("IsInsightCategory(%q) = true for non-member", c)
		}
	}
}

func TestSummaryRecord_Text(t *testing.T) {
	record := &SummaryRecord{
		EpisodeId: "abc123def45",
		Insights: []InsightItem{
			{Category: "tool", Text: "LM Studio for local model testing", Offset: 95 * time.Second},
			{Category: "bold_claim", Text: "Agents will replace most RPA workflows", Offset: -1},
		},
	}

	text := record.Text()
	if !strings.Contains(text, "[tool] LM Studio for local model testing") {
		t.Errorf("Text() missing first insight, got: %q", text)
	}
	if !strings.Contains(text, "[bold_claim] Agents will replace most RPA workflows") {
		t.Errorf("Text() missing second insight, got: %q", text)
	}
}

func TestTranscript_Text(t *testing.T) {
	transcript := &Transcript{
		EpisodeId: "abc123def45",
		Segments: []Segment{
			{Start: 0, Text: "Welcome to the show."},
			{Start: 3 * time.Second, Text: "Today we talk about agents."},
		},
	}

	want := "Welcome to the show. Today we talk about agents."
	if got := transcript.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}
