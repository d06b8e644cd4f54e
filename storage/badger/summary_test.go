package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/podsight/core"
	"github.com/poiesic/podsight/storage"
)

func TestSummaryBasics(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	record := &core.SummaryRecord{
		EpisodeId: "dQw4w9WgXcQ",
		Insights: []core.InsightItem{
			{Category: "bold_claim", Text: "AGI by Thursday", Offset: 90 * time.Second},
			{Category: "tool", Text: "New eval harness released", Offset: -1},
		},
		Model: "gpt-4o-mini",
	}

	if err := repos.Summaries.PutSummary(ctx, record); err != nil {
		t.Fatalf("Failed to put summary: %v", err)
	}
	if record.GeneratedAt.IsZero() {
		t.Fatal("Expected GeneratedAt to be set")
	}

	retrieved, err := repos.Summaries.GetSummary(ctx, "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Failed to get summary: %v", err)
	}
	if len(retrieved.Insights) != 2 {
		t.Fatalf("Expected 2 insights, got %d", len(retrieved.Insights))
	}
	if retrieved.Insights[0].Text != "AGI by Thursday" {
		t.Fatalf("Unexpected insight text: %q", retrieved.Insights[0].Text)
	}
	if retrieved.Insights[1].Offset != -1 {
		t.Fatalf("Expected unknown offset preserved, got %v", retrieved.Insights[1].Offset)
	}

	found, err := repos.Summaries.HasSummary(ctx, "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Failed to check summary: %v", err)
	}
	if !found {
		t.Fatal("Expected summary to exist")
	}

	_, err = repos.Summaries.GetSummary(ctx, "absent00000")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestSummaryOverwrite(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	first := &core.SummaryRecord{
		EpisodeId: "ep000000001",
		Insights:  []core.InsightItem{{Category: "trend_shift", Text: "Old take", Offset: -1}},
	}
	if err := repos.Summaries.PutSummary(ctx, first); err != nil {
		t.Fatalf("Failed to put summary: %v", err)
	}

	// Re-extraction replaces the record wholesale
	second := &core.SummaryRecord{
		EpisodeId: "ep000000001",
		Insights: []core.InsightItem{
			{Category: "trend_shift", Text: "New take", Offset: -1},
			{Category: "dataset", Text: "Benchmark v2 published", Offset: -1},
		},
	}
	if err := repos.Summaries.PutSummary(ctx, second); err != nil {
		t.Fatalf("Failed to overwrite summary: %v", err)
	}

	retrieved, err := repos.Summaries.GetSummary(ctx, "ep000000001")
	if err != nil {
		t.Fatalf("Failed to get summary: %v", err)
	}
	if len(retrieved.Insights) != 2 || retrieved.Insights[0].Text != "New take" {
		t.Fatalf("Expected overwritten record, got %+v", retrieved.Insights)
	}
}

func TestSummaryValidationRejected(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	bad := &core.SummaryRecord{
		EpisodeId: "ep000000002",
		Insights:  []core.InsightItem{{Category: "hot_gossip", Text: "Not a real category", Offset: -1}},
	}
	err = repos.Summaries.PutSummary(ctx, bad)
	if !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("Expected ErrUnknownCategory, got %v", err)
	}

	found, err := repos.Summaries.HasSummary(ctx, "ep000000002")
	if err != nil {
		t.Fatalf("Failed to check summary: %v", err)
	}
	if found {
		t.Fatal("Expected rejected record to not be stored")
	}
}

func TestSummaryDelete(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	record := &core.SummaryRecord{
		EpisodeId: "ep000000003",
		Insights:  []core.InsightItem{{Category: "tool", Text: "Shipped a CLI", Offset: -1}},
	}
	if err := repos.Summaries.PutSummary(ctx, record); err != nil {
		t.Fatalf("Failed to put summary: %v", err)
	}

	if err := repos.Summaries.DeleteSummary(ctx, "ep000000003"); err != nil {
		t.Fatalf("Failed to delete summary: %v", err)
	}

	found, err := repos.Summaries.HasSummary(ctx, "ep000000003")
	if err != nil {
		t.Fatalf("Failed to check summary: %v", err)
	}
	if found {
		t.Fatal("Expected summary to be deleted")
	}

	// Deleting again is a no-op
	if err := repos.Summaries.DeleteSummary(ctx, "ep000000003"); err != nil {
		t.Fatalf("Expected idempotent delete, got %v", err)
	}
}
