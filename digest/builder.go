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


// Package digest renders periodic insight digests and delivers them by email.
//
// A digest covers the episodes published since a cutoff, grouping each
// episode's insights by category. The digest is composed in Markdown and
// converted to HTML for the email body.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/podsight/core"
	"github.com/poiesic/podsight/storage"
	"github.com/russross/blackfriday/v2"
)

// categoryHeadings maps insight categories to their digest section titles,
// in display order.
var categoryHeadings = []struct {
	category string
	heading  string
}{
	{"bold_claim", "Bold claims"},
	{"technical_breakthrough", "Technical breakthroughs"},
	{"workflow_improvement", "Workflow improvements"},
	{"trend_shift", "Trend shifts"},
	{"tool", "Tools"},
	{"dataset", "Datasets"},
	{"related_content", "Related content"},
	{"event_response", "Event responses"},
	{"credibility_flag", "Credibility flags"},
}

// Digest is a rendered insight digest.
type Digest struct {
	// Subject is the suggested email subject line.
	Subject string

	// Markdown is the digest body in Markdown.
	Markdown string

	// HTML is the digest body rendered to HTML.
	HTML string

	// EpisodeCount is the number of episodes covered.
	EpisodeCount int
}

// Builder composes digests from the episode and summary stores.
type Builder struct {
	episodes  storage.EpisodeRepository
	summaries storage.SummaryRepository
	logger    *slog.Logger
}

// NewBuilder creates a digest builder.
func NewBuilder(episodes storage.EpisodeRepository, summaries storage.SummaryRepository) *Builder {
	return &Builder{
		episodes:  episodes,
		summaries: summaries,
		logger:    slog.Default().With("component", "digest-builder"),
	}
}

// Build renders a digest of every summarized episode published since the
// cutoff. Episodes without a summary yet are left out. A digest with no
// episodes is still returned, with a body saying so.
func (b *Builder) Build(ctx context.Context, since time.Time) (*Digest, error) {
	episodes, err := b.episodes.ListPublishedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}

	var md strings.Builder
	fmt.Fprintf(&md, "# AI podcast digest\n\n")
	fmt.Fprintf(&md, "Episodes published since %s.\n\n", since.Format("January 2, 2006"))

	covered := 0
	for _, episode := range episodes {
		record, err := b.summaries.GetSummary(ctx, episode.Id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read summary for %s: %w", episode.Id, err)
		}

		covered++
		b.renderEpisode(&md, episode, record)
	}

	if covered == 0 {
		fmt.Fprintf(&md, "No new episodes this period.\n")
	}

	markdown := md.String()
	digest := &Digest{
		Subject:      fmt.Sprintf("AI podcast digest - %s", time.Now().UTC().Format("January 2, 2006")),
		Markdown:     markdown,
		HTML:         string(blackfriday.Run([]byte(markdown))),
		EpisodeCount: covered,
	}

	b.logger.Debug("digest built", "episodes", covered)
	return digest, nil
}

// renderEpisode writes one episode's section: title, link, and insights
// grouped under category headings. Empty categories are omitted.
func (b *Builder) renderEpisode(md *strings.Builder, episode *core.Episode, record *core.SummaryRecord) {
	fmt.Fprintf(md, "## %s\n\n", episode.Title)
	if episode.Channel != "" {
		fmt.Fprintf(md, "*%s*", episode.Channel)
		if !episode.PublishedAt.IsZero() {
			fmt.Fprintf(md, " — %s", episode.PublishedAt.Format("January 2, 2006"))
		}
		fmt.Fprintf(md, "\n\n")
	}
	if episode.URL != "" {
		fmt.Fprintf(md, "[Watch](%s)\n\n", episode.URL)
	}

	byCategory := make(map[string][]core.InsightItem)
	for _, item := range record.Insights {
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}

	for _, section := range categoryHeadings {
		items := byCategory[section.category]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(md, "### %s\n\n", section.heading)
		for _, item := range items {
			if item.Offset >= 0 {
				fmt.Fprintf(md, "- %s (%s)\n", item.Text, formatOffset(item.Offset))
			} else {
				fmt.Fprintf(md, "- %s\n", item.Text)
			}
		}
		fmt.Fprintf(md, "\n")
	}
}

// formatOffset renders an insight's position as h:mm:ss or m:ss.
func formatOffset(offset time.Duration) string {
	total := int(offset.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
