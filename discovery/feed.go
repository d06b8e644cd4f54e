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


package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/poiesic/podsight/core"
	"github.com/poiesic/podsight/transcript"
)

// Source produces candidate episodes to feed into the pipeline.
// Implementations must be thread-safe for concurrent use.
type Source interface {
	// Discover returns the episodes currently visible at the source,
	// newest first. Episodes are returned in StateDiscovered; the caller
	// decides which are new.
	Discover(ctx context.Context) ([]*core.Episode, error)
}

// FeedSource discovers episodes from channel RSS/Atom feeds, such as
// YouTube's per-channel feed:
//
//	https://www.youtube.com/feeds/videos.xml?channel_id=UC...
type FeedSource struct {
	feedURLs []string
	parser   *gofeed.Parser
	logger   *slog.Logger
}

var _ Source = (*FeedSource)(nil)

// NewFeedSource creates a feed-backed episode source.
func NewFeedSource(feedURLs ...string) (*FeedSource, error) {
	if len(feedURLs) == 0 {
		return nil, ErrNoFeeds
	}
	return &FeedSource{
		feedURLs: feedURLs,
		parser:   gofeed.NewParser(),
		logger:   slog.Default().With("component", "feed-source"),
	}, nil
}

// Discover fetches every configured feed and converts its items into
// episodes. Items without a recognizable video ID are skipped. A feed that
// fails to parse fails the whole discovery; partial results would silently
// hide channels.
func (s *FeedSource) Discover(ctx context.Context) ([]*core.Episode, error) {
	var episodes []*core.Episode

	for _, feedURL := range s.feedURLs {
		feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to parse feed %s: %w", feedURL, err)
		}

		for _, item := range feed.Items {
			episode := s.itemToEpisode(feed, item)
			if episode == nil {
				continue
			}
			episodes = append(episodes, episode)
		}
	}

	s.logger.Debug("feed discovery complete", "feeds", len(s.feedURLs), "episodes", len(episodes))
	return episodes, nil
}

// itemToEpisode converts a feed item into an episode, or nil if the item
// carries no usable video ID.
func (s *FeedSource) itemToEpisode(feed *gofeed.Feed, item *gofeed.Item) *core.Episode {
	id := extractVideoID(item)
	if id == "" {
		s.logger.Debug("skipping feed item without video ID", "link", item.Link)
		return nil
	}

	episode := &core.Episode{
		Id:          id,
		Title:       strings.TrimSpace(item.Title),
		Channel:     strings.TrimSpace(feed.Title),
		Description: strings.TrimSpace(item.Description),
		URL:         item.Link,
		State:       core.StateDiscovered,
	}
	if item.PublishedParsed != nil {
		episode.PublishedAt = item.PublishedParsed.UTC()
	}
	return episode
}

// extractVideoID pulls the YouTube video ID out of a feed item, trying the
// yt:videoId extension first and falling back to the link's v= parameter.
func extractVideoID(item *gofeed.Item) string {
	if ext, ok := item.Extensions["yt"]; ok {
		if ids, ok := ext["videoId"]; ok && len(ids) > 0 {
			if transcript.IsVideoID(ids[0].Value) {
				return ids[0].Value
			}
		}
	}

	parsed, err := url.Parse(item.Link)
	if err != nil {
		return ""
	}
	if id := parsed.Query().Get("v"); transcript.IsVideoID(id) {
		return id
	}
	// Short links put the ID in the path: youtu.be/<id>. Any other host
	// with an 11-character path tail is not a video link.
	if parsed.Host == "youtu.be" {
		if id := strings.TrimPrefix(parsed.Path, "/"); transcript.IsVideoID(id) {
			return id
		}
	}
	return ""
}
