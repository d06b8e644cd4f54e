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


package transcript

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/podsight/core"
)

// DefaultTimedTextURL is the YouTube caption endpoint.
const DefaultTimedTextURL = "https://video.google.com/timedtext"

// Acquirer fetches a transcript for an episode from its source.
// Implementations must be thread-safe for concurrent use.
type Acquirer interface {
	// Fetch retrieves the transcript for an episode.
	//
	// Returns ErrNoTranscript when the source has none, ErrRateLimited on
	// throttling, ErrTransient on network or server failures, and
	// ErrInvalidSource for malformed episode identifiers.
	Fetch(ctx context.Context, episodeID string) (*core.Transcript, error)
}

// YouTubeAcquirer fetches captions from YouTube's timedtext endpoint.
type YouTubeAcquirer struct {
	baseURL  string
	language string
	client   *http.Client
	logger   *slog.Logger
}

var _ Acquirer = (*YouTubeAcquirer)(nil)

// YouTubeOption is a functional option for configuring a YouTubeAcquirer.
type YouTubeOption func(*YouTubeAcquirer)

// WithBaseURL overrides the timedtext endpoint URL. Used in tests.
func WithBaseURL(baseURL string) YouTubeOption {
	return func(a *YouTubeAcquirer) {
		a.baseURL = baseURL
	}
}

// WithLanguage sets the caption language code. Default: "en".
func WithLanguage(lang string) YouTubeOption {
	return func(a *YouTubeAcquirer) {
		a.language = lang
	}
}

// WithHTTPClient sets the HTTP client used for fetches.
func WithHTTPClient(client *http.Client) YouTubeOption {
	return func(a *YouTubeAcquirer) {
		a.client = client
	}
}

// NewYouTubeAcquirer creates a transcript acquirer backed by YouTube captions.
func NewYouTubeAcquirer(opts ...YouTubeOption) *YouTubeAcquirer {
	acquirer := &YouTubeAcquirer{
		baseURL:  DefaultTimedTextURL,
		language: "en",
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   slog.Default().With("component", "youtube-transcript"),
	}
	for _, opt := range opts {
		opt(acquirer)
	}
	return acquirer
}

// timedText mirrors the XML document served by the timedtext endpoint.
type timedText struct {
	XMLName xml.Name       `xml:"transcript"`
	Texts   []timedTextRow `xml:"text"`
}

type timedTextRow struct {
	Start    float64 `xml:"start,attr"`
	Duration float64 `xml:"dur,attr"`
	Body     string  `xml:",chardata"`
}

// Fetch retrieves the caption track for a video and converts it into a
// transcript with per-segment start offsets.
func (a *YouTubeAcquirer) Fetch(ctx context.Context, episodeID string) (*core.Transcript, error) {
	if !IsVideoID(episodeID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, episodeID)
	}

	query := url.Values{}
	query.Set("lang", a.language)
	query.Set("v", episodeID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn("transcript fetch failed", "episode", episodeID, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, episodeID)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNoTranscript, episodeID)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrNoTranscript, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	// An empty body means captions are disabled for the video
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTranscript, episodeID)
	}

	var doc timedText
	if err := xml.Unmarshal(body, &doc); err != nil {
		a.logger.Warn("malformed timedtext document", "episode", episodeID, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrNoTranscript, err)
	}

	result := &core.Transcript{EpisodeId: episodeID}
	for _, row := range doc.Texts {
		text := strings.TrimSpace(html.UnescapeString(row.Body))
		if text == "" {
			continue
		}
		result.Segments = append(result.Segments, core.Segment{
			Start: time.Duration(row.Start * float64(time.Second)),
			Text:  text,
		})
	}
	if len(result.Segments) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTranscript, episodeID)
	}

	a.logger.Debug("transcript fetched", "episode", episodeID, "segments", len(result.Segments))
	return result, nil
}

// IsVideoID reports whether a string looks like a YouTube video ID:
// exactly 11 characters from the URL-safe base64 alphabet.
func IsVideoID(id string) bool {
	if len(id) != 11 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
