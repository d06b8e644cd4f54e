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


package core

import (
	"fmt"
	"time"
)

// ValidateEpisode validates an Episode according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//   - State must be a defined EpisodeState
//   - PublishedAt must not be in the future
//
// NOT validated (populated by the pipeline):
//   - TranscriptRef (empty until a transcript is acquired)
//   - FailedStage / LastError (empty unless State is StateFailed)
func ValidateEpisode(episode *Episode) error {
	if episode == nil {
		return fmt.Errorf("%w: episode is nil", ErrInvalidEpisode)
	}

	if episode.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEpisode, ErrEmptyEpisodeID)
	}

	if err := ValidateState(episode.State); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEpisode, err)
	}

	if !IsValidTimestamp(episode.PublishedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidEpisode, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateSummaryRecord validates a SummaryRecord according to domain rules.
//
// Validation rules:
//   - EpisodeId must not be empty
//   - Every insight must have non-empty text
//   - Every insight category must be in the closed category set
//
// This is the schema check applied to extraction output before a record is
// accepted: a violation here is what triggers the extractor's single
// corrective re-prompt.
func ValidateSummaryRecord(record *SummaryRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidSummary)
	}

	if record.EpisodeId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSummary, ErrEmptyEpisodeID)
	}

	for i, item := range record.Insights {
		if item.Text == "" {
			return fmt.Errorf("%w: item %d: %w", ErrInvalidSummary, i, ErrEmptyInsightText)
		}
		if !IsInsightCategory(item.Category) {
			return fmt.Errorf("%w: item %d: %w: %q", ErrInvalidSummary, i, ErrUnknownCategory, item.Category)
		}
	}

	return nil
}

// ValidateState validates that an EpisodeState has a defined value.
func ValidateState(state EpisodeState) error {
	if state < StateDiscovered || state > StateFailed {
		return fmt.Errorf("%w: value %d", ErrInvalidState, state)
	}
	return nil
}

// CanTransition reports whether the state machine permits moving from one
// state to another. StateFailed is reachable from any non-terminal state,
// and a failed episode may be retried (back through the pipeline) or
// re-claimed directly.
func CanTransition(from, to EpisodeState) bool {
	if to == StateFailed {
		return from != StateDone && from != StateFailed
	}
	switch from {
	case StateDiscovered:
		return to == StateTranscriptAcquired
	case StateTranscriptAcquired:
		return to == StateExtracted
	case StateExtracted:
		return to == StatePersisted
	case StatePersisted:
		return to == StateIndexed
	case StateIndexed:
		return to == StateDone
	case StateFailed:
		return to == StateTranscriptAcquired
	default:
		return false
	}
}

// ValidateTransition returns ErrInvalidTransition when the state machine
// does not permit moving from one state to another.
func ValidateTransition(from, to EpisodeState) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
// The zero value is accepted; it means "unknown".
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
