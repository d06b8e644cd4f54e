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

import "errors"

// Domain validation errors
var (
	// ErrInvalidEpisode indicates an Episode failed validation.
	ErrInvalidEpisode = errors.New("invalid episode")

	// ErrInvalidSummary indicates a SummaryRecord failed validation.
	ErrInvalidSummary = errors.New("invalid summary record")

	// ErrEmptyEpisodeID indicates the episode identifier is empty.
	ErrEmptyEpisodeID = errors.New("episode id cannot be empty")

	// ErrEmptyInsightText indicates an insight item has no text.
	ErrEmptyInsightText = errors.New("insight text cannot be empty")

	// ErrUnknownCategory indicates an insight category outside the closed set.
	ErrUnknownCategory = errors.New("unknown insight category")

	// ErrInvalidState indicates an EpisodeState outside the defined range.
	ErrInvalidState = errors.New("invalid episode state")

	// ErrInvalidTransition indicates a disallowed state machine transition.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")
)
