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

import "errors"

var (
	// ErrNoTranscript indicates the source has no transcript for the
	// episode. This is permanent; retrying won't help.
	ErrNoTranscript = errors.New("no transcript available")

	// ErrRateLimited indicates the source throttled the request.
	// Retryable after a delay.
	ErrRateLimited = errors.New("transcript source rate limited")

	// ErrTransient indicates a network or server failure. Retryable.
	ErrTransient = errors.New("transient transcript fetch failure")

	// ErrInvalidSource indicates the episode identifier can't belong to
	// this source. Permanent.
	ErrInvalidSource = errors.New("invalid transcript source identifier")
)
