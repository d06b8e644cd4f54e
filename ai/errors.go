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


package ai

import "errors"

var (
	// ErrMalformedOutput indicates the model produced output that could not
	// be coerced into the expected schema, even after a corrective re-prompt.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrExtractionFailed indicates insight extraction failed for reasons
	// other than output shape, such as transport or model errors.
	ErrExtractionFailed = errors.New("insight extraction failed")

	// ErrSynthesisFailed indicates answer synthesis failed.
	ErrSynthesisFailed = errors.New("answer synthesis failed")
)
